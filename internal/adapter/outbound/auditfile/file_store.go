// Package auditfile provides file-based audit persistence with JSON Lines
// format, daily rotation, size caps, retention cleanup, and an in-memory
// cache of recent records. The store directory is guarded with an advisory
// lock so two processes never interleave writes into the same trail.
package auditfile

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/tripforge/tripforge/internal/domain/audit"
)

// auditFilePattern matches trail filenames: audit-YYYY-MM-DD.log or
// audit-YYYY-MM-DD-N.log.
var auditFilePattern = regexp.MustCompile(`^audit-(\d{4}-\d{2}-\d{2})(?:-(\d+))?\.log$`)

// fileInfo holds parsed information about one trail file.
type fileInfo struct {
	name   string
	date   string
	suffix int
}

func parseFilename(name string) (fileInfo, bool) {
	matches := auditFilePattern.FindStringSubmatch(name)
	if matches == nil {
		return fileInfo{}, false
	}
	info := fileInfo{name: name, date: matches[1]}
	if matches[2] != "" {
		n, err := strconv.Atoi(matches[2])
		if err != nil {
			return fileInfo{}, false
		}
		info.suffix = n
	}
	return info, true
}

// sortFiles sorts trail files chronologically: by date, then suffix.
func sortFiles(files []fileInfo) {
	sort.Slice(files, func(i, j int) bool {
		if files[i].date != files[j].date {
			return files[i].date < files[j].date
		}
		return files[i].suffix < files[j].suffix
	})
}

// Config holds configuration for the file-based audit store.
type Config struct {
	// Dir is the directory where trail files are stored.
	Dir string
	// RetentionDays is the number of days to keep trail files (default 30).
	RetentionDays int
	// MaxFileSizeMB is the maximum file size before rotation (default 100).
	MaxFileSizeMB int
	// CacheSize is the number of recent records kept in memory (default 1000).
	CacheSize int
}

// Store implements audit.Store and audit.QueryStore over JSONL trail files.
type Store struct {
	dir           string
	maxFileSize   int64
	retentionDays int

	mu            sync.Mutex
	currentFile   *os.File
	currentDate   string
	currentSize   int64
	currentSuffix int
	closed        bool

	lock   *dirLock
	cache  *recentCache
	logger *slog.Logger
	cancel context.CancelFunc
}

var (
	_ audit.Store      = (*Store)(nil)
	_ audit.QueryStore = (*Store)(nil)
)

// New creates a file-based audit store. It creates the directory if needed,
// acquires the directory lock, opens today's trail file, runs retention
// cleanup, warms the cache from the most recent file, and starts the hourly
// cleanup loop.
func New(cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 30
	}
	if cfg.MaxFileSizeMB <= 0 {
		cfg.MaxFileSizeMB = 100
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 1000
	}

	if err := os.MkdirAll(cfg.Dir, 0700); err != nil {
		return nil, fmt.Errorf("create audit directory: %w", err)
	}

	lock, err := acquireDirLock(filepath.Join(cfg.Dir, ".lock"))
	if err != nil {
		return nil, fmt.Errorf("lock audit directory: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		dir:           cfg.Dir,
		maxFileSize:   int64(cfg.MaxFileSizeMB) * 1024 * 1024,
		retentionDays: cfg.RetentionDays,
		lock:          lock,
		cache:         newRecentCache(cfg.CacheSize),
		logger:        logger,
		cancel:        cancel,
	}

	today := time.Now().UTC().Format("2006-01-02")
	if err := s.openCurrentFile(today); err != nil {
		cancel()
		_ = lock.release()
		return nil, fmt.Errorf("open trail file: %w", err)
	}

	s.runCleanup()
	s.warmCache()
	go s.cleanupLoop(ctx)

	return s, nil
}

// Append writes records as JSON lines to the current trail file, rotating
// on date and size boundaries.
func (s *Store) Append(ctx context.Context, records ...audit.Record) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range records {
		dateStr := rec.Timestamp.UTC().Format("2006-01-02")
		if dateStr != s.currentDate {
			if err := s.rotateDateLocked(dateStr); err != nil {
				return fmt.Errorf("date rotation: %w", err)
			}
		}
		if s.currentSize >= s.maxFileSize {
			if err := s.rotateSizeLocked(); err != nil {
				return fmt.Errorf("size rotation: %w", err)
			}
		}

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal audit record: %w", err)
		}
		n, err := s.currentFile.Write(append(data, '\n'))
		if err != nil {
			return fmt.Errorf("write audit record: %w", err)
		}
		s.currentSize += int64(n)
		s.cache.add(rec)
	}
	return nil
}

// Flush syncs the current trail file to disk.
func (s *Store) Flush(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentFile != nil {
		return s.currentFile.Sync()
	}
	return nil
}

// Close stops the cleanup loop, closes the current file, and releases the
// directory lock.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.cancel()

	var err error
	if s.currentFile != nil {
		_ = s.currentFile.Sync()
		err = s.currentFile.Close()
		s.currentFile = nil
	}
	if s.lock != nil {
		_ = s.lock.release()
		s.lock = nil
	}
	return err
}

// Recent returns the last n records from the in-memory cache, newest first.
func (s *Store) Recent(n int) []audit.Record {
	return s.cache.recent(n)
}

// Query scans trail files whose date falls inside the filter range and
// returns matching records in chronological order.
func (s *Store) Query(ctx context.Context, filter audit.Filter) ([]audit.Record, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read audit directory: %w", err)
	}

	startDate := filter.StartTime.UTC().Format("2006-01-02")
	endDate := filter.EndTime.UTC().Format("2006-01-02")

	var files []fileInfo
	for _, e := range entries {
		info, ok := parseFilename(e.Name())
		if !ok {
			continue
		}
		if info.date < startDate || info.date > endDate {
			continue
		}
		files = append(files, info)
	}
	sortFiles(files)

	var out []audit.Record
	for _, fi := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records, err := s.scanFile(fi.name, filter)
		if err != nil {
			s.logger.Warn("skipping unreadable trail file", "file", fi.name, "error", err)
			continue
		}
		out = append(out, records...)
		if len(out) >= limit {
			return out[:limit], nil
		}
	}
	return out, nil
}

func (s *Store) scanFile(name string, filter audit.Filter) ([]audit.Record, error) {
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var out []audit.Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 256*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec audit.Record
		if err := json.Unmarshal(line, &rec); err != nil {
			s.logger.Warn("skipping malformed trail line", "file", name, "error", err)
			continue
		}
		if rec.Timestamp.Before(filter.StartTime) || rec.Timestamp.After(filter.EndTime) {
			continue
		}
		if filter.OrgID != "" && rec.OrgID != filter.OrgID {
			continue
		}
		if filter.UserID != "" && rec.UserID != filter.UserID {
			continue
		}
		if filter.EventType != "" && rec.EventType != filter.EventType {
			continue
		}
		out = append(out, rec)
	}
	return out, scanner.Err()
}

func (s *Store) openCurrentFile(dateStr string) error {
	suffix := s.findHighestSuffix(dateStr)
	f, size, err := s.openFile(dateStr, suffix)
	if err != nil {
		return err
	}
	s.currentFile = f
	s.currentDate = dateStr
	s.currentSize = size
	s.currentSuffix = suffix
	return nil
}

func (s *Store) findHighestSuffix(dateStr string) int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0
	}
	highest := 0
	for _, e := range entries {
		info, ok := parseFilename(e.Name())
		if !ok || info.date != dateStr {
			continue
		}
		if info.suffix > highest {
			highest = info.suffix
		}
	}
	return highest
}

func (s *Store) openFile(dateStr string, suffix int) (*os.File, int64, error) {
	path := filepath.Join(s.dir, buildFilename(dateStr, suffix))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, 0, fmt.Errorf("open file %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("stat file %s: %w", path, err)
	}
	return f, info.Size(), nil
}

func buildFilename(dateStr string, suffix int) string {
	if suffix == 0 {
		return fmt.Sprintf("audit-%s.log", dateStr)
	}
	return fmt.Sprintf("audit-%s-%d.log", dateStr, suffix)
}

// rotateDateLocked opens a fresh file for a new date. Caller holds s.mu.
func (s *Store) rotateDateLocked(dateStr string) error {
	if s.currentFile != nil {
		_ = s.currentFile.Sync()
		_ = s.currentFile.Close()
		s.currentFile = nil
	}
	s.currentSuffix = 0
	s.currentDate = dateStr

	f, size, err := s.openFile(dateStr, 0)
	if err != nil {
		return err
	}
	s.currentFile = f
	s.currentSize = size
	return nil
}

// rotateSizeLocked opens the next suffix for the current date. Caller holds
// s.mu.
func (s *Store) rotateSizeLocked() error {
	if s.currentFile != nil {
		_ = s.currentFile.Sync()
		_ = s.currentFile.Close()
		s.currentFile = nil
	}
	s.currentSuffix++

	f, size, err := s.openFile(s.currentDate, s.currentSuffix)
	if err != nil {
		return err
	}
	s.currentFile = f
	s.currentSize = size
	return nil
}

// runCleanup deletes trail files older than the retention period.
func (s *Store) runCleanup() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Error("audit cleanup: reading directory failed", "dir", s.dir, "error", err)
		return
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -s.retentionDays)
	deleted := 0
	for _, e := range entries {
		info, ok := parseFilename(e.Name())
		if !ok {
			continue
		}
		fileDate, err := time.Parse("2006-01-02", info.date)
		if err != nil {
			continue
		}
		if fileDate.Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
				s.logger.Error("audit cleanup: deleting file failed", "file", e.Name(), "error", err)
			} else {
				deleted++
			}
		}
	}
	if deleted > 0 {
		s.logger.Info("audit cleanup completed", "deleted", deleted)
	}
}

func (s *Store) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runCleanup()
		}
	}
}

// warmCache fills the recent-record cache from the most recent trail file.
func (s *Store) warmCache() {
	name := s.findMostRecentFile()
	if name == "" {
		return
	}

	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		s.logger.Error("audit cache: opening file failed", "file", name, "error", err)
		return
	}
	defer func() { _ = f.Close() }()

	var records []audit.Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 256*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec audit.Record
		if err := json.Unmarshal(line, &rec); err != nil {
			s.logger.Warn("audit cache: skipping malformed line", "file", name, "error", err)
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		s.logger.Error("audit cache: reading file failed", "file", name, "error", err)
	}

	start := 0
	if len(records) > s.cache.size {
		start = len(records) - s.cache.size
	}
	for _, rec := range records[start:] {
		s.cache.add(rec)
	}
}

func (s *Store) findMostRecentFile() string {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return ""
	}

	var files []fileInfo
	for _, e := range entries {
		info, ok := parseFilename(e.Name())
		if !ok {
			continue
		}
		finfo, err := e.Info()
		if err != nil || finfo.Size() == 0 {
			continue
		}
		files = append(files, info)
	}
	if len(files) == 0 {
		return ""
	}
	sortFiles(files)
	return files[len(files)-1].name
}

// recentCache is a ring buffer of recent records.
type recentCache struct {
	mu      sync.RWMutex
	entries []audit.Record
	size    int
	head    int
	count   int
}

func newRecentCache(size int) *recentCache {
	if size <= 0 {
		size = 1000
	}
	return &recentCache{entries: make([]audit.Record, size), size: size}
}

func (c *recentCache) add(rec audit.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[c.head] = rec
	c.head = (c.head + 1) % c.size
	if c.count < c.size {
		c.count++
	}
}

// recent returns the last n records, newest first.
func (c *recentCache) recent(n int) []audit.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if n <= 0 || c.count == 0 {
		return nil
	}
	if n > c.count {
		n = c.count
	}
	out := make([]audit.Record, n)
	for i := 0; i < n; i++ {
		idx := (c.head - 1 - i + c.size) % c.size
		out[i] = c.entries[idx]
	}
	return out
}
