// Package service contains the application services that tie the domain
// model to the outbound adapters.
package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tripforge/tripforge/internal/domain/audit"
	"github.com/tripforge/tripforge/internal/observability"
)

// AuditService records usage audit entries asynchronously through a
// buffered channel and background worker. Recording never blocks a booking
// decision and never propagates storage failures to the caller.
type AuditService struct {
	store     audit.Store
	recordCh  chan audit.Record
	wg        sync.WaitGroup
	logger    *slog.Logger
	batchSize int
	flushIvl  time.Duration

	channelSize int
	sendTimeout time.Duration
	dropCount   atomic.Int64
	lastWarning atomic.Int64
	metrics     *observability.Metrics
}

// AuditOption configures AuditService.
type AuditOption func(*AuditService)

// WithBatchSize sets the number of records batched before a write.
func WithBatchSize(size int) AuditOption {
	return func(s *AuditService) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// WithFlushInterval sets the interval at which partial batches are written.
func WithFlushInterval(interval time.Duration) AuditOption {
	return func(s *AuditService) {
		if interval > 0 {
			s.flushIvl = interval
		}
	}
}

// WithChannelSize sets the record channel buffer size.
func WithChannelSize(size int) AuditOption {
	return func(s *AuditService) {
		if size > 0 {
			s.recordCh = make(chan audit.Record, size)
			s.channelSize = size
		}
	}
}

// WithSendTimeout sets the backpressure timeout. Zero drops immediately
// when the channel is full; a positive value blocks up to that long first.
func WithSendTimeout(timeout time.Duration) AuditOption {
	return func(s *AuditService) {
		s.sendTimeout = timeout
	}
}

// WithAuditMetrics attaches the drop counter.
func WithAuditMetrics(m *observability.Metrics) AuditOption {
	return func(s *AuditService) {
		s.metrics = m
	}
}

// NewAuditService creates the recorder around a store.
func NewAuditService(store audit.Store, logger *slog.Logger, opts ...AuditOption) *AuditService {
	const defaultChannelSize = 1000
	s := &AuditService{
		store:       store,
		recordCh:    make(chan audit.Record, defaultChannelSize),
		logger:      logger,
		batchSize:   100,
		flushIvl:    time.Second,
		channelSize: defaultChannelSize,
		sendTimeout: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the background worker.
func (s *AuditService) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.worker(ctx)
}

// Record enqueues a usage record. When the channel is full the send blocks
// up to the configured timeout, then the record is dropped and counted; a
// failing audit trail must not stall bookings.
func (s *AuditService) Record(record audit.Record) {
	if depth := len(s.recordCh); depth >= s.channelSize*8/10 {
		s.warnChannelDepth(depth)
	}

	select {
	case s.recordCh <- record:
		return
	default:
	}

	if s.sendTimeout <= 0 {
		s.recordDrop(record)
		return
	}

	select {
	case s.recordCh <- record:
	case <-time.After(s.sendTimeout):
		s.recordDrop(record)
	}
}

func (s *AuditService) recordDrop(record audit.Record) {
	drops := s.dropCount.Add(1)
	if s.metrics != nil {
		s.metrics.AuditDropsTotal.Inc()
	}
	s.logger.Warn("audit record dropped",
		"org", record.OrgID,
		"user", record.UserID,
		"event", record.EventType,
		"total_drops", drops,
	)
}

// warnChannelDepth logs the depth warning, rate-limited to once per second.
func (s *AuditService) warnChannelDepth(depth int) {
	now := time.Now().UnixNano()
	last := s.lastWarning.Load()
	if now-last < int64(time.Second) {
		return
	}
	if s.lastWarning.CompareAndSwap(last, now) {
		s.logger.Warn("audit channel approaching capacity",
			"depth", depth,
			"capacity", s.channelSize,
		)
	}
}

// DroppedRecords returns the total dropped records, for metrics.
func (s *AuditService) DroppedRecords() int64 {
	return s.dropCount.Load()
}

// Stop closes the channel and waits for pending records to flush.
func (s *AuditService) Stop() {
	close(s.recordCh)
	s.wg.Wait()
}

func (s *AuditService) worker(ctx context.Context) {
	defer s.wg.Done()

	batch := make([]audit.Record, 0, s.batchSize)
	ticker := time.NewTicker(s.flushIvl)
	defer ticker.Stop()

	for {
		select {
		case record, ok := <-s.recordCh:
			if !ok {
				s.finalFlush(batch)
				return
			}
			batch = append(batch, record)
			if len(batch) >= s.batchSize {
				s.flush(ctx, batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				s.flush(ctx, batch)
				batch = batch[:0]
			}

		case <-ctx.Done():
			// Drain whatever is buffered, then flush once with a
			// bounded deadline.
			for {
				select {
				case record, ok := <-s.recordCh:
					if !ok {
						s.finalFlush(batch)
						return
					}
					batch = append(batch, record)
				default:
					s.finalFlush(batch)
					return
				}
			}
		}
	}
}

func (s *AuditService) finalFlush(batch []audit.Record) {
	if len(batch) == 0 {
		return
	}
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.flush(flushCtx, batch)
}

// flush writes a batch. Errors are logged, never propagated.
func (s *AuditService) flush(ctx context.Context, batch []audit.Record) {
	if err := s.store.Append(ctx, batch...); err != nil {
		s.logger.Error("writing audit batch failed", "error", err, "count", len(batch))
	}
}
