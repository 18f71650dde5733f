package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/tripforge/tripforge/internal/domain/audit"
)

// mockAuditStore captures appended records.
type mockAuditStore struct {
	mu      sync.Mutex
	records []audit.Record
}

func (m *mockAuditStore) Append(ctx context.Context, records ...audit.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, records...)
	return nil
}

func (m *mockAuditStore) Flush(ctx context.Context) error { return nil }
func (m *mockAuditStore) Close() error                    { return nil }

func (m *mockAuditStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// mockSlowAuditStore simulates a slow backend for testing backpressure.
type mockSlowAuditStore struct {
	delay time.Duration
}

func (m *mockSlowAuditStore) Append(ctx context.Context, records ...audit.Record) error {
	time.Sleep(m.delay)
	return nil
}

func (m *mockSlowAuditStore) Flush(ctx context.Context) error { return nil }
func (m *mockSlowAuditStore) Close() error                    { return nil }

func TestAuditService_BatchFlush(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := &mockAuditStore{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := NewAuditService(store, logger,
		WithBatchSize(2),
		WithFlushInterval(time.Hour), // only batch-size flushes
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)

	svc.Record(audit.Record{ID: "r-1", EventType: audit.EventPolicyApplied})
	svc.Record(audit.Record{ID: "r-2", EventType: audit.EventPolicyViolated})

	deadline := time.Now().Add(2 * time.Second)
	for store.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := store.count(); got != 2 {
		t.Errorf("flushed records = %d, want 2", got)
	}

	svc.Stop()
}

func TestAuditService_IntervalFlush(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := &mockAuditStore{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := NewAuditService(store, logger,
		WithBatchSize(100),
		WithFlushInterval(20*time.Millisecond),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)

	svc.Record(audit.Record{ID: "r-1"})

	deadline := time.Now().Add(2 * time.Second)
	for store.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := store.count(); got != 1 {
		t.Errorf("flushed records = %d, want 1", got)
	}

	svc.Stop()
}

func TestAuditService_StopFlushesPending(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := &mockAuditStore{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := NewAuditService(store, logger,
		WithBatchSize(100),
		WithFlushInterval(time.Hour),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)

	for i := 0; i < 5; i++ {
		svc.Record(audit.Record{ID: fmt.Sprintf("r-%d", i)})
	}
	svc.Stop()

	if got := store.count(); got != 5 {
		t.Errorf("flushed records = %d, want 5", got)
	}
}

func TestAuditService_OverflowWithTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	slowStore := &mockSlowAuditStore{delay: 50 * time.Millisecond}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := NewAuditService(slowStore, logger,
		WithChannelSize(2),
		WithSendTimeout(10*time.Millisecond),
		WithBatchSize(1),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)

	for i := 0; i < 10; i++ {
		svc.Record(audit.Record{ID: fmt.Sprintf("r-%d", i), Timestamp: time.Now()})
	}

	time.Sleep(150 * time.Millisecond)

	drops := svc.DroppedRecords()
	if drops == 0 {
		t.Error("expected some records to be dropped due to timeout")
	}
	t.Logf("dropped %d records as expected (buffer=2, sent=10)", drops)

	cancel()
	svc.Stop()
}

func TestAuditService_ChannelDepthWarning(t *testing.T) {
	defer goleak.VerifyNone(t)

	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))

	svc := NewAuditService(&mockAuditStore{}, logger,
		WithChannelSize(10),
		WithSendTimeout(0), // drop immediately for predictable fill
	)

	// Worker not started; fill the channel to 90%.
	for i := 0; i < 9; i++ {
		select {
		case svc.recordCh <- audit.Record{ID: fmt.Sprintf("r-%d", i)}:
		default:
			t.Fatalf("channel unexpectedly full at %d", i)
		}
	}

	svc.Record(audit.Record{ID: "trigger"})

	if !strings.Contains(logBuf.String(), "approaching capacity") {
		t.Errorf("expected warning log about channel capacity, got: %s", logBuf.String())
	}

	// Drain to avoid leaking buffered records.
	close(svc.recordCh)
	for range svc.recordCh {
	}
}
