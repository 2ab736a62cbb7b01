package alerts

import (
	"context"
	"sync"
)

// NopSink discards alerts. Used when no broker is configured.
type NopSink struct{}

func (NopSink) Publish(context.Context, []Alert) error { return nil }
func (NopSink) Close() error                            { return nil }

// MemorySink records published alerts in process.
type MemorySink struct {
	mu     sync.Mutex
	alerts []Alert
	closed bool
}

// NewMemorySink creates an empty memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Publish appends alerts.
func (s *MemorySink) Publish(_ context.Context, alerts []Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSinkClosed
	}
	s.alerts = append(s.alerts, alerts...)
	return nil
}

// Close marks the sink closed.
func (s *MemorySink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Alerts returns a copy of everything published so far.
func (s *MemorySink) Alerts() []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Alert, len(s.alerts))
	copy(out, s.alerts)
	return out
}

var (
	_ Sink = NopSink{}
	_ Sink = (*MemorySink)(nil)
)
