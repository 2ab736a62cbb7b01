package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"stablecoin-risk-monitor/internal/logging"
)

// ErrAlreadyRunning is returned by Trigger while a run is in progress.
var ErrAlreadyRunning = errors.New("pipeline already running")

// Runner is the subset of ScoringPipeline the scheduler needs.
type Runner interface {
	Run(ctx context.Context) (*Result, error)
}

// Status is a snapshot of scheduler state.
type Status struct {
	Started       time.Time `json:"started"`
	Interval      string    `json:"interval"`
	Running       bool      `json:"running"`
	Runs          int       `json:"runs"`
	Failures      int       `json:"failures"`
	LastRunAt     time.Time `json:"last_run_at,omitempty"`
	LastRunID     string    `json:"last_run_id,omitempty"`
	LastError     string    `json:"last_error,omitempty"`
	LastCacheHit  bool      `json:"last_cache_hit"`
	LastAlerts    int       `json:"last_alerts"`
	LastRowsTotal int       `json:"last_rows_total"`
}

// Scheduler runs a pipeline on a fixed interval and on demand, never
// more than one run at a time.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	logger   logrus.FieldLogger
	now      func() time.Time

	mu         sync.Mutex
	running    bool
	started    time.Time
	runs       int
	failures   int
	lastRunAt  time.Time
	lastResult *Result
	lastErr    error
}

// NewScheduler creates a scheduler. A nil logger discards output.
func NewScheduler(runner Runner, interval time.Duration, logger logrus.FieldLogger) *Scheduler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Scheduler{
		runner:   runner,
		interval: interval,
		logger:   logging.Component(logger, "scheduler"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run triggers immediately, then on every tick until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	s.started = s.now()
	s.mu.Unlock()

	s.logger.WithField("interval", s.interval).Info("starting pipeline scheduler")
	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if _, err := s.Trigger(ctx); err != nil {
		if errors.Is(err, ErrAlreadyRunning) {
			s.logger.Info("pipeline already running, skipping tick")
			return
		}
		if ctx.Err() == nil {
			s.logger.WithError(err).Error("pipeline run failed")
		}
	}
}

// Trigger runs the pipeline now. Returns ErrAlreadyRunning if a run is in progress.
func (s *Scheduler) Trigger(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	s.running = true
	s.mu.Unlock()

	result, err := s.runner.Run(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.runs++
	s.lastRunAt = s.now()
	s.lastErr = err
	if err != nil {
		s.failures++
	} else {
		s.lastResult = result
	}
	return result, err
}

// LastResult returns the most recent successful result, or nil.
func (s *Scheduler) LastResult() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastResult
}

// Status returns a snapshot of scheduler state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Started:   s.started,
		Interval:  s.interval.String(),
		Running:   s.running,
		Runs:      s.runs,
		Failures:  s.failures,
		LastRunAt: s.lastRunAt,
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	if s.lastResult != nil && s.lastResult.Run != nil {
		st.LastRunID = s.lastResult.Run.RunID
		st.LastCacheHit = s.lastResult.Run.CacheHit
		st.LastAlerts = s.lastResult.Run.AlertCount
		st.LastRowsTotal = s.lastResult.Run.TransactionCount
	}
	return st
}
