package application

import (
	"context"
	"errors"
	"log"
	"time"
)

// ErrTickInProgress is returned when a run is requested while an
// evaluation pass is still executing.
var ErrTickInProgress = errors.New("evaluation: tick already in progress")

// Scheduler triggers periodic evaluation passes. Overlapping ticks are
// skipped: when a pass outlives the interval the next tick is dropped
// rather than queued.
type Scheduler struct {
	engine   *Engine
	interval time.Duration
	logger   *log.Logger
	busy     chan struct{}
}

// NewScheduler constructs a Scheduler.
func NewScheduler(engine *Engine, interval time.Duration, logger *log.Logger) (*Scheduler, error) {
	if engine == nil {
		return nil, errors.New("evaluation scheduler: nil engine")
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Scheduler{
		engine:   engine,
		interval: interval,
		logger:   logger,
		busy:     make(chan struct{}, 1),
	}, nil
}

// Start begins the scheduler loop. It blocks until ctx is canceled.
func (s *Scheduler) Start(ctx context.Context) {
	if s == nil || s.engine == nil {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.tryTick(ctx, now.UTC())
		}
	}
}

// RunNow executes one evaluation pass synchronously, for manual runs.
func (s *Scheduler) RunNow(ctx context.Context, now time.Time) (TickSummary, error) {
	if s == nil || s.engine == nil {
		return TickSummary{}, errors.New("evaluation scheduler: nil")
	}
	select {
	case s.busy <- struct{}{}:
	default:
		return TickSummary{}, ErrTickInProgress
	}
	defer func() { <-s.busy }()
	return s.engine.Tick(ctx, now)
}

func (s *Scheduler) tryTick(ctx context.Context, now time.Time) {
	select {
	case s.busy <- struct{}{}:
	default:
		s.logf("evaluation: tick overlap at %s, skipping", now.Format(time.RFC3339))
		return
	}
	go func() {
		defer func() { <-s.busy }()
		summary, err := s.engine.Tick(ctx, now)
		if err != nil {
			s.logf("evaluation: tick failed: %v", err)
			return
		}
		s.logf("evaluation: tick done evaluated=%d skipped=%d raised=%d",
			summary.Evaluated, summary.Skipped, summary.AlertsRaised)
	}()
}

func (s *Scheduler) logf(format string, args ...any) {
	if s != nil && s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
