// Package scheduler triggers update runs on a cron schedule.
package scheduler

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// RunFunc executes one update run.
type RunFunc func(ctx context.Context) error

// Scheduler fires the run function on a cron spec. Overlapping triggers
// are skipped rather than queued, since a run that outlasts its interval
// would otherwise pile up provider calls.
type Scheduler struct {
	cron   *cron.Cron
	run    RunFunc
	logger *zap.Logger

	mu      sync.Mutex
	running bool
}

// New builds a Scheduler for the given cron spec (standard five-field
// syntax, e.g. "0 6 * * *").
func New(spec string, run RunFunc, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{
		cron:   cron.New(),
		run:    run,
		logger: logger,
	}
	if _, err := s.cron.AddFunc(spec, s.fire); err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins firing on schedule. It returns immediately.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started")
}

// Stop halts future triggers and waits for an in-flight run's cron entry
// to return.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// RunOnce triggers a run immediately, subject to the same overlap guard
// as scheduled runs.
func (s *Scheduler) RunOnce() {
	s.fire()
}

func (s *Scheduler) fire() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn("previous run still in progress, skipping trigger")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if err := s.run(context.Background()); err != nil {
		s.logger.Error("scheduled run failed", zap.Error(err))
	}
}
