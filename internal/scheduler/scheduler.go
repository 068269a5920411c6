package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bnema/shiftlog/internal/ports"
)

type RunFunc func(ctx context.Context, now time.Time) error

// Job runs at every occurrence of its Spec.
type Job struct {
	Name string
	Spec Spec
	Run  RunFunc
}

// Scheduler drives the liveness sweep on a fixed interval and the archive and
// backup jobs on their wall-clock schedules. Jobs are checked on every tick,
// so they fire at most one interval late.
type Scheduler struct {
	log      *zap.Logger
	clock    ports.Clock
	loc      *time.Location
	interval time.Duration
	sweep    RunFunc
	jobs     []Job

	mu   sync.Mutex
	next map[string]time.Time
}

func New(log *zap.Logger, clock ports.Clock, loc *time.Location, interval time.Duration, sweep RunFunc, jobs ...Job) (*Scheduler, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	if interval <= 0 {
		return nil, fmt.Errorf("scheduler interval must be positive")
	}
	for _, job := range jobs {
		if job.Run == nil {
			return nil, fmt.Errorf("job %q has no run function", job.Name)
		}
	}

	s := &Scheduler{
		log:      log.Named("scheduler"),
		clock:    clock,
		loc:      loc,
		interval: interval,
		sweep:    sweep,
		jobs:     jobs,
		next:     make(map[string]time.Time, len(jobs)),
	}

	now := clock.Now()
	for _, job := range jobs {
		s.next[job.Name] = job.Spec.Next(now, loc)
	}
	return s, nil
}

// Run ticks until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) {
	for _, job := range s.jobs {
		s.log.Info("job scheduled",
			zap.String("job", job.Name),
			zap.String("spec", job.Spec.String()),
			zap.Time("next", s.NextRun(job.Name)),
		)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopping")
			return
		case <-ticker.C:
			s.Tick(ctx, s.clock.Now())
		}
	}
}

// Tick runs the sweep and every job that has come due at now.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	if s.sweep != nil {
		if err := s.sweep(ctx, now); err != nil {
			s.log.Error("sweep failed", zap.Error(err))
		}
	}

	for _, job := range s.jobs {
		if !s.due(job, now) {
			continue
		}
		if ctx.Err() != nil {
			return
		}

		started := s.clock.Now()
		if err := job.Run(ctx, now); err != nil {
			s.log.Error("job failed", zap.String("job", job.Name), zap.Error(err))
		} else {
			s.log.Info("job finished",
				zap.String("job", job.Name),
				zap.Duration("took", s.clock.Now().Sub(started)),
			)
		}
	}
}

func (s *Scheduler) NextRun(name string) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next[name]
}

// due reports whether job should run at now and advances its next run.
// A missed occurrence runs once, not once per missed slot.
func (s *Scheduler) due(job Job, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Before(s.next[job.Name]) {
		return false
	}
	s.next[job.Name] = job.Spec.Next(now, s.loc)
	return true
}
