package scheduler

import (
	"context"
	"sync"
	"time"

	"botdeck/internal/logger"
)

// IntervalScheduler runs a task on a fixed cadence and tracks when the next
// run is due, so the API can serve a refresh countdown.
type IntervalScheduler struct {
	Name           string
	Interval       time.Duration
	RunImmediately bool

	mu      sync.RWMutex
	nextRun time.Time
	nowFn   func() time.Time
}

func NewIntervalScheduler(name string, interval time.Duration) *IntervalScheduler {
	return &IntervalScheduler{Name: name, Interval: interval, nowFn: time.Now}
}

// Start blocks until ctx is cancelled, invoking task every Interval.
func (s *IntervalScheduler) Start(ctx context.Context, task func(context.Context)) {
	if task == nil {
		logger.Warnf("scheduler[%s]: task is nil, exit", s.Name)
		return
	}
	if s.Interval <= 0 {
		logger.Warnf("scheduler[%s]: invalid interval=%s, exit", s.Name, s.Interval)
		return
	}
	if s.nowFn == nil {
		s.nowFn = time.Now
	}
	logger.Infof("scheduler[%s]: started interval=%s run_immediately=%v",
		s.Name, s.Interval, s.RunImmediately)

	if s.RunImmediately {
		s.setNextRun(s.nowFn().Add(s.Interval))
		task(ctx)
	} else {
		s.setNextRun(s.nowFn().Add(s.Interval))
	}

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Infof("scheduler[%s]: stopped", s.Name)
			return
		case <-ticker.C:
			s.setNextRun(s.nowFn().Add(s.Interval))
			task(ctx)
		}
	}
}

// NextRun returns when the next tick is due; zero before Start.
func (s *IntervalScheduler) NextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextRun
}

// Until is the countdown to the next run, clamped at zero.
func (s *IntervalScheduler) Until() time.Duration {
	s.mu.RLock()
	next := s.nextRun
	now := s.nowFn
	s.mu.RUnlock()
	if next.IsZero() {
		return 0
	}
	if now == nil {
		now = time.Now
	}
	d := next.Sub(now())
	if d < 0 {
		return 0
	}
	return d
}

func (s *IntervalScheduler) setNextRun(at time.Time) {
	s.mu.Lock()
	s.nextRun = at
	s.mu.Unlock()
}
