// Package alarm runs named periodic tasks. Registration is idempotent:
// ensuring an alarm that already exists is a no-op, so a host restart that
// re-registers its alarms never resets a running schedule.
package alarm

import (
	"context"
	"sync"
	"time"

	"github.com/tabwarden/tabwarden/internal/logging"
	"go.uber.org/zap"
)

// Task is the work an alarm triggers.
type Task func(ctx context.Context)

type entry struct {
	cancel context.CancelFunc
	task   Task
}

// Scheduler owns a set of named periodic alarms.
type Scheduler struct {
	log *logging.Logger

	mu     sync.Mutex
	alarms map[string]*entry
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler creates a stopped-clean scheduler.
func NewScheduler(log *logging.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		log:    log,
		alarms: make(map[string]*entry),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Ensure registers a periodic alarm unless one with the same name already
// exists. Returns true when a new alarm was created. The task first fires
// after delay, then every period.
func (s *Scheduler) Ensure(name string, delay, period time.Duration, task Task) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.alarms[name]; exists {
		return false
	}

	ctx, cancel := context.WithCancel(s.ctx)
	s.alarms[name] = &entry{cancel: cancel, task: task}

	go s.run(ctx, name, delay, period, task)
	s.log.Info("alarm registered",
		zap.String("name", name),
		zap.Duration("delay", delay),
		zap.Duration("period", period))
	return true
}

func (s *Scheduler) run(ctx context.Context, name string, delay, period time.Duration, task Task) {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
		task(ctx)
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			task(ctx)
		}
	}
}

// Fire runs the named alarm's task immediately, outside its schedule.
// Returns false when the alarm is unknown.
func (s *Scheduler) Fire(ctx context.Context, name string) bool {
	s.mu.Lock()
	e, ok := s.alarms[name]
	s.mu.Unlock()
	if !ok {
		return false
	}
	e.task(ctx)
	return true
}

// Cancel stops and removes one alarm.
func (s *Scheduler) Cancel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.alarms[name]; ok {
		e.cancel()
		delete(s.alarms, name)
	}
}

// Stop cancels every alarm.
func (s *Scheduler) Stop() {
	s.cancel()
	s.mu.Lock()
	s.alarms = make(map[string]*entry)
	s.mu.Unlock()
}
