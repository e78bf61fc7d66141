// Package scheduler runs periodic background jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/soinechankit/Soinech-CRM/internal/logger"
)

// Job is one scheduled unit of work.
type Job interface {
	Name() string
	Schedule() string
	Run(ctx context.Context) error
}

// Scheduler wraps a cron runner. A run that is still going when its next tick
// fires is skipped, not queued.
type Scheduler struct {
	cron    *cron.Cron
	log     *logger.Logger
	timeout time.Duration

	mu      sync.RWMutex
	jobs    map[string]Job
	lastRun map[string]time.Time
}

func New(log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger))),
		log:     log,
		timeout: 2 * time.Minute,
		jobs:    make(map[string]Job),
		lastRun: make(map[string]time.Time),
	}
}

// AddJob registers job under its name. Names are unique.
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already exists", name)
	}
	if _, err := s.cron.AddFunc(job.Schedule(), func() { _ = s.run(job) }); err != nil {
		return fmt.Errorf("schedule job %s: %w", name, err)
	}
	s.jobs[name] = job
	s.log.WithFields(map[string]interface{}{"job": name, "schedule": job.Schedule()}).Infof("[scheduler] job added")
	return nil
}

func (s *Scheduler) Start() {
	s.log.Infof("[scheduler] starting")
	s.cron.Start()
}

// Stop stops new runs and waits for running ones, or until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Infof("[scheduler] stopped")
	case <-ctx.Done():
		s.log.Warnf("[scheduler] stop timed out with jobs still running")
	}
}

// RunNow runs a registered job synchronously, outside its schedule.
func (s *Scheduler) RunNow(name string) error {
	s.mu.RLock()
	job, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("job %s not found", name)
	}
	return s.run(job)
}

// LastRun reports when job last finished without error.
func (s *Scheduler) LastRun(name string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.lastRun[name]
	return t, ok
}

func (s *Scheduler) run(job Job) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	err := job.Run(ctx)
	log := s.log.WithFields(map[string]interface{}{"job": job.Name(), "duration": time.Since(start).String()})
	if err != nil {
		log.WithError(err).Errorf("[scheduler] job failed")
		return err
	}
	s.mu.Lock()
	s.lastRun[job.Name()] = time.Now()
	s.mu.Unlock()
	log.Debugf("[scheduler] job done")
	return nil
}
