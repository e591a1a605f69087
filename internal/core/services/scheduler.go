package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/streamlink/internal/core/ports/driven"
	"github.com/custodia-labs/streamlink/internal/metrics"
)

// Job is a named unit of periodic work.
type Job struct {
	Name     string
	Interval time.Duration

	// Exclusive jobs run on at most one instance per tick when a
	// distributed lock is configured.
	Exclusive bool

	Run func(ctx context.Context) error
}

// Scheduler runs registered jobs, each on its own ticker.
// Every job runs once immediately on start.
//
// For multi-instance deployments, configure a DistributedLock so that
// exclusive jobs are not duplicated across instances.
type Scheduler struct {
	lock   driven.DistributedLock
	logger *slog.Logger

	mu      sync.RWMutex
	jobs    []Job
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	lockTTL      time.Duration
	lockRequired bool
}

// SchedulerConfig holds configuration for the scheduler.
type SchedulerConfig struct {
	Lock         driven.DistributedLock // Optional: distributed lock for multi-instance coordination
	Logger       *slog.Logger
	LockTTL      time.Duration // TTL for job locks, extended while the job runs (default: 60s)
	LockRequired bool          // If true, skip an exclusive job when the lock backend errors
}

// ErrUnknownJob is returned by RunOnce for a job that was never registered.
var ErrUnknownJob = errors.New("unknown job")

// NewScheduler creates a new scheduler.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	lockTTL := cfg.LockTTL
	if lockTTL == 0 {
		lockTTL = 60 * time.Second
	}

	return &Scheduler{
		lock:         cfg.Lock,
		logger:       logger,
		lockTTL:      lockTTL,
		lockRequired: cfg.LockRequired,
	}
}

// Register adds a job. Jobs must be registered before Start.
func (s *Scheduler) Register(job Job) error {
	if job.Name == "" || job.Run == nil {
		return fmt.Errorf("register job: name and run func are required")
	}
	if job.Interval <= 0 {
		return fmt.Errorf("register job %s: interval must be positive", job.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("register job %s: scheduler already running", job.Name)
	}
	for _, existing := range s.jobs {
		if existing.Name == job.Name {
			return fmt.Errorf("register job %s: duplicate name", job.Name)
		}
	}
	s.jobs = append(s.jobs, job)
	return nil
}

// Jobs returns the names of the registered jobs.
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, len(s.jobs))
	for i, j := range s.jobs {
		names[i] = j.Name
	}
	return names
}

// Start begins running the registered jobs.
// They run until Stop is called or context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	jobs := append([]Job(nil), s.jobs...)
	s.mu.Unlock()

	s.logger.Info("scheduler starting", "jobs", len(jobs))

	for _, job := range jobs {
		s.wg.Add(1)
		go s.run(ctx, job)
	}
	return nil
}

// Stop gracefully stops the scheduler and waits for running jobs to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("scheduler stopped")
}

// RunOnce runs a single job by name, honoring its exclusivity.
func (s *Scheduler) RunOnce(ctx context.Context, name string) error {
	s.mu.RLock()
	var job *Job
	for i := range s.jobs {
		if s.jobs[i].Name == name {
			job = &s.jobs[i]
			break
		}
	}
	s.mu.RUnlock()

	if job == nil {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return s.execute(ctx, *job)
}

// run is the loop for one job.
func (s *Scheduler) run(ctx context.Context, job Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	s.tick(ctx, job)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.tick(ctx, job)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, job Job) {
	if err := s.execute(ctx, job); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("scheduled job failed", "job", job.Name, "error", err)
	}
}

// execute runs the job once. Exclusive jobs first acquire the distributed
// lock and are skipped when another instance holds it. The lock is extended
// while the job runs and the job is cancelled if the lock is lost.
func (s *Scheduler) execute(ctx context.Context, job Job) error {
	runCtx := ctx
	if job.Exclusive && s.lock != nil {
		name := "scheduler:" + job.Name
		acquired, err := s.lock.Acquire(ctx, name, s.lockTTL)
		switch {
		case err != nil:
			s.logger.Warn("failed to acquire job lock", "job", job.Name, "error", err)
			if s.lockRequired {
				metrics.JobRuns.WithLabelValues(job.Name, metrics.OutcomeSkipped).Inc()
				return nil
			}
		case !acquired:
			s.logger.Debug("job lock held by another instance, skipping", "job", job.Name)
			metrics.JobRuns.WithLabelValues(job.Name, metrics.OutcomeSkipped).Inc()
			return nil
		default:
			leaseCtx, stopLease := holdLease(ctx, s.lock, name, s.lockTTL, s.logger)
			runCtx = leaseCtx
			defer func() {
				stopLease()
				if err := s.lock.Release(context.WithoutCancel(ctx), name); err != nil {
					s.logger.Warn("failed to release job lock", "job", job.Name, "error", err)
				}
			}()
		}
	}

	start := time.Now()
	err := job.Run(runCtx)
	metrics.JobDuration.WithLabelValues(job.Name).Observe(time.Since(start).Seconds())

	if leaseLost(runCtx) {
		err = context.Cause(runCtx)
	}
	if err != nil {
		metrics.JobRuns.WithLabelValues(job.Name, metrics.OutcomeFailed).Inc()
		return fmt.Errorf("job %s: %w", job.Name, err)
	}
	metrics.JobRuns.WithLabelValues(job.Name, metrics.OutcomeSuccess).Inc()
	return nil
}
