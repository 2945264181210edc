// Package scheduler runs the periodic booking maintenance jobs on a gocron
// scheduler.
package scheduler

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/codr1/quickcourt/internal/metrics"
)

var (
	ErrStopped       = errors.New("scheduler stopped")
	ErrEmptyJobName  = errors.New("job name is required")
	ErrEmptyCronExpr = errors.New("cron expression is required")
	ErrDuplicateJob  = errors.New("job already registered")
)

// Runner owns one gocron scheduler and the jobs registered on it. Every run
// is counted on the metrics job collector by outcome.
type Runner struct {
	scheduler gocron.Scheduler
	metrics   *metrics.Metrics

	mu      sync.Mutex
	jobs    map[string]uuid.UUID
	stopped bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithMetrics records job outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// New creates a Runner. Jobs do not fire until Start is called.
func New(opts ...Option) (*Runner, error) {
	r := &Runner{jobs: make(map[string]uuid.UUID)}
	for _, opt := range opts {
		opt(r)
	}

	sched, err := gocron.NewScheduler(
		gocron.WithGlobalJobOptions(
			gocron.WithEventListeners(
				gocron.AfterJobRuns(func(_ uuid.UUID, jobName string) {
					r.metrics.JobRun(jobName, metrics.JobSucceeded)
				}),
				gocron.AfterJobRunsWithError(func(_ uuid.UUID, jobName string, _ error) {
					r.metrics.JobRun(jobName, metrics.JobFailed)
				}),
				gocron.AfterJobRunsWithPanic(func(jobID uuid.UUID, jobName string, recoverData any) {
					r.metrics.JobRun(jobName, metrics.JobPanicked)
					log.Error().
						Str("job_id", jobID.String()).
						Str("job_name", jobName).
						Interface("panic", recoverData).
						Msg("Scheduler job panicked")
				}),
			),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	r.scheduler = sched
	return r, nil
}

// Start begins firing registered jobs.
func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return ErrStopped
	}
	log.Info().Strs("jobs", r.namesLocked()).Msg("Scheduler starting")
	r.scheduler.Start()
	return nil
}

// Stop shuts the scheduler down, waiting for running jobs. Calling Stop more
// than once is a no-op.
func (r *Runner) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return nil
	}
	r.stopped = true
	log.Info().Msg("Scheduler stopping")
	return r.scheduler.Shutdown()
}

// Jobs returns the registered job names in sorted order.
func (r *Runner) Jobs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.namesLocked()
}

func (r *Runner) namesLocked() []string {
	names := make([]string, 0, len(r.jobs))
	for name := range r.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AddJob registers task under a unique name on a five-field cron schedule.
// A non-nil error returned by task marks the run as failed.
func (r *Runner) AddJob(name, cronExpr string, task func() error, opts ...gocron.JobOption) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyJobName
	}
	if strings.TrimSpace(cronExpr) == "" {
		return ErrEmptyCronExpr
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return ErrStopped
	}
	if _, ok := r.jobs[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, name)
	}

	job, err := r.scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(task),
		append([]gocron.JobOption{gocron.WithName(name)}, opts...)...,
	)
	if err != nil {
		return fmt.Errorf("add %s job: %w", name, err)
	}
	r.jobs[name] = job.ID()
	log.Info().Str("job_name", name).Str("cron", cronExpr).Msg("Scheduler job registered")
	return nil
}
