package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"

	"github.com/codr1/quickcourt/internal/booking"
)

const jobTimeout = 2 * time.Minute

// Lifecycle is the booking service surface driven by the scheduled jobs.
type Lifecycle interface {
	CompleteElapsed(ctx context.Context, now time.Time, limit int) (int, error)
	ReconcileRefunds(ctx context.Context, now time.Time, limit int) (booking.ReconcileResult, error)
	SendReminders(ctx context.Context, now time.Time, lead time.Duration) (int, error)
}

// JobConfig holds the schedules and batch sizes of the booking jobs. An empty
// cron expression disables that job.
type JobConfig struct {
	CompletionCron  string
	RefundCron      string
	ReminderCron    string
	CompletionBatch int
	RefundBatch     int
	ReminderLead    time.Duration
}

// RegisterBookingJobs registers completion, refund reconciliation and
// reminder jobs on r.
func RegisterBookingJobs(r *Runner, lifecycle Lifecycle, cfg JobConfig) error {
	if r == nil {
		return fmt.Errorf("booking jobs require a runner")
	}
	if lifecycle == nil {
		return fmt.Errorf("booking jobs require a lifecycle service")
	}
	jobs := []struct {
		name string
		cron string
		run  func(context.Context, time.Time) error
	}{
		{
			name: "booking_completion",
			cron: cfg.CompletionCron,
			run: func(ctx context.Context, now time.Time) error {
				_, err := lifecycle.CompleteElapsed(ctx, now, cfg.CompletionBatch)
				return err
			},
		},
		{
			name: "refund_reconciliation",
			cron: cfg.RefundCron,
			run: func(ctx context.Context, now time.Time) error {
				_, err := lifecycle.ReconcileRefunds(ctx, now, cfg.RefundBatch)
				return err
			},
		},
		{
			name: "booking_reminders",
			cron: cfg.ReminderCron,
			run: func(ctx context.Context, now time.Time) error {
				if cfg.ReminderLead <= 0 {
					return nil
				}
				_, err := lifecycle.SendReminders(ctx, now, cfg.ReminderLead)
				return err
			},
		},
	}

	for _, job := range jobs {
		if job.cron == "" {
			log.Info().Str("job_name", job.name).Msg("Scheduler job disabled")
			continue
		}
		if err := r.AddJob(job.name, job.cron, jobTask(job.name, job.cron, job.run),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		); err != nil {
			return err
		}
	}
	return nil
}

// jobTask binds a job body to a bounded, logger-carrying context. The body's
// error is returned so the runner counts the run as failed.
func jobTask(name, cronExpr string, run func(context.Context, time.Time) error) func() error {
	jobLogger := log.With().
		Str("component", name+"_job").
		Str("job_name", name).
		Str("cron", cronExpr).
		Logger()
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		ctx = jobLogger.WithContext(ctx)

		start := time.Now()
		jobLogger.Debug().Msg("Scheduler job started")
		if err := run(ctx, start.UTC()); err != nil {
			jobLogger.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("Scheduler job failed")
			return err
		}
		jobLogger.Debug().Dur("elapsed", time.Since(start)).Msg("Scheduler job completed")
		return nil
	}
}
