package scheduler

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/codr1/quickcourt/internal/booking"
	"github.com/codr1/quickcourt/internal/metrics"
)

type fakeLifecycle struct {
	completed int
	refunds   int
	reminders int
	lead      time.Duration
	err       error
}

func (f *fakeLifecycle) CompleteElapsed(ctx context.Context, now time.Time, limit int) (int, error) {
	f.completed++
	return 0, f.err
}

func (f *fakeLifecycle) ReconcileRefunds(ctx context.Context, now time.Time, limit int) (booking.ReconcileResult, error) {
	f.refunds++
	return booking.ReconcileResult{}, f.err
}

func (f *fakeLifecycle) SendReminders(ctx context.Context, now time.Time, lead time.Duration) (int, error) {
	f.reminders++
	f.lead = lead
	return 0, f.err
}

func TestAddJobValidation(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Stop()

	tests := []struct {
		name     string
		jobName  string
		cronExpr string
		want     error
	}{
		{name: "missing name", jobName: " ", cronExpr: "*/5 * * * *", want: ErrEmptyJobName},
		{name: "missing cron", jobName: "noop", cronExpr: "", want: ErrEmptyCronExpr},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := r.AddJob(tc.jobName, tc.cronExpr, func() error { return nil }); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if err := r.AddJob("bad_cron", "not a cron", func() error { return nil }); err == nil {
		t.Fatalf("expected invalid cron expression to fail")
	}
	if err := r.AddJob("noop", "* * * * *", func() error { return nil }); err != nil {
		t.Fatalf("add noop: %v", err)
	}
	if err := r.AddJob("noop", "*/2 * * * *", func() error { return nil }); !errors.Is(err, ErrDuplicateJob) {
		t.Fatalf("expected ErrDuplicateJob, got %v", err)
	}
	if got := r.Jobs(); len(got) != 1 || got[0] != "noop" {
		t.Fatalf("unexpected jobs %v", got)
	}
}

func TestStopIsFinal(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := r.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := r.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
	if err := r.Start(); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	if err := r.AddJob("late", "* * * * *", func() error { return nil }); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func TestRegisterBookingJobs(t *testing.T) {
	r, err := New(WithMetrics(metrics.NewWithRegistry(prometheus.NewRegistry())))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Stop()

	if err := RegisterBookingJobs(r, nil, JobConfig{}); err == nil {
		t.Fatalf("expected missing lifecycle to fail")
	}
	lifecycle := &fakeLifecycle{}
	err = RegisterBookingJobs(r, lifecycle, JobConfig{
		CompletionCron: "*/5 * * * *",
		RefundCron:     "*/10 * * * *",
		ReminderLead:   24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	want := []string{"booking_completion", "refund_reconciliation"}
	if got := r.Jobs(); !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if err := RegisterBookingJobs(r, lifecycle, JobConfig{CompletionCron: "*/5 * * * *"}); !errors.Is(err, ErrDuplicateJob) {
		t.Fatalf("expected ErrDuplicateJob on re-registration, got %v", err)
	}
}

func TestJobTaskRunsBody(t *testing.T) {
	lifecycle := &fakeLifecycle{err: errors.New("store unavailable")}
	var gotDeadline bool
	task := jobTask("booking_reminders", "*/15 * * * *", func(ctx context.Context, now time.Time) error {
		_, gotDeadline = ctx.Deadline()
		_, err := lifecycle.SendReminders(ctx, now, time.Hour)
		return err
	})

	if err := task(); err == nil || err.Error() != "store unavailable" {
		t.Fatalf("expected the body error to surface, got %v", err)
	}
	if lifecycle.reminders != 1 || lifecycle.lead != time.Hour {
		t.Fatalf("expected one reminder sweep, got %+v", lifecycle)
	}
	if !gotDeadline {
		t.Fatalf("job context must carry a deadline")
	}
}
