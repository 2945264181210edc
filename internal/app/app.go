// Package app assembles the booking engine from configuration. Both the HTTP
// server and the operator CLI build on it.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/codr1/quickcourt/internal/api/auth"
	"github.com/codr1/quickcourt/internal/booking"
	"github.com/codr1/quickcourt/internal/cache"
	"github.com/codr1/quickcourt/internal/config"
	"github.com/codr1/quickcourt/internal/courts"
	"github.com/codr1/quickcourt/internal/db"
	"github.com/codr1/quickcourt/internal/email"
	"github.com/codr1/quickcourt/internal/ledger"
	"github.com/codr1/quickcourt/internal/metrics"
	"github.com/codr1/quickcourt/internal/notify"
	"github.com/codr1/quickcourt/internal/obs"
	"github.com/codr1/quickcourt/internal/payment"
	"github.com/codr1/quickcourt/internal/pricing"
	"github.com/codr1/quickcourt/internal/ratelimit"
	"github.com/codr1/quickcourt/internal/scheduler"
)

// App holds the wired components. Close releases them in reverse order.
type App struct {
	Config   *config.Config
	DB       *db.DB
	Metrics  *metrics.Metrics
	Registry *courts.Registry
	Ledger   *ledger.Ledger
	Bookings *booking.Service
	Limiter  *ratelimit.Limiter
	Verifier *auth.Verifier

	closers []func(context.Context) error
}

// Options select which optional pieces Build sets up.
type Options struct {
	// Registerer receives the Prometheus collectors. Nil uses the default
	// registry when metrics are enabled.
	Registerer prometheus.Registerer
	// Server enables the pieces only the HTTP server needs: rate limiting,
	// token verification and tracing.
	Server bool
}

// Build opens the database and constructs every component described by cfg.
func Build(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	a := &App{Config: cfg}
	ok := false
	defer func() {
		if !ok {
			a.Close(context.Background())
		}
	}()

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.DB = database
	a.onClose(func(context.Context) error { return database.Close() })

	if cfg.Features.EnableMetrics {
		reg := opts.Registerer
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		a.Metrics = metrics.NewWithRegistry(reg)
	}

	if opts.Server && cfg.Features.EnableTracing {
		shutdown, err := obs.InitTracer(ctx, cfg.Tracing.ServiceName, cfg.App.Environment, cfg.Tracing.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("init tracing: %w", err)
		}
		a.onClose(shutdown)
	}

	peak, err := cfg.Booking.PeakWindow()
	if err != nil {
		return nil, err
	}
	ledgerOpts := []ledger.Option{
		ledger.WithMetrics(a.Metrics),
		ledger.WithMaxRangeDays(cfg.Booking.MaxBulkRangeDays),
	}
	store, err := a.availabilityCache(ctx)
	if err != nil {
		return nil, err
	}
	if ttl := config.Duration(cfg.Booking.AvailabilityCacheTTL, 0); ttl > 0 {
		ledgerOpts = append(ledgerOpts, ledger.WithCache(store, ttl))
	}
	a.Ledger = ledger.New(database, pricing.NewResolver(peak), ledgerOpts...)
	a.Registry = courts.NewRegistry(database.Queries, cfg.Booking.DefaultVenueTimezone)

	gateway, err := newGateway(cfg)
	if err != nil {
		return nil, err
	}
	notifier, err := a.notifier(ctx)
	if err != nil {
		return nil, err
	}
	a.Bookings = booking.NewService(database, a.Ledger, gateway,
		booking.WithNotifier(notifier),
		booking.WithMetrics(a.Metrics),
		booking.WithCurrency(cfg.Booking.Currency),
		booking.WithMaxDurationHours(cfg.Booking.MaxDurationHours),
		booking.WithCancellationCutoff(config.Duration(cfg.Booking.CancellationCutoff, 2*time.Hour)),
		booking.WithRefundMaxBackoff(config.Duration(cfg.Booking.RefundMaxBackoff, 6*time.Hour)),
	)

	if opts.Server {
		a.Limiter = ratelimit.New(ratelimit.ConfigForRate(cfg.Booking.CreateLimitPerMinute))
		a.onClose(func(context.Context) error { a.Limiter.Close(); return nil })

		if cfg.Secrets.JWTSecret == "" {
			log.Warn().Msg("JWT_SECRET not set, all requests are anonymous")
		} else if a.Verifier, err = auth.NewVerifier(cfg.Secrets.JWTSecret); err != nil {
			return nil, err
		}
	}

	ok = true
	return a, nil
}

// StartScheduler registers the booking jobs and starts the scheduler. The
// scheduler is stopped by Close.
func (a *App) StartScheduler() error {
	runner, err := scheduler.New(scheduler.WithMetrics(a.Metrics))
	if err != nil {
		return err
	}
	b := a.Config.Booking
	err = scheduler.RegisterBookingJobs(runner, a.Bookings, scheduler.JobConfig{
		CompletionCron:  a.Config.Scheduler.CompletionCron,
		RefundCron:      a.Config.Scheduler.RefundCron,
		ReminderCron:    a.Config.Scheduler.ReminderCron,
		CompletionBatch: b.CompletionBatchSize,
		RefundBatch:     b.RefundBatchSize,
		ReminderLead:    config.Duration(b.ReminderLeadTime, 24*time.Hour),
	})
	if err != nil {
		runner.Stop()
		return fmt.Errorf("register booking jobs: %w", err)
	}
	if err := runner.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.onClose(func(context.Context) error { return runner.Stop() })
	return nil
}

// Close releases everything Build and StartScheduler acquired.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

// availabilityCache uses Redis when an address is configured and reachable,
// and an in-process store otherwise.
func (a *App) availabilityCache(ctx context.Context) (cache.Store, error) {
	addr := a.Config.Redis.Addr
	if addr == "" {
		return cache.NewMemoryStore(), nil
	}
	client := cache.NewRedisClient(addr, a.Config.Secrets.RedisPassword, a.Config.Redis.DB)
	if err := cache.Ping(ctx, client); err != nil {
		client.Close()
		log.Warn().Err(err).Str("addr", addr).Msg("Redis unavailable, using in-memory availability cache")
		return cache.NewMemoryStore(), nil
	}
	a.onClose(func(context.Context) error { return client.Close() })
	log.Info().Str("addr", addr).Msg("Availability cache backed by Redis")
	return cache.NewRedisStore(client, a.Config.App.Name+":"), nil
}

func (a *App) notifier(ctx context.Context) (notify.Notifier, error) {
	notifiers := notify.Multi{notify.LogNotifier{}}
	cfg := a.Config
	if !cfg.Features.EnableNotifications {
		return notifiers, nil
	}

	if cfg.Secrets.AMQPURL != "" {
		pub, err := notify.NewAMQPPublisher(cfg.Secrets.AMQPURL, cfg.Booking.NotificationsExchange)
		if err != nil {
			return nil, fmt.Errorf("connect booking events broker: %w", err)
		}
		a.onClose(func(context.Context) error { return pub.Close() })
		notifiers = append(notifiers, pub)
	}

	if cfg.Email.Sender != "" {
		ses, err := email.NewSESClient(ctx, email.SESOptions{
			Region:           cfg.Email.Region,
			From:             cfg.Email.Sender,
			ReplyTo:          cfg.Email.ReplyTo,
			ConfigurationSet: cfg.Email.ConfigurationSet,
			AccessKeyID:      cfg.Secrets.AWSAccessKeyID,
			SecretAccessKey:  cfg.Secrets.AWSSecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("init email sender: %w", err)
		}
		cutoff := config.Duration(cfg.Booking.CancellationCutoff, 2*time.Hour)
		notifiers = append(notifiers, notify.NewEmailNotifier(ses, cutoff))
	}
	return notifiers, nil
}

func newGateway(cfg *config.Config) (payment.Gateway, error) {
	switch cfg.Booking.PaymentGateway {
	case "omise":
		return payment.NewOmiseGateway(cfg.Secrets.OmisePublicKey, cfg.Secrets.OmiseSecretKey)
	default:
		log.Info().Msg("Using simulated payment gateway")
		return payment.NewSimulatedGateway(), nil
	}
}
