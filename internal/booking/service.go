package booking

import (
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/codr1/quickcourt/internal/db"
	"github.com/codr1/quickcourt/internal/ledger"
	"github.com/codr1/quickcourt/internal/metrics"
	"github.com/codr1/quickcourt/internal/notify"
	"github.com/codr1/quickcourt/internal/payment"
)

const (
	defaultCancellationCutoff = 2 * time.Hour
	defaultMaxDurationHours   = 8
	defaultCurrency           = "INR"
	defaultRefundMaxBackoff   = 6 * time.Hour
	refundBaseBackoff         = time.Minute
)

// Service runs the booking lifecycle against the shared store. It is safe
// for concurrent use.
type Service struct {
	db       *db.DB
	ledger   *ledger.Ledger
	gateway  payment.Gateway
	notifier notify.Notifier
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	now      func() time.Time

	cutoff           time.Duration
	maxDurationHours int
	currency         string
	refundMaxBackoff time.Duration
}

type Option func(*Service)

func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithCancellationCutoff(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.cutoff = d
		}
	}
}

func WithMaxDurationHours(h int) Option {
	return func(s *Service) {
		if h > 0 {
			s.maxDurationHours = h
		}
	}
}

func WithCurrency(code string) Option {
	return func(s *Service) {
		if code != "" {
			s.currency = code
		}
	}
}

func WithRefundMaxBackoff(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.refundMaxBackoff = d
		}
	}
}

func NewService(database *db.DB, l *ledger.Ledger, gateway payment.Gateway, opts ...Option) *Service {
	s := &Service{
		db:               database,
		ledger:           l,
		gateway:          gateway,
		tracer:           otel.Tracer("github.com/codr1/quickcourt/internal/booking"),
		now:              time.Now,
		cutoff:           defaultCancellationCutoff,
		maxDurationHours: defaultMaxDurationHours,
		currency:         defaultCurrency,
		refundMaxBackoff: defaultRefundMaxBackoff,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CancellationCutoff is how long before the start a customer may still cancel.
func (s *Service) CancellationCutoff() time.Duration {
	return s.cutoff
}
