package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/codr1/quickcourt/internal/apperr"
	"github.com/codr1/quickcourt/internal/courts"
	"github.com/codr1/quickcourt/internal/db"
	dbgen "github.com/codr1/quickcourt/internal/db/generated"
	"github.com/codr1/quickcourt/internal/ledger"
	"github.com/codr1/quickcourt/internal/metrics"
	"github.com/codr1/quickcourt/internal/notify"
	"github.com/codr1/quickcourt/internal/payment"
	"github.com/codr1/quickcourt/internal/pricing"
	"github.com/codr1/quickcourt/internal/timeslot"
)

// CreateRequest asks for [Window.Start, Window.End) on CourtID at Date.
// VenueID and DurationHours are optional cross-checks.
type CreateRequest struct {
	CustomerID    int64
	ContactEmail  string
	VenueID       int64
	CourtID       int64
	Date          time.Time
	Window        timeslot.Interval
	DurationHours int
	PaymentToken  string
}

func (s *Service) validateInterval(req CreateRequest) error {
	iv := req.Window
	if !iv.Valid() {
		return apperr.Interval("start %s must be before end %s", iv.Start, iv.End)
	}
	if !iv.WholeHours() {
		return apperr.Interval("bookings must start and end on the hour, got %s", iv)
	}
	hours := iv.HourCount()
	if hours < 1 || hours > s.maxDurationHours {
		return apperr.Interval("duration must be between 1 and %d hours, got %d", s.maxDurationHours, hours)
	}
	if req.DurationHours != 0 && req.DurationHours != hours {
		return apperr.Interval("duration %d does not match %s", req.DurationHours, iv)
	}
	return nil
}

// Create books a court. The payment is captured before the write
// transaction so the store's write lock is never held across a gateway call;
// if the transaction then fails the capture is refunded, and a refund that
// cannot be issued is queued for reconciliation.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Booking, error) {
	ctx, span := s.tracer.Start(ctx, "booking.Create")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("court_id", req.CourtID),
		attribute.String("date", timeslot.FormatDate(req.Date)),
		attribute.String("window", req.Window.String()),
	)

	b, err := s.create(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metrics.Booking(createOutcome(err))
		return Booking{}, err
	}
	span.SetAttributes(attribute.Int64("booking_id", b.ID))
	s.metrics.Booking(metrics.OutcomeCreated)
	return b, nil
}

func (s *Service) create(ctx context.Context, req CreateRequest) (Booking, error) {
	logger := log.Ctx(ctx).With().
		Str("component", "booking").
		Int64("customer_id", req.CustomerID).
		Int64("court_id", req.CourtID).
		Logger()

	if req.CustomerID <= 0 {
		return Booking{}, apperr.Field("customer_id", "is required")
	}
	if err := s.validateInterval(req); err != nil {
		return Booking{}, err
	}
	date := timeslot.Date(req.Date)
	day := timeslot.FormatDate(date)

	court, venue, err := courts.LoadBookableCourt(ctx, s.db.Queries, req.CourtID)
	if err != nil {
		return Booking{}, err
	}
	if req.VenueID != 0 && req.VenueID != court.VenueID {
		return Booking{}, apperr.Field("venue_id", fmt.Sprintf("court %d does not belong to venue %d", court.ID, req.VenueID))
	}
	if !court.Covers(req.Window) {
		return Booking{}, fmt.Errorf("%s outside operating hours %s: %w", req.Window, court.Hours, apperr.ErrOutOfOperatingHours)
	}
	if start := timeslot.At(date, req.Window.Start, court.Location); !start.After(s.now()) {
		return Booking{}, apperr.Interval("start %s %s is not in the future", day, req.Window.Start)
	}

	conflict, err := db.RetryRead(ctx, func(ctx context.Context) (ledger.Conflict, error) {
		return ledger.CheckOverlap(ctx, s.db.Queries, court.ID, date, req.Window)
	})
	if err != nil {
		return Booking{}, fmt.Errorf("check availability: %w", err)
	}
	if err := conflict.Err(court.ID, date, req.Window); err != nil {
		return Booking{}, err
	}

	quote, err := db.RetryRead(ctx, func(ctx context.Context) (pricing.Quote, error) {
		return s.ledger.Pricing().Quote(ctx, s.db.Queries, court, date, req.Window)
	})
	if err != nil {
		return Booking{}, fmt.Errorf("price booking: %w", err)
	}

	capture, err := s.capture(ctx, req, court, day, quote.Total)
	if err != nil {
		logger.Warn().Err(err).Int64("amount", quote.Total).Msg("Payment capture failed")
		return Booking{}, err
	}

	var bookingID int64
	err = s.db.RunInTx(ctx, func(txdb *db.DB) error {
		qtx := txdb.Queries
		conflict, err := ledger.CheckOverlap(ctx, qtx, court.ID, date, req.Window)
		if err != nil {
			return err
		}
		if err := conflict.Err(court.ID, date, req.Window); err != nil {
			return err
		}

		bookingID, err = qtx.CreateBooking(ctx, dbgen.CreateBookingParams{
			CustomerID:       req.CustomerID,
			ContactEmail:     strings.TrimSpace(req.ContactEmail),
			VenueID:          court.VenueID,
			CourtID:          court.ID,
			BookingDate:      day,
			StartTime:        req.Window.Start.String(),
			EndTime:          req.Window.End.String(),
			DurationHours:    int64(req.Window.HourCount()),
			TotalAmount:      quote.Total,
			Currency:         s.currency,
			PaymentStatus:    string(PaymentPaid),
			PaymentReference: capture.PaymentID,
		})
		if err != nil {
			if db.IsUniqueViolation(err) {
				return fmt.Errorf("create booking: %w", apperr.ErrSlotUnavailable)
			}
			return fmt.Errorf("create booking: %w", err)
		}
		return ledger.Reserve(ctx, qtx, court.ID, date, req.Window, bookingID)
	})
	if err != nil {
		s.compensate(ctx, capture.PaymentID, quote.Total)
		if apperr.IsDomain(err) {
			logger.Info().Err(err).Msg("Booking lost to a concurrent reservation")
			return Booking{}, err
		}
		logger.Error().Err(err).Msg("Failed to persist booking")
		return Booking{}, fmt.Errorf("persist booking: %w", err)
	}

	row, err := s.db.Queries.GetBooking(ctx, bookingID)
	if err != nil {
		return Booking{}, fmt.Errorf("reload booking %d: %w", bookingID, err)
	}
	b := fromDB(row)

	s.ledger.Invalidate(ctx, court.ID, date)
	notify.Dispatch(ctx, s.notifier, notify.EventBookingCreated, payloadFor(b, venue, court))

	logger.Info().
		Int64("booking_id", b.ID).
		Str("date", b.Date).
		Str("start", b.Start).
		Str("end", b.End).
		Int64("amount", b.TotalAmount).
		Msg("Booking created")
	return b, nil
}

func (s *Service) capture(ctx context.Context, req CreateRequest, court courts.Court, day string, amount int64) (payment.CaptureResult, error) {
	if amount == 0 {
		return payment.CaptureResult{}, nil
	}
	res, err := s.gateway.Capture(ctx, payment.CaptureRequest{
		Amount:      amount,
		Currency:    s.currency,
		Reference:   "bk_" + uuid.NewString(),
		Description: fmt.Sprintf("%s %s %s", court.Name, day, req.Window),
		Token:       req.PaymentToken,
	})
	if err != nil {
		return payment.CaptureResult{}, fmt.Errorf("%w: %w", apperr.ErrPaymentFailed, err)
	}
	return res, nil
}

// compensate refunds a capture whose booking was not written.
func (s *Service) compensate(ctx context.Context, paymentID string, amount int64) {
	if paymentID == "" || amount == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	logger := log.Ctx(ctx).With().Str("payment_id", paymentID).Logger()

	err := s.gateway.Refund(ctx, paymentID, amount)
	if err == nil {
		s.metrics.Refund(metrics.OutcomeRefundSuccess)
		logger.Info().Int64("amount", amount).Msg("Compensating refund issued")
		return
	}

	logger.Error().Err(err).Msg("Compensating refund failed, queueing for reconciliation")
	s.metrics.Refund(metrics.OutcomeRefundFailed)
	now := s.now().UTC()
	id, qerr := s.db.Queries.CreateRefund(ctx, dbgen.CreateRefundParams{
		PaymentReference: paymentID,
		Amount:           amount,
		Currency:         s.currency,
		NextAttemptAt:    now,
	})
	if qerr != nil {
		logger.Error().Err(qerr).Int64("amount", amount).Msg("Failed to queue refund")
		return
	}
	if rerr := s.db.Queries.RecordRefundFailure(ctx, dbgen.RecordRefundFailureParams{
		LastError:     nullString(err.Error()),
		NextAttemptAt: now.Add(s.backoff(0)),
		ID:            id,
	}); rerr != nil {
		logger.Error().Err(rerr).Int64("refund_id", id).Msg("Failed to record refund failure")
	}
	s.metrics.Refund(metrics.OutcomeRefundEnqueued)
}

func createOutcome(err error) string {
	switch {
	case errors.Is(err, apperr.ErrSlotUnavailable):
		return metrics.OutcomeConflict
	case errors.Is(err, apperr.ErrPaymentFailed):
		return metrics.OutcomePaymentFailed
	case apperr.IsDomain(err):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeError
	}
}

func payloadFor(b Booking, venue courts.Venue, court courts.Court) notify.Payload {
	return notify.Payload{
		BookingID:    b.ID,
		CustomerID:   b.CustomerID,
		ContactEmail: b.contactEmail,
		VenueID:      b.VenueID,
		VenueName:    venue.Name,
		CourtID:      b.CourtID,
		CourtName:    court.Name,
		Date:         b.Date,
		Start:        b.Start,
		End:          b.End,
		Timezone:     venue.Timezone,
		Amount:       b.TotalAmount,
		Currency:     b.Currency,
		Reason:       b.CancellationReason,
	}
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
