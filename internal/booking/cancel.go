package booking

import (
	"context"
	"fmt"

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
	"github.com/codr1/quickcourt/internal/timeslot"
)

// Cancel cancels a customer's own booking. A booking that is already
// cancelled is returned unchanged. Cancelling is allowed up to and including
// exactly cutoff before the start.
func (s *Service) Cancel(ctx context.Context, bookingID, customerID int64) (Booking, error) {
	row, err := s.db.Queries.GetBooking(ctx, bookingID)
	if err != nil {
		if isNoRows(err) {
			return Booking{}, apperr.NotFound("booking", bookingID)
		}
		return Booking{}, fmt.Errorf("get booking %d: %w", bookingID, err)
	}
	if row.CustomerID != customerID {
		return Booking{}, apperr.NotFound("booking", bookingID)
	}
	return s.cancel(ctx, row, "", true)
}

// CancelByOwner cancels on behalf of the venue. The cutoff does not apply.
func (s *Service) CancelByOwner(ctx context.Context, bookingID int64, reason string) (Booking, error) {
	row, err := s.db.Queries.GetBooking(ctx, bookingID)
	if err != nil {
		if isNoRows(err) {
			return Booking{}, apperr.NotFound("booking", bookingID)
		}
		return Booking{}, fmt.Errorf("get booking %d: %w", bookingID, err)
	}
	return s.cancel(ctx, row, reason, false)
}

func (s *Service) cancel(ctx context.Context, row dbgen.Booking, reason string, enforceCutoff bool) (Booking, error) {
	ctx, span := s.tracer.Start(ctx, "booking.Cancel")
	defer span.End()
	span.SetAttributes(attribute.Int64("booking_id", row.ID), attribute.Bool("owner", !enforceCutoff))

	logger := log.Ctx(ctx).With().
		Str("component", "booking").
		Int64("booking_id", row.ID).
		Logger()

	b := fromDB(row)
	switch b.Status {
	case StatusCancelled:
		return b, nil
	case StatusCompleted:
		if enforceCutoff {
			return Booking{}, fmt.Errorf("booking %d is completed: %w", b.ID, apperr.ErrCancellationWindowClosed)
		}
		return Booking{}, fmt.Errorf("booking %d is completed: %w", b.ID, apperr.ErrInvalidTransition)
	}

	court, venue, err := courts.Load(ctx, s.db.Queries, b.CourtID)
	if err != nil {
		return Booking{}, err
	}
	now := s.now()
	if enforceCutoff {
		deadline := b.StartsAt(court.Location).Add(-s.cutoff)
		if now.After(deadline) {
			return Booking{}, fmt.Errorf("booking %d could be cancelled until %s: %w",
				b.ID, deadline.Format("2006-01-02 15:04 MST"), apperr.ErrCancellationWindowClosed)
		}
	}

	refundDue := b.PaymentStatus == PaymentPaid && b.TotalAmount > 0 && b.PaymentReference != ""
	paymentStatus := b.PaymentStatus
	if refundDue {
		paymentStatus = PaymentRefunded
	}

	var (
		refundID  int64
		cancelled bool
	)
	err = s.db.RunInTx(ctx, func(txdb *db.DB) error {
		qtx := txdb.Queries
		n, err := qtx.CancelBooking(ctx, dbgen.CancelBookingParams{
			CancellationReason: nullString(reason),
			CancelledAt:        nullTime(now),
			PaymentStatus:      string(paymentStatus),
			ID:                 b.ID,
		})
		if err != nil {
			return fmt.Errorf("cancel booking: %w", err)
		}
		if n == 0 {
			// Lost to a concurrent cancel or completion; report the stored state.
			return nil
		}
		cancelled = true
		if _, err := ledger.Release(ctx, qtx, b.ID); err != nil {
			return err
		}
		if !refundDue {
			return nil
		}
		refundID, err = qtx.CreateRefund(ctx, dbgen.CreateRefundParams{
			BookingID:        nullID(b.ID),
			PaymentReference: b.PaymentReference,
			Amount:           b.TotalAmount,
			Currency:         b.Currency,
			NextAttemptAt:    now.UTC(),
		})
		if err != nil {
			return fmt.Errorf("queue refund: %w", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error().Err(err).Msg("Failed to cancel booking")
		return Booking{}, err
	}

	updated, err := s.db.Queries.GetBooking(ctx, b.ID)
	if err != nil {
		return Booking{}, fmt.Errorf("reload booking %d: %w", b.ID, err)
	}
	result := fromDB(updated)
	if result.Status == StatusCompleted {
		return Booking{}, fmt.Errorf("booking %d completed concurrently: %w", b.ID, apperr.ErrInvalidTransition)
	}

	if !cancelled {
		return result, nil
	}

	if date, err := timeslot.ParseDate(b.Date); err == nil {
		s.ledger.Invalidate(ctx, b.CourtID, date)
	}
	s.metrics.Booking(metrics.OutcomeCancelled)
	if refundDue {
		s.attemptRefund(ctx, dbgen.Refund{
			ID:               refundID,
			PaymentReference: b.PaymentReference,
			Amount:           b.TotalAmount,
			Currency:         b.Currency,
		})
	}
	notify.Dispatch(ctx, s.notifier, notify.EventBookingCancelled, payloadFor(result, venue, court))

	logger.Info().
		Str("reason", reason).
		Str("payment_status", string(result.PaymentStatus)).
		Msg("Booking cancelled")
	return result, nil
}
