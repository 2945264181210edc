package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	dbgen "github.com/codr1/quickcourt/internal/db/generated"
	"github.com/codr1/quickcourt/internal/metrics"
)

// ReconcileResult summarises one pass over the refund queue.
type ReconcileResult struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// ReconcileRefunds retries up to limit pending refunds whose next attempt is
// due at now. Each failure pushes the next attempt out by 1m·2^attempts,
// capped at the configured maximum.
func (s *Service) ReconcileRefunds(ctx context.Context, now time.Time, limit int) (ReconcileResult, error) {
	if limit <= 0 {
		limit = 50
	}
	due, err := s.db.Queries.ListDueRefunds(ctx, dbgen.ListDueRefundsParams{
		Now:   now.UTC(),
		Limit: int64(limit),
	})
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("list due refunds: %w", err)
	}

	var result ReconcileResult
	for _, refund := range due {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Attempted++
		if s.attemptRefund(ctx, refund) {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}
	if result.Attempted > 0 {
		log.Ctx(ctx).Info().
			Int("attempted", result.Attempted).
			Int("succeeded", result.Succeeded).
			Int("failed", result.Failed).
			Msg("Refund reconciliation finished")
	}
	return result, nil
}

// attemptRefund calls the gateway for a queued refund and records the
// outcome on the refund row. It never returns the gateway error: a failed
// refund stays pending for the next reconciliation pass.
func (s *Service) attemptRefund(ctx context.Context, refund dbgen.Refund) bool {
	ctx = context.WithoutCancel(ctx)
	logger := log.Ctx(ctx).With().
		Int64("refund_id", refund.ID).
		Str("payment_id", refund.PaymentReference).
		Logger()

	err := s.gateway.Refund(ctx, refund.PaymentReference, refund.Amount)
	if err == nil {
		if merr := s.db.Queries.MarkRefundSucceeded(ctx, refund.ID); merr != nil {
			logger.Error().Err(merr).Msg("Refund issued but not recorded")
		}
		s.metrics.Refund(metrics.OutcomeRefundSuccess)
		logger.Info().Int64("amount", refund.Amount).Msg("Refund issued")
		return true
	}

	next := s.now().UTC().Add(s.backoff(refund.Attempts))
	if rerr := s.db.Queries.RecordRefundFailure(ctx, dbgen.RecordRefundFailureParams{
		LastError:     nullString(err.Error()),
		NextAttemptAt: next,
		ID:            refund.ID,
	}); rerr != nil {
		logger.Error().Err(rerr).Msg("Failed to record refund failure")
	}
	s.metrics.Refund(metrics.OutcomeRefundFailed)
	logger.Warn().Err(err).Time("next_attempt_at", next).Msg("Refund failed")
	return false
}

func (s *Service) backoff(attempts int64) time.Duration {
	d := refundBaseBackoff
	for i := int64(0); i < attempts; i++ {
		d *= 2
		if d >= s.refundMaxBackoff {
			return s.refundMaxBackoff
		}
	}
	if d > s.refundMaxBackoff {
		return s.refundMaxBackoff
	}
	return d
}

// Refunds lists the refund records of a booking.
func (s *Service) Refunds(ctx context.Context, bookingID int64) ([]dbgen.Refund, error) {
	rows, err := s.db.Queries.ListRefundsByBooking(ctx, nullID(bookingID))
	if err != nil {
		return nil, fmt.Errorf("list refunds for booking %d: %w", bookingID, err)
	}
	return rows, nil
}
