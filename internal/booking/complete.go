package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/quickcourt/internal/apperr"
	"github.com/codr1/quickcourt/internal/courts"
	dbgen "github.com/codr1/quickcourt/internal/db/generated"
	"github.com/codr1/quickcourt/internal/notify"
	"github.com/codr1/quickcourt/internal/timeslot"
)

// Complete marks a confirmed booking whose end has passed as completed.
// Completing an already completed booking is a no-op.
func (s *Service) Complete(ctx context.Context, bookingID int64) (Booking, error) {
	row, err := s.db.Queries.GetBooking(ctx, bookingID)
	if err != nil {
		if isNoRows(err) {
			return Booking{}, apperr.NotFound("booking", bookingID)
		}
		return Booking{}, fmt.Errorf("get booking %d: %w", bookingID, err)
	}
	b := fromDB(row)
	switch b.Status {
	case StatusCompleted:
		return b, nil
	case StatusCancelled:
		return Booking{}, fmt.Errorf("booking %d is cancelled: %w", b.ID, apperr.ErrInvalidTransition)
	}

	court, venue, err := courts.Load(ctx, s.db.Queries, b.CourtID)
	if err != nil {
		return Booking{}, err
	}
	now := s.now()
	if b.EndsAt(court.Location).After(now) {
		return Booking{}, fmt.Errorf("booking %d has not ended: %w", b.ID, apperr.ErrInvalidTransition)
	}

	changed, err := s.markCompleted(ctx, b.ID, now)
	if err != nil {
		return Booking{}, err
	}
	updated, err := s.db.Queries.GetBooking(ctx, b.ID)
	if err != nil {
		return Booking{}, fmt.Errorf("reload booking %d: %w", b.ID, err)
	}
	result := fromDB(updated)
	if result.Status != StatusCompleted {
		return Booking{}, fmt.Errorf("booking %d is %s: %w", b.ID, result.Status, apperr.ErrInvalidTransition)
	}
	if changed {
		s.metrics.Completed(1)
		notify.Dispatch(ctx, s.notifier, notify.EventBookingCompleted, payloadFor(result, venue, court))
	}
	return result, nil
}

func (s *Service) markCompleted(ctx context.Context, id int64, now time.Time) (bool, error) {
	n, err := s.db.Queries.CompleteBooking(ctx, dbgen.CompleteBookingParams{
		CompletedAt: nullTime(now),
		ID:          id,
	})
	if err != nil {
		return false, fmt.Errorf("complete booking %d: %w", id, err)
	}
	return n > 0, nil
}

// CompleteElapsed completes confirmed bookings that ended at or before now,
// reading each end time in its venue's timezone. It processes at most limit
// candidates per call and returns how many were completed.
func (s *Service) CompleteElapsed(ctx context.Context, now time.Time, limit int) (int, error) {
	if limit <= 0 {
		limit = 500
	}
	// Dates are venue-local, so look one day ahead of UTC to cover zones east of it.
	through := timeslot.FormatDate(now.UTC().AddDate(0, 0, 1))
	candidates, err := s.db.Queries.ListCompletionCandidates(ctx, dbgen.ListCompletionCandidatesParams{
		ThroughDate: through,
		Limit:       int64(limit),
	})
	if err != nil {
		return 0, fmt.Errorf("list completion candidates: %w", err)
	}

	completed := 0
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return completed, err
		}
		loc, err := timeslot.LoadLocation(c.VenueTimezone)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("timezone", c.VenueTimezone).Msg("Unknown venue timezone, using UTC")
			loc = time.UTC
		}
		b := fromDB(c.Booking)
		if b.EndsAt(loc).After(now) {
			continue
		}
		changed, err := s.markCompleted(ctx, b.ID, now)
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Int64("booking_id", b.ID).Msg("Failed to complete booking")
			continue
		}
		if changed {
			completed++
			notify.Dispatch(ctx, s.notifier, notify.EventBookingCompleted, notify.Payload{
				BookingID:    b.ID,
				CustomerID:   b.CustomerID,
				ContactEmail: b.contactEmail,
				VenueID:      b.VenueID,
				CourtID:      b.CourtID,
				Date:         b.Date,
				Start:        b.Start,
				End:          b.End,
				Timezone:     c.VenueTimezone,
				Amount:       b.TotalAmount,
				Currency:     b.Currency,
			})
		}
	}
	s.metrics.Completed(completed)
	if completed > 0 {
		log.Ctx(ctx).Info().Int("completed", completed).Msg("Elapsed bookings completed")
	}
	return completed, nil
}
