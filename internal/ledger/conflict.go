package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/codr1/quickcourt/internal/apperr"
	dbgen "github.com/codr1/quickcourt/internal/db/generated"
	"github.com/codr1/quickcourt/internal/timeslot"
)

// ConflictReader is the read-only query subset used by CheckOverlap. Plain and
// transactional query sets both satisfy it.
type ConflictReader interface {
	FindOverlappingBooking(ctx context.Context, arg dbgen.FindOverlappingBookingParams) (dbgen.Booking, error)
	FindBlockingSlot(ctx context.Context, arg dbgen.FindBlockingSlotParams) (dbgen.Slot, error)
}

// BookingRef identifies the booking that holds a conflicting range.
type BookingRef struct {
	ID     int64  `json:"id"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Status string `json:"status"`
}

// Conflict is the outcome of an overlap check. When Free is false exactly one
// of Booking or Slot is set.
type Conflict struct {
	Free    bool
	Booking *BookingRef
	Slot    *Slot
}

// Err converts a non-free result into a ConflictError.
func (c Conflict) Err(courtID int64, date time.Time, iv timeslot.Interval) error {
	if c.Free {
		return nil
	}
	e := ConflictError{CourtID: courtID, Date: timeslot.FormatDate(date), Interval: iv}
	switch {
	case c.Booking != nil:
		e.Reason = "booked"
		e.BookingID = c.Booking.ID
	case c.Slot != nil:
		e.Reason = string(c.Slot.Status)
		if c.Slot.BookingID != nil {
			e.BookingID = *c.Slot.BookingID
		}
	}
	return e
}

// ConflictError explains why a range could not be claimed.
type ConflictError struct {
	CourtID   int64
	Date      string
	Interval  timeslot.Interval
	Reason    string
	BookingID int64
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("court %d on %s %s is unavailable (%s)", e.CourtID, e.Date, e.Interval, e.Reason)
}

func (e ConflictError) Unwrap() error {
	return apperr.ErrSlotUnavailable
}

// CheckOverlap reports the first confirmed or completed booking, or the first
// reserved, blocked or maintenance slot, that intersects [iv.Start, iv.End) on
// date. Two ranges overlap iff s1 < e2 and s2 < e1; touching ranges do not.
func CheckOverlap(ctx context.Context, q ConflictReader, courtID int64, date time.Time, iv timeslot.Interval) (Conflict, error) {
	day := timeslot.FormatDate(date)
	start, end := iv.Start.String(), iv.End.String()

	booking, err := q.FindOverlappingBooking(ctx, dbgen.FindOverlappingBookingParams{
		CourtID:     courtID,
		BookingDate: day,
		EndTime:     end,
		StartTime:   start,
	})
	switch {
	case err == nil:
		return Conflict{Booking: &BookingRef{
			ID:     booking.ID,
			Start:  booking.StartTime,
			End:    booking.EndTime,
			Status: booking.Status,
		}}, nil
	case !errors.Is(err, sql.ErrNoRows):
		return Conflict{}, fmt.Errorf("find overlapping booking: %w", err)
	}

	slot, err := q.FindBlockingSlot(ctx, dbgen.FindBlockingSlotParams{
		CourtID:   courtID,
		SlotDate:  day,
		EndTime:   end,
		StartTime: start,
	})
	switch {
	case err == nil:
		s := slotFromDB(slot)
		return Conflict{Slot: &s}, nil
	case !errors.Is(err, sql.ErrNoRows):
		return Conflict{}, fmt.Errorf("find blocking slot: %w", err)
	}

	return Conflict{Free: true}, nil
}
