package booking

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/codr1/quickcourt/internal/apperr"
	"github.com/codr1/quickcourt/internal/db"
	dbgen "github.com/codr1/quickcourt/internal/db/generated"
	"github.com/codr1/quickcourt/internal/notify"
	"github.com/codr1/quickcourt/internal/timeslot"
)

func (s *Service) Get(ctx context.Context, id int64) (Booking, error) {
	row, err := db.RetryRead(ctx, func(ctx context.Context) (dbgen.Booking, error) {
		return s.db.Queries.GetBooking(ctx, id)
	})
	if err != nil {
		if isNoRows(err) {
			return Booking{}, apperr.NotFound("booking", id)
		}
		return Booking{}, fmt.Errorf("get booking %d: %w", id, err)
	}
	return fromDB(row), nil
}

// List returns one page of bookings, newest date first, plus the total match count.
func (s *Service) List(ctx context.Context, f Filter, p Page) (ListResult, error) {
	if f.Status != "" {
		if _, ok := ParseStatus(string(f.Status)); !ok {
			return ListResult{}, apperr.Field("status", fmt.Sprintf("unknown status %q", f.Status))
		}
	}
	for field, raw := range map[string]string{"from": f.From, "to": f.To} {
		if raw == "" {
			continue
		}
		if _, err := timeslot.ParseDate(raw); err != nil {
			return ListResult{}, apperr.Field(field, "must be a YYYY-MM-DD date")
		}
	}
	p = p.normalized()

	rows, err := s.db.Queries.ListBookings(ctx, dbgen.ListBookingsParams{
		CustomerID: nullID(f.CustomerID),
		VenueID:    nullID(f.VenueID),
		CourtID:    nullID(f.CourtID),
		Status:     nullString(string(f.Status)),
		FromDate:   nullString(f.From),
		ToDate:     nullString(f.To),
		Limit:      int64(p.Limit),
		Offset:     int64(p.Offset),
	})
	if err != nil {
		return ListResult{}, fmt.Errorf("list bookings: %w", err)
	}
	total, err := s.db.Queries.CountBookings(ctx, dbgen.CountBookingsParams{
		CustomerID: nullID(f.CustomerID),
		VenueID:    nullID(f.VenueID),
		CourtID:    nullID(f.CourtID),
		Status:     nullString(string(f.Status)),
		FromDate:   nullString(f.From),
		ToDate:     nullString(f.To),
	})
	if err != nil {
		return ListResult{}, fmt.Errorf("count bookings: %w", err)
	}

	result := ListResult{
		Bookings: make([]Booking, 0, len(rows)),
		Total:    total,
		Limit:    p.Limit,
		Offset:   p.Offset,
	}
	for _, row := range rows {
		result.Bookings = append(result.Bookings, fromDB(row))
	}
	return result, nil
}

// Stats summarises a customer's bookings. Upcoming counts confirmed bookings
// dated today or later.
func (s *Service) Stats(ctx context.Context, customerID int64) (Stats, error) {
	row, err := s.db.Queries.CustomerBookingStats(ctx, dbgen.CustomerBookingStatsParams{
		Today:      timeslot.FormatDate(s.now().UTC()),
		CustomerID: customerID,
	})
	if err != nil {
		return Stats{}, fmt.Errorf("booking stats for customer %d: %w", customerID, err)
	}
	return Stats{
		Total:      row.Total,
		Confirmed:  row.Confirmed,
		Cancelled:  row.Cancelled,
		Completed:  row.Completed,
		TotalSpent: row.TotalSpent,
		Upcoming:   row.Upcoming,
	}, nil
}

// VenueSummary reports booking counts and revenue from confirmed and
// completed bookings for a venue.
func (s *Service) VenueSummary(ctx context.Context, venueID int64) (VenueSummary, error) {
	if _, err := s.db.Queries.GetVenue(ctx, venueID); err != nil {
		if isNoRows(err) {
			return VenueSummary{}, apperr.NotFound("venue", venueID)
		}
		return VenueSummary{}, fmt.Errorf("get venue %d: %w", venueID, err)
	}
	row, err := s.db.Queries.VenueBookingSummary(ctx, venueID)
	if err != nil {
		return VenueSummary{}, fmt.Errorf("venue summary %d: %w", venueID, err)
	}
	return VenueSummary{
		VenueID:   venueID,
		Total:     row.Total,
		Confirmed: row.Confirmed,
		Cancelled: row.Cancelled,
		Completed: row.Completed,
		Revenue:   row.Revenue,
	}, nil
}

// SendReminders emits a reminder for every confirmed booking starting within
// (now, now+lead] that has not been reminded yet.
func (s *Service) SendReminders(ctx context.Context, now time.Time, lead time.Duration) (int, error) {
	candidates, err := s.db.Queries.ListReminderCandidates(ctx, dbgen.ListReminderCandidatesParams{
		FromDate: timeslot.FormatDate(now.UTC().AddDate(0, 0, -1)),
		ToDate:   timeslot.FormatDate(now.UTC().Add(lead).AddDate(0, 0, 1)),
	})
	if err != nil {
		return 0, fmt.Errorf("list reminder candidates: %w", err)
	}

	sent := 0
	for _, c := range candidates {
		loc, err := timeslot.LoadLocation(c.VenueTimezone)
		if err != nil {
			loc = time.UTC
		}
		b := fromDB(c.Booking)
		start := b.StartsAt(loc)
		if !start.After(now) || start.After(now.Add(lead)) {
			continue
		}
		if err := s.db.Queries.MarkReminderSent(ctx, dbgen.MarkReminderSentParams{
			ReminderSentAt: sql.NullTime{Time: now.UTC(), Valid: true},
			ID:             b.ID,
		}); err != nil {
			return sent, fmt.Errorf("mark reminder sent for booking %d: %w", b.ID, err)
		}
		notify.Dispatch(ctx, s.notifier, notify.EventBookingReminder, notify.Payload{
			BookingID:    b.ID,
			CustomerID:   b.CustomerID,
			ContactEmail: b.contactEmail,
			VenueID:      b.VenueID,
			VenueName:    c.VenueName,
			CourtID:      b.CourtID,
			CourtName:    c.CourtName,
			Date:         b.Date,
			Start:        b.Start,
			End:          b.End,
			Timezone:     c.VenueTimezone,
			Amount:       b.TotalAmount,
			Currency:     b.Currency,
		})
		sent++
	}
	return sent, nil
}
