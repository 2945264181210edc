// Package booking owns the booking lifecycle: creation with payment capture
// and slot reservation, cancellation with refunds, completion, and the
// read-side queries over bookings.
package booking

import (
	"database/sql"
	"time"

	dbgen "github.com/codr1/quickcourt/internal/db/generated"
	"github.com/codr1/quickcourt/internal/timeslot"
)

type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// ParseStatus accepts the three lifecycle states.
func ParseStatus(raw string) (Status, bool) {
	switch s := Status(raw); s {
	case StatusConfirmed, StatusCancelled, StatusCompleted:
		return s, true
	}
	return "", false
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

type Booking struct {
	ID                 int64         `json:"id"`
	CustomerID         int64         `json:"customerId"`
	VenueID            int64         `json:"venueId"`
	CourtID            int64         `json:"courtId"`
	Date               string        `json:"date"`
	Start              string        `json:"start"`
	End                string        `json:"end"`
	DurationHours      int64         `json:"durationHours"`
	TotalAmount        int64         `json:"totalAmount"`
	Currency           string        `json:"currency"`
	Status             Status        `json:"status"`
	PaymentStatus      PaymentStatus `json:"paymentStatus"`
	PaymentReference   string        `json:"paymentReference,omitempty"`
	CancellationReason string        `json:"cancellationReason,omitempty"`
	CancelledAt        *time.Time    `json:"cancelledAt,omitempty"`
	CompletedAt        *time.Time    `json:"completedAt,omitempty"`
	CreatedAt          time.Time     `json:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt"`

	contactEmail string
}

func fromDB(row dbgen.Booking) Booking {
	return Booking{
		ID:                 row.ID,
		CustomerID:         row.CustomerID,
		VenueID:            row.VenueID,
		CourtID:            row.CourtID,
		Date:               row.BookingDate,
		Start:              row.StartTime,
		End:                row.EndTime,
		DurationHours:      row.DurationHours,
		TotalAmount:        row.TotalAmount,
		Currency:           row.Currency,
		Status:             Status(row.Status),
		PaymentStatus:      PaymentStatus(row.PaymentStatus),
		PaymentReference:   row.PaymentReference,
		CancellationReason: row.CancellationReason.String,
		CancelledAt:        nullableTime(row.CancelledAt),
		CompletedAt:        nullableTime(row.CompletedAt),
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
		contactEmail:       row.ContactEmail,
	}
}

// Interval returns the booked hours.
func (b Booking) Interval() timeslot.Interval {
	iv, _ := timeslot.ParseInterval(b.Start, b.End)
	return iv
}

// StartsAt and EndsAt resolve the booking's wall-clock times in loc.
func (b Booking) StartsAt(loc *time.Location) time.Time {
	return b.at(b.Interval().Start, loc)
}

func (b Booking) EndsAt(loc *time.Location) time.Time {
	return b.at(b.Interval().End, loc)
}

func (b Booking) at(t timeslot.TimeOfDay, loc *time.Location) time.Time {
	date, err := timeslot.ParseDate(b.Date)
	if err != nil {
		return time.Time{}
	}
	return timeslot.At(date, t, loc)
}

// Filter narrows List. Zero values are ignored.
type Filter struct {
	CustomerID int64
	VenueID    int64
	CourtID    int64
	Status     Status
	From       string
	To         string
}

type Page struct {
	Limit  int
	Offset int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

func (p Page) normalized() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

type ListResult struct {
	Bookings []Booking `json:"bookings"`
	Total    int64     `json:"total"`
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
}

type Stats struct {
	Total      int64 `json:"total"`
	Confirmed  int64 `json:"confirmed"`
	Cancelled  int64 `json:"cancelled"`
	Completed  int64 `json:"completed"`
	TotalSpent int64 `json:"totalSpent"`
	Upcoming   int64 `json:"upcoming"`
}

type VenueSummary struct {
	VenueID   int64 `json:"venueId"`
	Total     int64 `json:"total"`
	Confirmed int64 `json:"confirmed"`
	Cancelled int64 `json:"cancelled"`
	Completed int64 `json:"completed"`
	Revenue   int64 `json:"revenue"`
}

func nullableTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullID(id int64) sql.NullInt64 {
	if id == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: id, Valid: true}
}
