// Package notify fans booking lifecycle events out to customers and
// downstream consumers. Delivery is best effort.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

type Event string

const (
	EventBookingCreated   Event = "booking.created"
	EventBookingCancelled Event = "booking.cancelled"
	EventBookingCompleted Event = "booking.completed"
	EventBookingReminder  Event = "booking.reminder"
)

const dispatchTimeout = 5 * time.Second

// Payload is the booking snapshot attached to every event.
type Payload struct {
	BookingID    int64     `json:"booking_id"`
	CustomerID   int64     `json:"customer_id"`
	ContactEmail string    `json:"contact_email,omitempty"`
	VenueID      int64     `json:"venue_id"`
	VenueName    string    `json:"venue_name,omitempty"`
	CourtID      int64     `json:"court_id"`
	CourtName    string    `json:"court_name,omitempty"`
	Date         string    `json:"date"`
	Start        string    `json:"start"`
	End          string    `json:"end"`
	Timezone     string    `json:"timezone,omitempty"`
	Amount       int64     `json:"amount"`
	Currency     string    `json:"currency"`
	Reason       string    `json:"reason,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

type Notifier interface {
	Notify(ctx context.Context, event Event, payload Payload) error
}

type NotifierFunc func(ctx context.Context, event Event, payload Payload) error

func (f NotifierFunc) Notify(ctx context.Context, event Event, payload Payload) error {
	return f(ctx, event, payload)
}

// Multi delivers to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, event Event, payload Payload) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, event, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Dispatch sends the event in the background. The request context's values
// are kept but its cancellation is not, so a finished handler does not abort
// delivery. Failures are logged and otherwise ignored.
func Dispatch(ctx context.Context, n Notifier, event Event, payload Payload) {
	if n == nil {
		return
	}
	if payload.OccurredAt.IsZero() {
		payload.OccurredAt = time.Now().UTC()
	}
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dispatchTimeout)
	go func() {
		defer cancel()
		if err := n.Notify(sendCtx, event, payload); err != nil {
			log.Ctx(sendCtx).Warn().
				Err(err).
				Str("event", string(event)).
				Int64("booking_id", payload.BookingID).
				Msg("Failed to deliver notification")
		}
	}()
}

// LogNotifier writes events to the request logger.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, event Event, payload Payload) error {
	log.Ctx(ctx).Info().
		Str("event", string(event)).
		Int64("booking_id", payload.BookingID).
		Int64("court_id", payload.CourtID).
		Str("date", payload.Date).
		Str("start", payload.Start).
		Str("end", payload.End).
		Msg("Booking event")
	return nil
}
