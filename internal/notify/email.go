package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/quickcourt/internal/email"
	"github.com/codr1/quickcourt/internal/timeslot"
)

// EmailNotifier mails the customer on created, cancelled and reminder events.
// Events without a contact address are skipped.
type EmailNotifier struct {
	sender email.Sender
	policy string
}

func NewEmailNotifier(sender email.Sender, cancellationCutoff time.Duration) *EmailNotifier {
	return &EmailNotifier{
		sender: sender,
		policy: fmt.Sprintf("Free cancellation up to %s before the start time.", cancellationCutoff),
	}
}

func (n *EmailNotifier) Notify(ctx context.Context, event Event, payload Payload) error {
	if payload.ContactEmail == "" {
		log.Ctx(ctx).Debug().
			Str("event", string(event)).
			Int64("booking_id", payload.BookingID).
			Msg("Skipping email without contact address")
		return nil
	}

	details := n.details(payload)
	var msg email.Message
	switch event {
	case EventBookingCreated:
		msg = email.BuildConfirmation(details)
	case EventBookingCancelled:
		msg = email.BuildCancellation(details)
	case EventBookingReminder:
		msg = email.BuildReminder(details)
	default:
		return nil
	}

	msg.Event = string(event)
	if err := n.sender.Send(ctx, payload.ContactEmail, msg); err != nil {
		return fmt.Errorf("email %s for booking %d: %w", event, payload.BookingID, err)
	}
	return nil
}

func (n *EmailNotifier) details(p Payload) email.BookingDetails {
	d := email.BookingDetails{
		VenueName:          p.VenueName,
		CourtName:          p.CourtName,
		Amount:             email.FormatAmount(p.Amount, p.Currency),
		Reason:             p.Reason,
		CancellationPolicy: n.policy,
	}
	date, derr := timeslot.ParseDate(p.Date)
	start, serr := timeslot.ParseTimeOfDay(p.Start)
	end, eerr := timeslot.ParseTimeOfDay(p.End)
	if derr != nil || serr != nil || eerr != nil {
		d.Date = p.Date
		d.TimeRange = p.Start + " - " + p.End
		return d
	}
	loc, err := timeslot.LoadLocation(p.Timezone)
	if err != nil {
		loc = time.UTC
	}
	d.Date, d.TimeRange = email.FormatDateTimeRange(timeslot.At(date, start, loc), timeslot.At(date, end, loc))
	return d
}
