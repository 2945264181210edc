package email

import (
	"fmt"
	"strings"
	"time"
)

// Message is a rendered plain-text email. Event names the booking event that
// produced it and is attached to the outgoing mail as a tag.
type Message struct {
	Event   string
	Subject string
	Body    string
}

// BookingDetails is the booking summary rendered into customer emails.
type BookingDetails struct {
	VenueName          string
	CourtName          string
	Date               string
	TimeRange          string
	Amount             string
	Reason             string
	CancellationPolicy string
}

// FormatDateTimeRange renders a booking's start and end in the venue's zone.
func FormatDateTimeRange(start, end time.Time) (string, string) {
	date := start.Format("Monday, Jan 2, 2006")
	timeRange := fmt.Sprintf("%s - %s %s", start.Format("3:04 PM"), end.Format("3:04 PM"), start.Format("MST"))
	return date, timeRange
}

// FormatAmount renders minor units as a decimal amount with the currency code.
func FormatAmount(minor int64, currency string) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, minor/100, minor%100, strings.ToUpper(currency))
}

func BuildConfirmation(details BookingDetails) Message {
	d := details.normalized()
	policy := strings.TrimSpace(details.CancellationPolicy)
	if policy == "" {
		policy = "Contact the venue for cancellation policy details."
	}

	lines := append(d.lines("Your court booking is confirmed."),
		fmt.Sprintf("Amount paid: %s", d.Amount),
		fmt.Sprintf("Cancellation policy: %s", policy),
	)
	return Message{
		Subject: fmt.Sprintf("Booking Confirmed - %s", d.VenueName),
		Body:    strings.Join(lines, "\n"),
	}
}

func BuildCancellation(details BookingDetails) Message {
	d := details.normalized()
	lines := d.lines("Your court booking has been cancelled.")
	if reason := strings.TrimSpace(details.Reason); reason != "" {
		lines = append(lines, fmt.Sprintf("Reason: %s", reason))
	}
	lines = append(lines, fmt.Sprintf("Refund: %s", d.Amount))
	return Message{
		Subject: fmt.Sprintf("Booking Cancelled - %s", d.VenueName),
		Body:    strings.Join(lines, "\n"),
	}
}

func BuildReminder(details BookingDetails) Message {
	d := details.normalized()
	return Message{
		Subject: fmt.Sprintf("Upcoming Booking Reminder - %s", d.VenueName),
		Body:    strings.Join(d.lines("Reminder: your court booking is coming up."), "\n"),
	}
}

func (d BookingDetails) normalized() BookingDetails {
	d.VenueName = orDefault(d.VenueName, "your venue")
	d.CourtName = orDefault(d.CourtName, "TBD")
	d.Date = orDefault(d.Date, "TBD")
	d.TimeRange = orDefault(d.TimeRange, "TBD")
	d.Amount = orDefault(d.Amount, "n/a")
	return d
}

func (d BookingDetails) lines(headline string) []string {
	return []string{
		headline,
		"",
		fmt.Sprintf("Venue: %s", d.VenueName),
		fmt.Sprintf("Court: %s", d.CourtName),
		fmt.Sprintf("Date: %s", d.Date),
		fmt.Sprintf("Time: %s", d.TimeRange),
	}
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
