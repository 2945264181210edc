// Package pricing resolves the hourly price of a court slot.
package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/codr1/quickcourt/internal/courts"
	dbgen "github.com/codr1/quickcourt/internal/db/generated"
	"github.com/codr1/quickcourt/internal/timeslot"
)

// SlotReader loads the sparse slot rows that may carry custom prices.
type SlotReader interface {
	ListSlotsForCourtDate(ctx context.Context, arg dbgen.ListSlotsForCourtDateParams) ([]dbgen.Slot, error)
}

type HourlyPrice struct {
	Hour   timeslot.Interval `json:"-"`
	Start  string            `json:"start"`
	End    string            `json:"end"`
	Tier   courts.Tier       `json:"tier"`
	Amount int64             `json:"amount"`
}

type Quote struct {
	Hours []HourlyPrice `json:"hours"`
	Total int64         `json:"total"`
}

// Resolver applies custom > peak > weekend > weekday > base.
type Resolver struct {
	peak timeslot.Interval
}

// NewResolver uses the default 18:00-21:00 peak window when peak is the zero interval.
func NewResolver(peak timeslot.Interval) *Resolver {
	if !peak.Valid() {
		peak = courts.DefaultPeakWindow
	}
	return &Resolver{peak: peak}
}

func (r *Resolver) PeakWindow() timeslot.Interval {
	return r.peak
}

// PriceFor prices the hour starting at hour on date. A non-nil override is a
// per-slot custom price and wins over every configured tier.
func (r *Resolver) PriceFor(court courts.Court, date time.Time, hour int, override *int64) HourlyPrice {
	iv := timeslot.Interval{Start: timeslot.FromHour(hour), End: timeslot.FromHour(hour + 1)}
	p := HourlyPrice{Hour: iv, Start: iv.Start.String(), End: iv.End.String()}
	if override != nil {
		p.Tier, p.Amount = courts.TierCustom, *override
		return p
	}
	p.Tier, p.Amount = court.TierFor(date, hour, r.peak)
	return p
}

// QuoteWith prices every hour of iv given custom prices keyed by slot start.
func (r *Resolver) QuoteWith(court courts.Court, date time.Time, iv timeslot.Interval, overrides map[timeslot.TimeOfDay]int64) Quote {
	hours := iv.Hours()
	q := Quote{Hours: make([]HourlyPrice, 0, len(hours))}
	for _, h := range hours {
		var override *int64
		if v, ok := overrides[h.Start]; ok {
			override = &v
		}
		p := r.PriceFor(court, date, h.Start.Hour(), override)
		q.Hours = append(q.Hours, p)
		q.Total += p.Amount
	}
	return q
}

// Quote reads the custom prices stored for date and prices iv.
func (r *Resolver) Quote(ctx context.Context, q SlotReader, court courts.Court, date time.Time, iv timeslot.Interval) (Quote, error) {
	rows, err := q.ListSlotsForCourtDate(ctx, dbgen.ListSlotsForCourtDateParams{
		CourtID:  court.ID,
		SlotDate: timeslot.FormatDate(date),
	})
	if err != nil {
		return Quote{}, fmt.Errorf("load custom prices: %w", err)
	}
	return r.QuoteWith(court, date, iv, CustomPrices(rows)), nil
}

// CustomPrices indexes the custom price of each slot row by its start time.
func CustomPrices(rows []dbgen.Slot) map[timeslot.TimeOfDay]int64 {
	overrides := make(map[timeslot.TimeOfDay]int64)
	for _, row := range rows {
		if !row.CustomPrice.Valid {
			continue
		}
		start, err := timeslot.ParseTimeOfDay(row.StartTime)
		if err != nil {
			continue
		}
		overrides[start] = row.CustomPrice.Int64
	}
	return overrides
}
