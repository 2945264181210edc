// Package courts is the registry of venues and their bookable courts.
package courts

import (
	"database/sql"
	"time"

	dbgen "github.com/codr1/quickcourt/internal/db/generated"
	"github.com/codr1/quickcourt/internal/timeslot"
)

// Tier names the price rule that produced an hourly amount.
type Tier string

const (
	TierCustom  Tier = "custom"
	TierPeak    Tier = "peak"
	TierWeekend Tier = "weekend"
	TierWeekday Tier = "weekday"
	TierBase    Tier = "base"
)

// DefaultPeakWindow is [18:00, 21:00).
var DefaultPeakWindow = timeslot.Interval{Start: timeslot.FromHour(18), End: timeslot.FromHour(21)}

type Venue struct {
	ID         int64          `json:"id"`
	OwnerID    int64          `json:"ownerId"`
	Name       string         `json:"name"`
	Timezone   string         `json:"timezone"`
	IsApproved bool           `json:"isApproved"`
	Location   *time.Location `json:"-"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

type Court struct {
	ID              int64             `json:"id"`
	VenueID         int64             `json:"venueId"`
	Name            string            `json:"name"`
	SportType       string            `json:"sportType"`
	Capacity        int64             `json:"capacity"`
	Hours           timeslot.Interval `json:"-"`
	OperatingStart  string            `json:"operatingStart"`
	OperatingEnd    string            `json:"operatingEnd"`
	PricePerHour    int64             `json:"pricePerHour"`
	PriceWeekday    *int64            `json:"priceWeekday,omitempty"`
	PriceWeekend    *int64            `json:"priceWeekend,omitempty"`
	PricePeakHours  *int64            `json:"pricePeakHours,omitempty"`
	IsActive        bool              `json:"isActive"`
	MaintenanceMode bool              `json:"maintenanceMode"`
	Location        *time.Location    `json:"-"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// Open reports whether the court currently accepts bookings at all.
func (c Court) Open() bool {
	return c.IsActive && !c.MaintenanceMode
}

// Covers reports whether iv lies within the operating hours.
func (c Court) Covers(iv timeslot.Interval) bool {
	return c.Hours.Contains(iv)
}

// IsBookableAt reports whether the court is open and the wall-clock time of
// at, read in the venue's timezone, falls inside the operating hours.
func (c Court) IsBookableAt(at time.Time) bool {
	if !c.Open() {
		return false
	}
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	local := at.In(loc)
	tod := timeslot.TimeOfDay(local.Hour()*60 + local.Minute())
	return c.Hours.Start <= tod && tod < c.Hours.End
}

// TierFor returns the configured tier and amount for the hour starting at
// hour on date. Precedence is peak, weekend, weekday, then the base rate.
// Per-slot custom prices are layered on top by the pricing resolver.
func (c Court) TierFor(date time.Time, hour int, peak timeslot.Interval) (Tier, int64) {
	start := timeslot.FromHour(hour)
	if c.PricePeakHours != nil && peak.Start <= start && start < peak.End {
		return TierPeak, *c.PricePeakHours
	}
	if timeslot.IsWeekend(date) {
		if c.PriceWeekend != nil {
			return TierWeekend, *c.PriceWeekend
		}
	} else if c.PriceWeekday != nil {
		return TierWeekday, *c.PriceWeekday
	}
	return TierBase, c.PricePerHour
}

func venueFromDB(row dbgen.Venue) Venue {
	loc, err := timeslot.LoadLocation(row.Timezone)
	if err != nil {
		loc = time.UTC
	}
	return Venue{
		ID:         row.ID,
		OwnerID:    row.OwnerID,
		Name:       row.Name,
		Timezone:   row.Timezone,
		IsApproved: row.IsApproved,
		Location:   loc,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
}

func courtFromDB(row dbgen.Court) Court {
	court := Court{
		ID:              row.ID,
		VenueID:         row.VenueID,
		Name:            row.Name,
		SportType:       row.SportType,
		Capacity:        row.Capacity,
		OperatingStart:  row.OperatingStart,
		OperatingEnd:    row.OperatingEnd,
		PricePerHour:    row.PricePerHour,
		PriceWeekday:    nullableInt(row.PriceWeekday),
		PriceWeekend:    nullableInt(row.PriceWeekend),
		PricePeakHours:  nullableInt(row.PricePeakHours),
		IsActive:        row.IsActive,
		MaintenanceMode: row.MaintenanceMode,
		Location:        time.UTC,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
	if iv, err := timeslot.ParseInterval(row.OperatingStart, row.OperatingEnd); err == nil {
		court.Hours = iv
	}
	return court
}

func nullableInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
