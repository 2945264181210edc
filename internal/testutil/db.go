package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/codr1/quickcourt/internal/db"
	dbgen "github.com/codr1/quickcourt/internal/db/generated"
	"github.com/codr1/quickcourt/internal/timeslot"
)

// NewTestDB creates a temporary SQLite database with migrations applied.
func NewTestDB(t *testing.T) *db.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.New(dbPath)
	if err != nil {
		t.Fatalf("create test db: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	return database
}

// VenueOpts overrides the defaults used by SeedVenue.
type VenueOpts struct {
	OwnerID    int64
	Name       string
	Timezone   string
	Unapproved bool
}

// SeedVenue inserts an approved UTC venue unless opts say otherwise.
func SeedVenue(t *testing.T, database *db.DB, opts VenueOpts) dbgen.Venue {
	t.Helper()
	ctx := context.Background()

	if opts.OwnerID == 0 {
		opts.OwnerID = 900
	}
	if opts.Name == "" {
		opts.Name = "Riverside Sports Arena"
	}
	if opts.Timezone == "" {
		opts.Timezone = "UTC"
	}

	id, err := database.Queries.CreateVenue(ctx, dbgen.CreateVenueParams{
		OwnerID:    opts.OwnerID,
		Name:       opts.Name,
		Timezone:   opts.Timezone,
		IsApproved: !opts.Unapproved,
	})
	if err != nil {
		t.Fatalf("seed venue: %v", err)
	}
	venue, err := database.Queries.GetVenue(ctx, id)
	if err != nil {
		t.Fatalf("load seeded venue: %v", err)
	}
	return venue
}

// CourtOpts overrides the defaults used by SeedCourt. Zero prices mean unset.
type CourtOpts struct {
	Name           string
	OperatingStart string
	OperatingEnd   string
	PricePerHour   int64
	PriceWeekday   int64
	PriceWeekend   int64
	PricePeakHours int64
	Inactive       bool
	Maintenance    bool
}

// SeedCourt inserts a badminton court open 06:00-22:00 at 500 per hour.
func SeedCourt(t *testing.T, database *db.DB, venueID int64, opts CourtOpts) dbgen.Court {
	t.Helper()
	ctx := context.Background()

	if opts.Name == "" {
		opts.Name = "Court 1"
	}
	if opts.OperatingStart == "" {
		opts.OperatingStart = "06:00"
	}
	if opts.OperatingEnd == "" {
		opts.OperatingEnd = "22:00"
	}
	if opts.PricePerHour == 0 {
		opts.PricePerHour = 500
	}

	id, err := database.Queries.CreateCourt(ctx, dbgen.CreateCourtParams{
		VenueID:        venueID,
		Name:           opts.Name,
		SportType:      "badminton",
		Capacity:       4,
		OperatingStart: opts.OperatingStart,
		OperatingEnd:   opts.OperatingEnd,
		PricePerHour:   opts.PricePerHour,
		PriceWeekday:   optionalPrice(opts.PriceWeekday),
		PriceWeekend:   optionalPrice(opts.PriceWeekend),
		PricePeakHours: optionalPrice(opts.PricePeakHours),
	})
	if err != nil {
		t.Fatalf("seed court: %v", err)
	}
	if opts.Inactive {
		if _, err := database.Queries.SetCourtActive(ctx, dbgen.SetCourtActiveParams{IsActive: false, ID: id}); err != nil {
			t.Fatalf("deactivate seeded court: %v", err)
		}
	}
	if opts.Maintenance {
		if _, err := database.Queries.SetCourtMaintenance(ctx, dbgen.SetCourtMaintenanceParams{MaintenanceMode: true, ID: id}); err != nil {
			t.Fatalf("set seeded court maintenance: %v", err)
		}
	}
	court, err := database.Queries.GetCourt(ctx, id)
	if err != nil {
		t.Fatalf("load seeded court: %v", err)
	}
	return court
}

// BookingOpts describes a booking row inserted directly, bypassing the lifecycle.
type BookingOpts struct {
	CustomerID int64
	Date       string
	Start      string
	End        string
	Hours      int64
	Amount     int64
}

// SeedBooking inserts a confirmed, paid booking and reserves its hourly slots.
func SeedBooking(t *testing.T, database *db.DB, court dbgen.Court, opts BookingOpts) dbgen.Booking {
	t.Helper()
	ctx := context.Background()

	if opts.CustomerID == 0 {
		opts.CustomerID = 100
	}
	if opts.Hours == 0 {
		opts.Hours = 1
	}

	id, err := database.Queries.CreateBooking(ctx, dbgen.CreateBookingParams{
		CustomerID:       opts.CustomerID,
		VenueID:          court.VenueID,
		CourtID:          court.ID,
		BookingDate:      opts.Date,
		StartTime:        opts.Start,
		EndTime:          opts.End,
		DurationHours:    opts.Hours,
		TotalAmount:      opts.Amount,
		Currency:         "INR",
		PaymentStatus:    "paid",
		PaymentReference: "pay_seed",
	})
	if err != nil {
		t.Fatalf("seed booking: %v", err)
	}
	iv, err := timeslot.ParseInterval(opts.Start, opts.End)
	if err != nil {
		t.Fatalf("seed booking interval: %v", err)
	}
	for _, hour := range iv.Hours() {
		if _, err := database.Queries.ReserveSlot(ctx, dbgen.ReserveSlotParams{
			CourtID:   court.ID,
			SlotDate:  opts.Date,
			StartTime: hour.Start.String(),
			EndTime:   hour.End.String(),
			BookingID: sql.NullInt64{Int64: id, Valid: true},
		}); err != nil {
			t.Fatalf("seed booking slot: %v", err)
		}
	}
	booking, err := database.Queries.GetBooking(ctx, id)
	if err != nil {
		t.Fatalf("load seeded booking: %v", err)
	}
	return booking
}

func optionalPrice(v int64) sql.NullInt64 {
	if v == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: v, Valid: true}
}
