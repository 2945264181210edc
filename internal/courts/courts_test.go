package courts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/codr1/quickcourt/internal/apperr"
	"github.com/codr1/quickcourt/internal/testutil"
	"github.com/codr1/quickcourt/internal/timeslot"
)

func price(v int64) *int64 { return &v }

func TestCourtInputValidate(t *testing.T) {
	valid := CourtInput{
		Name:           "Court A",
		SportType:      "badminton",
		Capacity:       4,
		OperatingStart: "06:00",
		OperatingEnd:   "22:00",
		PricePerHour:   500,
	}

	tests := []struct {
		name      string
		mutate    func(*CourtInput)
		wantField string
	}{
		{name: "valid", mutate: func(*CourtInput) {}},
		{name: "missing name", mutate: func(in *CourtInput) { in.Name = " " }, wantField: "name"},
		{name: "missing sport", mutate: func(in *CourtInput) { in.SportType = "" }, wantField: "sport_type"},
		{name: "zero capacity", mutate: func(in *CourtInput) { in.Capacity = 0 }, wantField: "capacity"},
		{name: "inverted hours", mutate: func(in *CourtInput) { in.OperatingStart, in.OperatingEnd = "22:00", "06:00" }, wantField: "operating_hours"},
		{name: "equal hours", mutate: func(in *CourtInput) { in.OperatingEnd = "06:00" }, wantField: "operating_hours"},
		{name: "half hour", mutate: func(in *CourtInput) { in.OperatingStart = "06:30" }, wantField: "operating_hours"},
		{name: "negative base", mutate: func(in *CourtInput) { in.PricePerHour = -1 }, wantField: "price_per_hour"},
		{name: "negative peak", mutate: func(in *CourtInput) { in.PricePeakHours = price(-5) }, wantField: "price_peak_hours"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mutate(&in)
			err := in.Validate()
			if tc.wantField == "" {
				if err != nil {
					t.Fatalf("expected valid input, got %v", err)
				}
				return
			}
			var fieldErr apperr.FieldError
			if !errors.As(err, &fieldErr) {
				t.Fatalf("expected field error, got %v", err)
			}
			if fieldErr.Field != tc.wantField {
				t.Fatalf("field: got %s, want %s", fieldErr.Field, tc.wantField)
			}
			if !errors.Is(err, apperr.ErrInvalidInput) {
				t.Fatalf("field error must unwrap to ErrInvalidInput")
			}
		})
	}
}

func TestTierFor(t *testing.T) {
	court := Court{
		PricePerHour:   400,
		PriceWeekday:   price(350),
		PriceWeekend:   price(450),
		PricePeakHours: price(600),
	}
	friday, _ := timeslot.ParseDate("2025-02-07")
	saturday, _ := timeslot.ParseDate("2025-02-08")

	tests := []struct {
		name       string
		court      Court
		date       time.Time
		hour       int
		wantTier   Tier
		wantAmount int64
	}{
		{name: "friday peak", court: court, date: friday, hour: 19, wantTier: TierPeak, wantAmount: 600},
		{name: "friday peak end exclusive", court: court, date: friday, hour: 21, wantTier: TierWeekday, wantAmount: 350},
		{name: "friday morning", court: court, date: friday, hour: 9, wantTier: TierWeekday, wantAmount: 350},
		{name: "saturday morning", court: court, date: saturday, hour: 9, wantTier: TierWeekend, wantAmount: 450},
		{name: "saturday peak", court: court, date: saturday, hour: 18, wantTier: TierPeak, wantAmount: 600},
		{name: "base only", court: Court{PricePerHour: 400}, date: saturday, hour: 19, wantTier: TierBase, wantAmount: 400},
		{name: "weekday price unused on weekend", court: Court{PricePerHour: 400, PriceWeekday: price(350)}, date: saturday, hour: 9, wantTier: TierBase, wantAmount: 400},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tier, amount := tc.court.TierFor(tc.date, tc.hour, DefaultPeakWindow)
			if tier != tc.wantTier || amount != tc.wantAmount {
				t.Fatalf("got %s/%d, want %s/%d", tier, amount, tc.wantTier, tc.wantAmount)
			}
		})
	}
}

func TestIsBookableAt(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	court := Court{
		Hours:    timeslot.Interval{Start: timeslot.FromHour(6), End: timeslot.FromHour(22)},
		IsActive: true,
		Location: loc,
	}

	if !court.IsBookableAt(time.Date(2025, 2, 10, 6, 0, 0, 0, loc)) {
		t.Fatalf("expected 06:00 local to be bookable")
	}
	if court.IsBookableAt(time.Date(2025, 2, 10, 5, 0, 0, 0, loc)) {
		t.Fatalf("expected 05:00 local to be outside hours")
	}
	if court.IsBookableAt(time.Date(2025, 2, 10, 22, 0, 0, 0, loc)) {
		t.Fatalf("expected closing time to be excluded")
	}
	// 00:30 UTC is 06:00 IST.
	if !court.IsBookableAt(time.Date(2025, 2, 10, 0, 30, 0, 0, time.UTC)) {
		t.Fatalf("expected instant to be read in venue timezone")
	}

	court.MaintenanceMode = true
	if court.IsBookableAt(time.Date(2025, 2, 10, 10, 0, 0, 0, loc)) {
		t.Fatalf("court under maintenance must not be bookable")
	}
}

func TestRegistryLifecycle(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	registry := NewRegistry(database.Queries, "Asia/Kolkata")

	venue, err := registry.CreateVenue(ctx, VenueInput{OwnerID: 7, Name: "Lakeside Club"})
	if err != nil {
		t.Fatalf("create venue: %v", err)
	}
	if venue.IsApproved {
		t.Fatalf("new venues must start unapproved")
	}
	if venue.Timezone != "Asia/Kolkata" {
		t.Fatalf("default timezone not applied: %s", venue.Timezone)
	}

	court, err := registry.CreateCourt(ctx, venue.ID, CourtInput{
		Name: "Court 1", SportType: "badminton", Capacity: 4,
		OperatingStart: "06:00", OperatingEnd: "22:00", PricePerHour: 500,
		PricePeakHours: price(700),
	})
	if err != nil {
		t.Fatalf("create court: %v", err)
	}
	if court.PricePeakHours == nil || *court.PricePeakHours != 700 {
		t.Fatalf("peak price not stored: %+v", court.PricePeakHours)
	}

	if _, _, err := LoadBookableCourt(ctx, database.Queries, court.ID); !errors.Is(err, apperr.ErrVenueNotBookable) {
		t.Fatalf("unapproved venue: expected ErrVenueNotBookable, got %v", err)
	}

	if _, err := registry.SetVenueApproval(ctx, venue.ID, true); err != nil {
		t.Fatalf("approve venue: %v", err)
	}
	if _, _, err := LoadBookableCourt(ctx, database.Queries, court.ID); err != nil {
		t.Fatalf("approved venue: %v", err)
	}

	if _, err := registry.SetMaintenanceMode(ctx, court.ID, true); err != nil {
		t.Fatalf("maintenance: %v", err)
	}
	if _, _, err := LoadBookableCourt(ctx, database.Queries, court.ID); !errors.Is(err, apperr.ErrVenueNotBookable) {
		t.Fatalf("maintenance court: expected ErrVenueNotBookable, got %v", err)
	}
	if _, err := registry.SetMaintenanceMode(ctx, court.ID, false); err != nil {
		t.Fatalf("clear maintenance: %v", err)
	}

	deactivated, err := registry.SetCourtActive(ctx, court.ID, false)
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if deactivated.IsActive {
		t.Fatalf("expected inactive court")
	}
	courts, err := registry.ListCourts(ctx, venue.ID)
	if err != nil {
		t.Fatalf("list courts: %v", err)
	}
	if len(courts) != 1 {
		t.Fatalf("soft-deactivated courts must still be listed, got %d", len(courts))
	}

	updated, err := registry.UpdateCourt(ctx, court.ID, CourtInput{
		Name: "Court 1", SportType: "badminton", Capacity: 4,
		OperatingStart: "07:00", OperatingEnd: "23:00", PricePerHour: 550,
	})
	if err != nil {
		t.Fatalf("update court: %v", err)
	}
	if updated.OperatingStart != "07:00" || updated.PricePeakHours != nil {
		t.Fatalf("unexpected update result: %+v", updated)
	}
}

func TestRegistryNotFound(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	registry := NewRegistry(database.Queries, "")

	if _, err := registry.GetCourt(ctx, 404); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := registry.SetCourtActive(ctx, 404, false); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := registry.CreateCourt(ctx, 404, CourtInput{
		Name: "Ghost", SportType: "tennis", Capacity: 2,
		OperatingStart: "06:00", OperatingEnd: "22:00",
	}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing venue, got %v", err)
	}
}
