package pricing

import (
	"context"
	"database/sql"
	"testing"

	"github.com/codr1/quickcourt/internal/courts"
	dbgen "github.com/codr1/quickcourt/internal/db/generated"
	"github.com/codr1/quickcourt/internal/testutil"
	"github.com/codr1/quickcourt/internal/timeslot"
)

func ptr(v int64) *int64 { return &v }

func TestPriceForPrecedence(t *testing.T) {
	court := courts.Court{PricePerHour: 400, PriceWeekday: ptr(350), PriceWeekend: ptr(450), PricePeakHours: ptr(600)}
	friday, _ := timeslot.ParseDate("2025-02-07")
	resolver := NewResolver(timeslot.Interval{})

	tests := []struct {
		name     string
		hour     int
		override *int64
		wantTier courts.Tier
		want     int64
	}{
		{name: "peak beats weekday", hour: 19, wantTier: courts.TierPeak, want: 600},
		{name: "custom beats peak", hour: 19, override: ptr(250), wantTier: courts.TierCustom, want: 250},
		{name: "free custom price", hour: 10, override: ptr(0), wantTier: courts.TierCustom, want: 0},
		{name: "weekday", hour: 10, wantTier: courts.TierWeekday, want: 350},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := resolver.PriceFor(court, friday, tc.hour, tc.override)
			if got.Tier != tc.wantTier || got.Amount != tc.want {
				t.Fatalf("got %s/%d, want %s/%d", got.Tier, got.Amount, tc.wantTier, tc.want)
			}
		})
	}
}

func TestQuoteSumsHours(t *testing.T) {
	court := courts.Court{PricePerHour: 400, PriceWeekday: ptr(350), PricePeakHours: ptr(600)}
	friday, _ := timeslot.ParseDate("2025-02-07")
	resolver := NewResolver(courts.DefaultPeakWindow)

	iv := timeslot.Interval{Start: timeslot.FromHour(17), End: timeslot.FromHour(20)}
	quote := resolver.QuoteWith(court, friday, iv, map[timeslot.TimeOfDay]int64{timeslot.FromHour(19): 500})
	if len(quote.Hours) != 3 {
		t.Fatalf("expected 3 priced hours, got %d", len(quote.Hours))
	}
	// 17:00 weekday, 18:00 peak, 19:00 custom.
	if quote.Total != 350+600+500 {
		t.Fatalf("total: got %d", quote.Total)
	}
	if quote.Hours[2].Tier != courts.TierCustom {
		t.Fatalf("expected custom tier for 19:00, got %s", quote.Hours[2].Tier)
	}
}

func TestQuoteReadsStoredCustomPrices(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	venue := testutil.SeedVenue(t, database, testutil.VenueOpts{})
	seeded := testutil.SeedCourt(t, database, venue.ID, testutil.CourtOpts{PricePerHour: 500})

	if err := database.Queries.UpsertSlotPrice(ctx, dbgen.UpsertSlotPriceParams{
		CourtID: seeded.ID, SlotDate: "2030-06-01", StartTime: "10:00", EndTime: "11:00",
		CustomPrice: sql.NullInt64{Int64: 900, Valid: true},
	}); err != nil {
		t.Fatalf("seed custom price: %v", err)
	}

	court, _, err := courts.Load(ctx, database.Queries, seeded.ID)
	if err != nil {
		t.Fatalf("load court: %v", err)
	}
	date, _ := timeslot.ParseDate("2030-06-01")
	quote, err := NewResolver(courts.DefaultPeakWindow).Quote(ctx, database.Queries, court, date,
		timeslot.Interval{Start: timeslot.FromHour(9), End: timeslot.FromHour(11)})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if quote.Total != 500+900 {
		t.Fatalf("total: got %d, want %d", quote.Total, 1400)
	}
}
