// Package ledger tracks per-hour slot state for each court and date.
//
// Slot rows are sparse: an hour inside operating hours without a row is
// available at the court's configured price. Rows are written when an hour is
// reserved, blocked, put under maintenance, or given a custom price.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/quickcourt/internal/apperr"
	"github.com/codr1/quickcourt/internal/cache"
	"github.com/codr1/quickcourt/internal/courts"
	"github.com/codr1/quickcourt/internal/db"
	dbgen "github.com/codr1/quickcourt/internal/db/generated"
	"github.com/codr1/quickcourt/internal/metrics"
	"github.com/codr1/quickcourt/internal/pricing"
	"github.com/codr1/quickcourt/internal/timeslot"
)

type Status string

const (
	StatusAvailable   Status = "available"
	StatusReserved    Status = "reserved"
	StatusBlocked     Status = "blocked"
	StatusMaintenance Status = "maintenance"
)

const defaultMaxRangeDays = 366

type Slot struct {
	ID          int64             `json:"id"`
	CourtID     int64             `json:"courtId"`
	Date        string            `json:"date"`
	Start       string            `json:"start"`
	End         string            `json:"end"`
	Interval    timeslot.Interval `json:"-"`
	Status      Status            `json:"status"`
	CustomPrice *int64            `json:"customPrice,omitempty"`
	BlockReason string            `json:"blockReason,omitempty"`
	BookingID   *int64            `json:"bookingId,omitempty"`
}

func slotFromDB(row dbgen.Slot) Slot {
	s := Slot{
		ID:          row.ID,
		CourtID:     row.CourtID,
		Date:        row.SlotDate,
		Start:       row.StartTime,
		End:         row.EndTime,
		Status:      Status(row.Status),
		BlockReason: row.BlockReason.String,
	}
	if iv, err := timeslot.ParseInterval(row.StartTime, row.EndTime); err == nil {
		s.Interval = iv
	}
	if row.CustomPrice.Valid {
		v := row.CustomPrice.Int64
		s.CustomPrice = &v
	}
	if row.BookingID.Valid {
		v := row.BookingID.Int64
		s.BookingID = &v
	}
	return s
}

// AvailabilitySlot is one priced hour of a court's day.
type AvailabilitySlot struct {
	Start     string      `json:"start"`
	End       string      `json:"end"`
	Status    Status      `json:"status"`
	Price     int64       `json:"price"`
	Tier      courts.Tier `json:"tier"`
	Bookable  bool        `json:"bookable"`
	Reason    string      `json:"reason,omitempty"`
	BookingID *int64      `json:"bookingId,omitempty"`
}

// CalendarDay is the owner view of one date.
type CalendarDay struct {
	Date  string             `json:"date"`
	Slots []AvailabilitySlot `json:"slots"`
}

// Queries is the query subset the ledger reads and writes.
type Queries interface {
	ConflictReader
	courts.Reader
	GetSlot(ctx context.Context, arg dbgen.GetSlotParams) (dbgen.Slot, error)
	ListSlotsForCourtDate(ctx context.Context, arg dbgen.ListSlotsForCourtDateParams) ([]dbgen.Slot, error)
	ListSlotsForCourtRange(ctx context.Context, arg dbgen.ListSlotsForCourtRangeParams) ([]dbgen.Slot, error)
	ListActiveBookingsForCourtRange(ctx context.Context, arg dbgen.ListActiveBookingsForCourtRangeParams) ([]dbgen.Booking, error)
	ReserveSlot(ctx context.Context, arg dbgen.ReserveSlotParams) (int64, error)
	ReleaseSlotsForBooking(ctx context.Context, bookingID sql.NullInt64) (int64, error)
	UpsertSlotStatus(ctx context.Context, arg dbgen.UpsertSlotStatusParams) (int64, error)
	UpsertSlotPrice(ctx context.Context, arg dbgen.UpsertSlotPriceParams) error
}

type Ledger struct {
	db           *db.DB
	pricing      *pricing.Resolver
	cache        cache.Store
	cacheTTL     time.Duration
	metrics      *metrics.Metrics
	maxRangeDays int
	now          func() time.Time
}

type Option func(*Ledger)

// WithCache caches availability for ttl. Writes through the ledger and the
// booking lifecycle invalidate affected dates.
func WithCache(store cache.Store, ttl time.Duration) Option {
	return func(l *Ledger) {
		l.cache = store
		l.cacheTTL = ttl
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

func WithMaxRangeDays(days int) Option {
	return func(l *Ledger) {
		if days > 0 {
			l.maxRangeDays = days
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func New(database *db.DB, resolver *pricing.Resolver, opts ...Option) *Ledger {
	l := &Ledger{
		db:           database,
		pricing:      resolver,
		maxRangeDays: defaultMaxRangeDays,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) Pricing() *pricing.Resolver {
	return l.pricing
}

// Availability lists every operating hour of the court on date with its
// status and resolved price. Bookable is false for hours that have already
// started.
func (l *Ledger) Availability(ctx context.Context, courtID int64, date time.Time) ([]AvailabilitySlot, error) {
	date = timeslot.Date(date)
	type loaded struct {
		court courts.Court
		venue courts.Venue
	}
	res, err := db.RetryRead(ctx, func(ctx context.Context) (loaded, error) {
		court, venue, err := courts.Load(ctx, l.db.Queries, courtID)
		return loaded{court: court, venue: venue}, err
	})
	if err != nil {
		return nil, err
	}
	court := res.court
	if !court.IsActive || !res.venue.IsApproved {
		return nil, fmt.Errorf("court %d: %w", courtID, apperr.ErrVenueNotBookable)
	}

	key := availabilityKey(courtID, date)
	slots, ok := l.cachedAvailability(ctx, key)
	if !ok {
		slots, err = l.buildAvailability(ctx, court, date)
		if err != nil {
			return nil, err
		}
		if l.cache != nil {
			if raw, err := json.Marshal(slots); err == nil {
				if err := l.cache.Set(ctx, key, raw, l.cacheTTL); err != nil {
					log.Ctx(ctx).Warn().Err(err).Int64("court_id", courtID).Msg("Availability cache write failed")
				}
			}
		}
	}

	now := l.now()
	for i := range slots {
		slots[i].Bookable = false
		if slots[i].Status != StatusAvailable {
			continue
		}
		start, err := timeslot.ParseTimeOfDay(slots[i].Start)
		if err != nil {
			continue
		}
		slots[i].Bookable = timeslot.At(date, start, court.Location).After(now)
	}
	return slots, nil
}

func (l *Ledger) cachedAvailability(ctx context.Context, key string) ([]AvailabilitySlot, bool) {
	if l.cache == nil {
		return nil, false
	}
	raw, err := l.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("Availability cache read failed")
		}
		return nil, false
	}
	var slots []AvailabilitySlot
	if err := json.Unmarshal(raw, &slots); err != nil {
		return nil, false
	}
	return slots, true
}

func (l *Ledger) buildAvailability(ctx context.Context, court courts.Court, date time.Time) ([]AvailabilitySlot, error) {
	type loaded struct {
		slots    []dbgen.Slot
		bookings []dbgen.Booking
	}
	day := timeslot.FormatDate(date)
	res, err := db.RetryRead(ctx, func(ctx context.Context) (loaded, error) {
		var out loaded
		var err error
		out.slots, err = l.db.Queries.ListSlotsForCourtDate(ctx, dbgen.ListSlotsForCourtDateParams{CourtID: court.ID, SlotDate: day})
		if err != nil {
			return out, fmt.Errorf("list slots: %w", err)
		}
		out.bookings, err = l.db.Queries.ListActiveBookingsForCourtRange(ctx, dbgen.ListActiveBookingsForCourtRangeParams{
			CourtID: court.ID, FromDate: day, ToDate: day,
		})
		if err != nil {
			return out, fmt.Errorf("list bookings: %w", err)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return l.daySlots(court, date, res.slots, res.bookings, false), nil
}

// daySlots merges stored rows and active bookings over the court's operating hours.
func (l *Ledger) daySlots(court courts.Court, date time.Time, rows []dbgen.Slot, bookings []dbgen.Booking, withDetails bool) []AvailabilitySlot {
	stored := make(map[timeslot.TimeOfDay]Slot, len(rows))
	for _, row := range rows {
		s := slotFromDB(row)
		stored[s.Interval.Start] = s
	}
	booked := bookingIntervals(bookings)

	hours := court.Hours.Hours()
	out := make([]AvailabilitySlot, 0, len(hours))
	for _, h := range hours {
		s, ok := stored[h.Start]
		var override *int64
		status := StatusAvailable
		if ok {
			override = s.CustomPrice
			status = s.Status
		}
		var bookingID *int64
		if ok && s.BookingID != nil {
			bookingID = s.BookingID
		}
		if status == StatusAvailable {
			if ref, covered := booked.covering(h); covered {
				status = StatusReserved
				bookingID = &ref
			}
		}
		if court.MaintenanceMode && status == StatusAvailable {
			status = StatusMaintenance
		}

		price := l.pricing.PriceFor(court, date, h.Start.Hour(), override)
		slot := AvailabilitySlot{
			Start:  h.Start.String(),
			End:    h.End.String(),
			Status: status,
			Price:  price.Amount,
			Tier:   price.Tier,
		}
		if withDetails {
			slot.BookingID = bookingID
			if ok {
				slot.Reason = s.BlockReason
			}
		}
		out = append(out, slot)
	}
	return out
}

type bookedRanges []struct {
	id int64
	iv timeslot.Interval
}

func bookingIntervals(bookings []dbgen.Booking) bookedRanges {
	var out bookedRanges
	for _, b := range bookings {
		iv, err := timeslot.ParseInterval(b.StartTime, b.EndTime)
		if err != nil {
			continue
		}
		out = append(out, struct {
			id int64
			iv timeslot.Interval
		}{id: b.ID, iv: iv})
	}
	return out
}

func (r bookedRanges) covering(h timeslot.Interval) (int64, bool) {
	for _, b := range r {
		if b.iv.Overlaps(h) {
			return b.id, true
		}
	}
	return 0, false
}

// Calendar returns the owner view of [from, to] including block reasons and booking references.
func (l *Ledger) Calendar(ctx context.Context, courtID int64, from, to time.Time) ([]CalendarDay, error) {
	from, to = timeslot.Date(from), timeslot.Date(to)
	if err := l.checkRange(from, to); err != nil {
		return nil, err
	}
	court, _, err := courts.Load(ctx, l.db.Queries, courtID)
	if err != nil {
		return nil, err
	}

	fromDay, toDay := timeslot.FormatDate(from), timeslot.FormatDate(to)
	rows, err := db.RetryRead(ctx, func(ctx context.Context) ([]dbgen.Slot, error) {
		return l.db.Queries.ListSlotsForCourtRange(ctx, dbgen.ListSlotsForCourtRangeParams{CourtID: courtID, FromDate: fromDay, ToDate: toDay})
	})
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	bookings, err := db.RetryRead(ctx, func(ctx context.Context) ([]dbgen.Booking, error) {
		return l.db.Queries.ListActiveBookingsForCourtRange(ctx, dbgen.ListActiveBookingsForCourtRangeParams{CourtID: courtID, FromDate: fromDay, ToDate: toDay})
	})
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	rowsByDate := make(map[string][]dbgen.Slot)
	for _, row := range rows {
		rowsByDate[row.SlotDate] = append(rowsByDate[row.SlotDate], row)
	}
	bookingsByDate := make(map[string][]dbgen.Booking)
	for _, b := range bookings {
		bookingsByDate[b.BookingDate] = append(bookingsByDate[b.BookingDate], b)
	}

	dates := timeslot.Dates(from, to)
	days := make([]CalendarDay, 0, len(dates))
	for _, d := range dates {
		day := timeslot.FormatDate(d)
		days = append(days, CalendarDay{
			Date:  day,
			Slots: l.daySlots(court, d, rowsByDate[day], bookingsByDate[day], true),
		})
	}
	return days, nil
}

// Reserve claims every hour of iv for bookingID. A slot that is not available,
// or a concurrent insert of the same slot, fails with ErrSlotUnavailable.
// Callers run it inside the transaction that creates the booking.
func Reserve(ctx context.Context, q Queries, courtID int64, date time.Time, iv timeslot.Interval, bookingID int64) error {
	day := timeslot.FormatDate(date)
	for _, h := range iv.Hours() {
		n, err := q.ReserveSlot(ctx, dbgen.ReserveSlotParams{
			CourtID:   courtID,
			SlotDate:  day,
			StartTime: h.Start.String(),
			EndTime:   h.End.String(),
			BookingID: sql.NullInt64{Int64: bookingID, Valid: true},
		})
		if err != nil {
			if db.IsUniqueViolation(err) {
				return ConflictError{CourtID: courtID, Date: day, Interval: h, Reason: "taken"}
			}
			return fmt.Errorf("reserve slot %s: %w", h, err)
		}
		if n == 0 {
			return ConflictError{CourtID: courtID, Date: day, Interval: h, Reason: "taken"}
		}
	}
	return nil
}

// Release returns the reserved slots of bookingID to available. Custom prices are kept.
func Release(ctx context.Context, q Queries, bookingID int64) (int64, error) {
	n, err := q.ReleaseSlotsForBooking(ctx, sql.NullInt64{Int64: bookingID, Valid: true})
	if err != nil {
		return 0, fmt.Errorf("release slots for booking %d: %w", bookingID, err)
	}
	return n, nil
}

// BlockRequest blocks a window on a single date.
type BlockRequest struct {
	CourtID int64
	Date    time.Time
	Window  timeslot.Interval
	Reason  string
}

// Block marks every hour of the window blocked. Unlike ApplyBulk it is all or
// nothing: any reservation or booking in the window fails the whole request
// with ErrSlotUnavailable.
func (l *Ledger) Block(ctx context.Context, req BlockRequest) (int, error) {
	date := timeslot.Date(req.Date)
	if err := validateWindow(req.Window); err != nil {
		return 0, err
	}

	blocked := 0
	err := l.db.RunInTx(ctx, func(txdb *db.DB) error {
		q := txdb.Queries
		court, _, err := courts.Load(ctx, q, req.CourtID)
		if err != nil {
			return err
		}
		if !court.Covers(req.Window) {
			return fmt.Errorf("window %s outside %s: %w", req.Window, court.Hours, apperr.ErrOutOfOperatingHours)
		}

		day := timeslot.FormatDate(date)
		booking, err := q.FindOverlappingBooking(ctx, dbgen.FindOverlappingBookingParams{
			CourtID: req.CourtID, BookingDate: day, EndTime: req.Window.End.String(), StartTime: req.Window.Start.String(),
		})
		if err == nil {
			return ConflictError{CourtID: req.CourtID, Date: day, Interval: req.Window, Reason: "booked", BookingID: booking.ID}
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("find overlapping booking: %w", err)
		}

		for _, h := range req.Window.Hours() {
			n, err := q.UpsertSlotStatus(ctx, dbgen.UpsertSlotStatusParams{
				CourtID:     req.CourtID,
				SlotDate:    day,
				StartTime:   h.Start.String(),
				EndTime:     h.End.String(),
				Status:      string(StatusBlocked),
				BlockReason: nullString(req.Reason),
			})
			if err != nil {
				return fmt.Errorf("block slot %s: %w", h, err)
			}
			if n == 0 {
				return ConflictError{CourtID: req.CourtID, Date: day, Interval: h, Reason: string(StatusReserved)}
			}
			blocked++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	l.Invalidate(ctx, req.CourtID, date)
	l.metrics.BulkSlots(string(ActionBlock), blocked)
	log.Ctx(ctx).Info().
		Int64("court_id", req.CourtID).
		Str("date", timeslot.FormatDate(date)).
		Str("window", req.Window.String()).
		Int("blocked", blocked).
		Msg("Slots blocked")
	return blocked, nil
}

// SetCustomPrices stores price on every hour of window for each date in
// [from, to]. A nil price clears the override. Slot status is not changed.
func (l *Ledger) SetCustomPrices(ctx context.Context, courtID int64, from, to time.Time, window timeslot.Interval, price *int64) (int, error) {
	from, to = timeslot.Date(from), timeslot.Date(to)
	if err := l.checkRange(from, to); err != nil {
		return 0, err
	}
	if err := validateWindow(window); err != nil {
		return 0, err
	}
	if price != nil && *price < 0 {
		return 0, apperr.Field("price", "must not be negative")
	}

	updated := 0
	dates := timeslot.Dates(from, to)
	err := l.db.RunInTx(ctx, func(txdb *db.DB) error {
		q := txdb.Queries
		court, _, err := courts.Load(ctx, q, courtID)
		if err != nil {
			return err
		}
		if !court.Covers(window) {
			return fmt.Errorf("window %s outside %s: %w", window, court.Hours, apperr.ErrOutOfOperatingHours)
		}
		for _, d := range dates {
			for _, h := range window.Hours() {
				if err := q.UpsertSlotPrice(ctx, dbgen.UpsertSlotPriceParams{
					CourtID:     courtID,
					SlotDate:    timeslot.FormatDate(d),
					StartTime:   h.Start.String(),
					EndTime:     h.End.String(),
					CustomPrice: nullInt(price),
				}); err != nil {
					return fmt.Errorf("set custom price: %w", err)
				}
				updated++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	l.Invalidate(ctx, courtID, dates...)
	log.Ctx(ctx).Info().Int64("court_id", courtID).Int("slots", updated).Msg("Custom slot prices updated")
	return updated, nil
}

// Invalidate drops cached availability for the given dates.
func (l *Ledger) Invalidate(ctx context.Context, courtID int64, dates ...time.Time) {
	if l.cache == nil || len(dates) == 0 {
		return
	}
	keys := make([]string, 0, len(dates))
	for _, d := range dates {
		keys = append(keys, availabilityKey(courtID, d))
	}
	if err := l.cache.Delete(ctx, keys...); err != nil {
		log.Ctx(ctx).Warn().Err(err).Int64("court_id", courtID).Msg("Availability cache invalidation failed")
	}
}

// InvalidateCourt drops every cached day of the court, used after changes
// to operating hours, prices or status.
func (l *Ledger) InvalidateCourt(ctx context.Context, courtID int64) {
	if l.cache == nil {
		return
	}
	if err := l.cache.DeletePrefix(ctx, fmt.Sprintf("availability:%d:", courtID)); err != nil {
		log.Ctx(ctx).Warn().Err(err).Int64("court_id", courtID).Msg("Availability cache invalidation failed")
	}
}

func (l *Ledger) checkRange(from, to time.Time) error {
	if to.Before(from) {
		return apperr.Field("to", "must not be before from")
	}
	if days := timeslot.DaysBetween(from, to); days > l.maxRangeDays {
		return apperr.Field("to", fmt.Sprintf("range of %d days exceeds the limit of %d", days, l.maxRangeDays))
	}
	return nil
}

func validateWindow(iv timeslot.Interval) error {
	if !iv.Valid() {
		return apperr.Interval("start %s must be before end %s", iv.Start, iv.End)
	}
	if !iv.WholeHours() {
		return apperr.Interval("window %s must start and end on the hour", iv)
	}
	return nil
}

func availabilityKey(courtID int64, date time.Time) string {
	return fmt.Sprintf("availability:%d:%s", courtID, timeslot.FormatDate(date))
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
