package courts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/codr1/quickcourt/internal/apperr"
	dbgen "github.com/codr1/quickcourt/internal/db/generated"
	"github.com/codr1/quickcourt/internal/timeslot"
)

const maxNameLength = 100

// Reader is the query subset needed to resolve a court and its venue. Both
// *dbgen.Queries and its transactional form satisfy it.
type Reader interface {
	GetCourt(ctx context.Context, id int64) (dbgen.Court, error)
	GetVenue(ctx context.Context, id int64) (dbgen.Venue, error)
}

type Queries interface {
	Reader
	CreateVenue(ctx context.Context, arg dbgen.CreateVenueParams) (int64, error)
	SetVenueApproval(ctx context.Context, arg dbgen.SetVenueApprovalParams) (int64, error)
	ListVenuesByOwner(ctx context.Context, ownerID int64) ([]dbgen.Venue, error)
	CreateCourt(ctx context.Context, arg dbgen.CreateCourtParams) (int64, error)
	UpdateCourt(ctx context.Context, arg dbgen.UpdateCourtParams) (int64, error)
	SetCourtActive(ctx context.Context, arg dbgen.SetCourtActiveParams) (int64, error)
	SetCourtMaintenance(ctx context.Context, arg dbgen.SetCourtMaintenanceParams) (int64, error)
	ListCourtsByVenue(ctx context.Context, venueID int64) ([]dbgen.Court, error)
}

// Registry validates and stores venues and courts.
type Registry struct {
	q               Queries
	defaultTimezone string
}

func NewRegistry(q Queries, defaultTimezone string) *Registry {
	if strings.TrimSpace(defaultTimezone) == "" {
		defaultTimezone = "UTC"
	}
	return &Registry{q: q, defaultTimezone: defaultTimezone}
}

type VenueInput struct {
	OwnerID  int64
	Name     string
	Timezone string
}

func (in VenueInput) Validate() error {
	if in.OwnerID <= 0 {
		return apperr.Field("owner_id", "is required")
	}
	if err := validateName("name", in.Name); err != nil {
		return err
	}
	if in.Timezone != "" {
		if _, err := timeslot.LoadLocation(in.Timezone); err != nil {
			return apperr.Field("timezone", "must be an IANA timezone name")
		}
	}
	return nil
}

// CourtInput carries the writable attributes of a court. Optional prices are nil when unset.
type CourtInput struct {
	Name           string
	SportType      string
	Capacity       int64
	OperatingStart string
	OperatingEnd   string
	PricePerHour   int64
	PriceWeekday   *int64
	PriceWeekend   *int64
	PricePeakHours *int64
}

// Validate enforces operating-hour ordering and non-negative prices.
func (in CourtInput) Validate() error {
	if err := validateName("name", in.Name); err != nil {
		return err
	}
	if strings.TrimSpace(in.SportType) == "" {
		return apperr.Field("sport_type", "is required")
	}
	if in.Capacity < 1 {
		return apperr.Field("capacity", "must be at least 1")
	}
	hours, err := timeslot.ParseInterval(in.OperatingStart, in.OperatingEnd)
	if err != nil {
		return apperr.Field("operating_hours", err.Error())
	}
	if !hours.Valid() {
		return apperr.Field("operating_hours", "start must be before end")
	}
	if !hours.WholeHours() {
		return apperr.Field("operating_hours", "must start and end on the hour")
	}
	if in.PricePerHour < 0 {
		return apperr.Field("price_per_hour", "must not be negative")
	}
	for field, price := range map[string]*int64{
		"price_weekday":    in.PriceWeekday,
		"price_weekend":    in.PriceWeekend,
		"price_peak_hours": in.PricePeakHours,
	} {
		if price != nil && *price < 0 {
			return apperr.Field(field, "must not be negative")
		}
	}
	return nil
}

func (in CourtInput) normalizedHours() (string, string) {
	hours, _ := timeslot.ParseInterval(in.OperatingStart, in.OperatingEnd)
	return hours.Start.String(), hours.End.String()
}

func validateName(field, value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return apperr.Field(field, "is required")
	}
	if len(trimmed) > maxNameLength {
		return apperr.Field(field, fmt.Sprintf("must be %d characters or fewer", maxNameLength))
	}
	return nil
}

// CreateVenue stores an unapproved venue. An admin approves it before its courts become bookable.
func (r *Registry) CreateVenue(ctx context.Context, in VenueInput) (Venue, error) {
	if err := in.Validate(); err != nil {
		return Venue{}, err
	}
	tz := in.Timezone
	if tz == "" {
		tz = r.defaultTimezone
	}
	id, err := r.q.CreateVenue(ctx, dbgen.CreateVenueParams{
		OwnerID:  in.OwnerID,
		Name:     strings.TrimSpace(in.Name),
		Timezone: tz,
	})
	if err != nil {
		return Venue{}, fmt.Errorf("create venue: %w", err)
	}
	log.Ctx(ctx).Info().Int64("venue_id", id).Int64("owner_id", in.OwnerID).Msg("Venue created")
	return r.GetVenue(ctx, id)
}

func (r *Registry) GetVenue(ctx context.Context, id int64) (Venue, error) {
	row, err := r.q.GetVenue(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Venue{}, apperr.NotFound("venue", id)
		}
		return Venue{}, fmt.Errorf("get venue %d: %w", id, err)
	}
	return venueFromDB(row), nil
}

func (r *Registry) ListVenues(ctx context.Context, ownerID int64) ([]Venue, error) {
	rows, err := r.q.ListVenuesByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}
	venues := make([]Venue, 0, len(rows))
	for _, row := range rows {
		venues = append(venues, venueFromDB(row))
	}
	return venues, nil
}

func (r *Registry) SetVenueApproval(ctx context.Context, id int64, approved bool) (Venue, error) {
	n, err := r.q.SetVenueApproval(ctx, dbgen.SetVenueApprovalParams{IsApproved: approved, ID: id})
	if err != nil {
		return Venue{}, fmt.Errorf("set venue approval: %w", err)
	}
	if n == 0 {
		return Venue{}, apperr.NotFound("venue", id)
	}
	log.Ctx(ctx).Info().Int64("venue_id", id).Bool("approved", approved).Msg("Venue approval updated")
	return r.GetVenue(ctx, id)
}

func (r *Registry) CreateCourt(ctx context.Context, venueID int64, in CourtInput) (Court, error) {
	if err := in.Validate(); err != nil {
		return Court{}, err
	}
	if _, err := r.GetVenue(ctx, venueID); err != nil {
		return Court{}, err
	}
	start, end := in.normalizedHours()
	id, err := r.q.CreateCourt(ctx, dbgen.CreateCourtParams{
		VenueID:        venueID,
		Name:           strings.TrimSpace(in.Name),
		SportType:      strings.TrimSpace(in.SportType),
		Capacity:       in.Capacity,
		OperatingStart: start,
		OperatingEnd:   end,
		PricePerHour:   in.PricePerHour,
		PriceWeekday:   nullInt(in.PriceWeekday),
		PriceWeekend:   nullInt(in.PriceWeekend),
		PricePeakHours: nullInt(in.PricePeakHours),
	})
	if err != nil {
		return Court{}, fmt.Errorf("create court: %w", err)
	}
	log.Ctx(ctx).Info().Int64("court_id", id).Int64("venue_id", venueID).Msg("Court created")
	return r.GetCourt(ctx, id)
}

func (r *Registry) UpdateCourt(ctx context.Context, id int64, in CourtInput) (Court, error) {
	if err := in.Validate(); err != nil {
		return Court{}, err
	}
	start, end := in.normalizedHours()
	n, err := r.q.UpdateCourt(ctx, dbgen.UpdateCourtParams{
		Name:           strings.TrimSpace(in.Name),
		SportType:      strings.TrimSpace(in.SportType),
		Capacity:       in.Capacity,
		OperatingStart: start,
		OperatingEnd:   end,
		PricePerHour:   in.PricePerHour,
		PriceWeekday:   nullInt(in.PriceWeekday),
		PriceWeekend:   nullInt(in.PriceWeekend),
		PricePeakHours: nullInt(in.PricePeakHours),
		ID:             id,
	})
	if err != nil {
		return Court{}, fmt.Errorf("update court: %w", err)
	}
	if n == 0 {
		return Court{}, apperr.NotFound("court", id)
	}
	return r.GetCourt(ctx, id)
}

// SetCourtActive soft-deactivates or reactivates a court. Courts are never deleted.
func (r *Registry) SetCourtActive(ctx context.Context, id int64, active bool) (Court, error) {
	n, err := r.q.SetCourtActive(ctx, dbgen.SetCourtActiveParams{IsActive: active, ID: id})
	if err != nil {
		return Court{}, fmt.Errorf("set court active: %w", err)
	}
	if n == 0 {
		return Court{}, apperr.NotFound("court", id)
	}
	log.Ctx(ctx).Info().Int64("court_id", id).Bool("active", active).Msg("Court activity updated")
	return r.GetCourt(ctx, id)
}

func (r *Registry) SetMaintenanceMode(ctx context.Context, id int64, enabled bool) (Court, error) {
	n, err := r.q.SetCourtMaintenance(ctx, dbgen.SetCourtMaintenanceParams{MaintenanceMode: enabled, ID: id})
	if err != nil {
		return Court{}, fmt.Errorf("set court maintenance: %w", err)
	}
	if n == 0 {
		return Court{}, apperr.NotFound("court", id)
	}
	log.Ctx(ctx).Info().Int64("court_id", id).Bool("maintenance", enabled).Msg("Court maintenance mode updated")
	return r.GetCourt(ctx, id)
}

// GetCourt returns the court with its venue timezone applied.
func (r *Registry) GetCourt(ctx context.Context, id int64) (Court, error) {
	court, _, err := Load(ctx, r.q, id)
	return court, err
}

// CourtWithVenue returns the court and its owning venue.
func (r *Registry) CourtWithVenue(ctx context.Context, id int64) (Court, Venue, error) {
	return Load(ctx, r.q, id)
}

func (r *Registry) ListCourts(ctx context.Context, venueID int64) ([]Court, error) {
	venue, err := r.GetVenue(ctx, venueID)
	if err != nil {
		return nil, err
	}
	rows, err := r.q.ListCourtsByVenue(ctx, venueID)
	if err != nil {
		return nil, fmt.Errorf("list courts: %w", err)
	}
	courts := make([]Court, 0, len(rows))
	for _, row := range rows {
		court := courtFromDB(row)
		court.Location = venue.Location
		courts = append(courts, court)
	}
	return courts, nil
}

// Load resolves a court and its venue through q.
func Load(ctx context.Context, q Reader, id int64) (Court, Venue, error) {
	row, err := q.GetCourt(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Court{}, Venue{}, apperr.NotFound("court", id)
		}
		return Court{}, Venue{}, fmt.Errorf("get court %d: %w", id, err)
	}
	venueRow, err := q.GetVenue(ctx, row.VenueID)
	if err != nil {
		return Court{}, Venue{}, fmt.Errorf("get venue %d for court %d: %w", row.VenueID, id, err)
	}
	venue := venueFromDB(venueRow)
	court := courtFromDB(row)
	court.Location = venue.Location
	return court, venue, nil
}

// LoadBookableCourt is Load plus the checks that gate new bookings: the court
// must be active, out of maintenance and owned by an approved venue.
func LoadBookableCourt(ctx context.Context, q Reader, id int64) (Court, Venue, error) {
	court, venue, err := Load(ctx, q, id)
	if err != nil {
		return Court{}, Venue{}, err
	}
	switch {
	case !court.IsActive:
		return Court{}, Venue{}, fmt.Errorf("court %d is inactive: %w", id, apperr.ErrVenueNotBookable)
	case court.MaintenanceMode:
		return Court{}, Venue{}, fmt.Errorf("court %d is under maintenance: %w", id, apperr.ErrVenueNotBookable)
	case !venue.IsApproved:
		return Court{}, Venue{}, fmt.Errorf("venue %d is not approved: %w", venue.ID, apperr.ErrVenueNotBookable)
	}
	return court, venue, nil
}
