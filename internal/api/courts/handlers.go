// internal/api/courts/handlers.go
package courts

import (
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/codr1/quickcourt/internal/api/apiutil"
	"github.com/codr1/quickcourt/internal/api/authz"
	"github.com/codr1/quickcourt/internal/courts"
	"github.com/codr1/quickcourt/internal/ledger"
	"github.com/codr1/quickcourt/internal/timeslot"
)

var (
	registry    *courts.Registry
	slotLedger  *ledger.Ledger
	handlerOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(r *courts.Registry, l *ledger.Ledger) {
	if r == nil || l == nil {
		return
	}
	handlerOnce.Do(func() {
		registry = r
		slotLedger = l
	})
}

type venueRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Timezone string `json:"timezone"`
	OwnerID  int64  `json:"ownerId"`
}

type approvalRequest struct {
	Approved *bool `json:"approved" validate:"required"`
}

type courtRequest struct {
	Name           string `json:"name" validate:"required,max=100"`
	SportType      string `json:"sportType" validate:"required"`
	Capacity       int64  `json:"capacity" validate:"min=1"`
	OperatingStart string `json:"operatingStart" validate:"required"`
	OperatingEnd   string `json:"operatingEnd" validate:"required"`
	PricePerHour   int64  `json:"pricePerHour" validate:"min=0"`
	PriceWeekday   *int64 `json:"priceWeekday" validate:"omitempty,min=0"`
	PriceWeekend   *int64 `json:"priceWeekend" validate:"omitempty,min=0"`
	PricePeakHours *int64 `json:"pricePeakHours" validate:"omitempty,min=0"`
}

func (c courtRequest) input() courts.CourtInput {
	return courts.CourtInput{
		Name:           c.Name,
		SportType:      c.SportType,
		Capacity:       c.Capacity,
		OperatingStart: c.OperatingStart,
		OperatingEnd:   c.OperatingEnd,
		PricePerHour:   c.PricePerHour,
		PriceWeekday:   c.PriceWeekday,
		PriceWeekend:   c.PriceWeekend,
		PricePeakHours: c.PricePeakHours,
	}
}

type statusRequest struct {
	IsActive        *bool `json:"isActive"`
	MaintenanceMode *bool `json:"maintenanceMode"`
}

type availabilityResponse struct {
	CourtID int64                     `json:"courtId"`
	Date    string                    `json:"date"`
	Slots   []ledger.AvailabilitySlot `json:"slots"`
}

// POST /api/v1/venues
func HandleCreateVenue(w http.ResponseWriter, r *http.Request) {
	user, ok := apiutil.RequireRole(w, r, authz.RoleOwner)
	if !ok {
		return
	}
	var req venueRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	ownerID := user.ID
	if authz.IsAdmin(user) && req.OwnerID > 0 {
		ownerID = req.OwnerID
	}

	venue, err := registry.CreateVenue(r.Context(), courts.VenueInput{
		OwnerID:  ownerID,
		Name:     req.Name,
		Timezone: req.Timezone,
	})
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, venue)
}

// GET /api/v1/owner/venues
func HandleListOwnVenues(w http.ResponseWriter, r *http.Request) {
	user, ok := apiutil.RequireRole(w, r, authz.RoleOwner)
	if !ok {
		return
	}
	venues, err := registry.ListVenues(r.Context(), user.ID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"venues": venues})
}

// PUT /api/v1/admin/venues/{id}/approval
func HandleVenueApproval(w http.ResponseWriter, r *http.Request) {
	if _, ok := apiutil.RequireRole(w, r, authz.RoleAdmin); !ok {
		return
	}
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	var req approvalRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	venue, err := registry.SetVenueApproval(r.Context(), id, *req.Approved)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, venue)
}

// GET /api/v1/venues/{id}/courts
func HandleListCourts(w http.ResponseWriter, r *http.Request) {
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	list, err := registry.ListCourts(r.Context(), id)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"courts": list})
}

// POST /api/v1/venues/{id}/courts
func HandleCreateCourt(w http.ResponseWriter, r *http.Request) {
	venueID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	venue, err := registry.GetVenue(r.Context(), venueID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if _, ok := apiutil.RequireVenueOwner(w, r, venue.OwnerID); !ok {
		return
	}
	var req courtRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	court, err := registry.CreateCourt(r.Context(), venueID, req.input())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, court)
}

// GET /api/v1/courts/{id}
func HandleGetCourt(w http.ResponseWriter, r *http.Request) {
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	court, err := registry.GetCourt(r.Context(), id)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, court)
}

// PUT /api/v1/courts/{id}
func HandleUpdateCourt(w http.ResponseWriter, r *http.Request) {
	court, ok := apiutil.LoadOwnedCourt(w, r, registry)
	if !ok {
		return
	}
	var req courtRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	updated, err := registry.UpdateCourt(r.Context(), court.ID, req.input())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	// Hours and prices feed every cached day of the court.
	slotLedger.InvalidateCourt(r.Context(), court.ID)
	writeJSON(w, r, http.StatusOK, updated)
}

// PUT /api/v1/courts/{id}/status
func HandleCourtStatus(w http.ResponseWriter, r *http.Request) {
	court, ok := apiutil.LoadOwnedCourt(w, r, registry)
	if !ok {
		return
	}
	var req statusRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if req.IsActive == nil && req.MaintenanceMode == nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "isActive or maintenanceMode is required"})
		return
	}

	var err error
	if req.IsActive != nil {
		if court, err = registry.SetCourtActive(r.Context(), court.ID, *req.IsActive); err != nil {
			apiutil.WriteError(w, r, err)
			return
		}
	}
	if req.MaintenanceMode != nil {
		if court, err = registry.SetMaintenanceMode(r.Context(), court.ID, *req.MaintenanceMode); err != nil {
			apiutil.WriteError(w, r, err)
			return
		}
	}
	slotLedger.InvalidateCourt(r.Context(), court.ID)
	writeJSON(w, r, http.StatusOK, court)
}

// GET /api/v1/courts/{id}/availability?date=YYYY-MM-DD
func HandleAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	date, _, err := apiutil.QueryDate(r, "date", true)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	slots, err := slotLedger.Availability(r.Context(), id, date)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, availabilityResponse{
		CourtID: id,
		Date:    timeslot.FormatDate(date),
		Slots:   slots,
	})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	if err := apiutil.WriteJSON(w, status, payload); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write response")
	}
}
