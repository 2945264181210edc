// internal/api/slots/handlers.go
package slots

import (
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/quickcourt/internal/api/apiutil"
	"github.com/codr1/quickcourt/internal/apperr"
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

type blockRequest struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"startTime" validate:"required"`
	EndTime   string `json:"endTime" validate:"required"`
	Reason    string `json:"reason" validate:"max=500"`
}

type bulkRequest struct {
	From        string   `json:"from" validate:"required,datetime=2006-01-02"`
	To          string   `json:"to" validate:"required,datetime=2006-01-02"`
	StartTime   string   `json:"startTime" validate:"required"`
	EndTime     string   `json:"endTime" validate:"required"`
	Action      string   `json:"action" validate:"required,oneof=make_available block set_maintenance"`
	ExcludeDays []string `json:"excludeDays"`
	Reason      string   `json:"reason" validate:"max=500"`
}

type pricingRequest struct {
	From      string `json:"from" validate:"required,datetime=2006-01-02"`
	To        string `json:"to" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"startTime" validate:"required"`
	EndTime   string `json:"endTime" validate:"required"`
	Price     *int64 `json:"price" validate:"omitempty,min=0"`
}

type countResponse struct {
	CourtID int64 `json:"courtId"`
	Updated int   `json:"updated"`
}

// POST /api/v1/owner/courts/{id}/slots/block
func HandleBlock(w http.ResponseWriter, r *http.Request) {
	court, ok := apiutil.LoadOwnedCourt(w, r, registry)
	if !ok {
		return
	}
	var req blockRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	date, err := timeslot.ParseDate(req.Date)
	if err != nil {
		apiutil.WriteError(w, r, apperr.Field("date", "must be a YYYY-MM-DD date"))
		return
	}
	window, err := parseWindow(req.StartTime, req.EndTime)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	n, err := slotLedger.Block(r.Context(), ledger.BlockRequest{
		CourtID: court.ID,
		Date:    date,
		Window:  window,
		Reason:  req.Reason,
	})
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, countResponse{CourtID: court.ID, Updated: n})
}

// POST /api/v1/owner/courts/{id}/slots/bulk
func HandleBulk(w http.ResponseWriter, r *http.Request) {
	court, ok := apiutil.LoadOwnedCourt(w, r, registry)
	if !ok {
		return
	}
	var req bulkRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	from, to, err := parseRange(req.From, req.To)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	window, err := parseWindow(req.StartTime, req.EndTime)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	action, err := ledger.ParseAction(req.Action)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	result, err := slotLedger.ApplyBulk(r.Context(), ledger.BulkRequest{
		CourtID:         court.ID,
		From:            from,
		To:              to,
		Window:          window,
		Action:          action,
		ExcludeWeekdays: req.ExcludeDays,
		Reason:          req.Reason,
	})
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// PUT /api/v1/owner/courts/{id}/slots/pricing
func HandlePricing(w http.ResponseWriter, r *http.Request) {
	court, ok := apiutil.LoadOwnedCourt(w, r, registry)
	if !ok {
		return
	}
	var req pricingRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	from, to, err := parseRange(req.From, req.To)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	window, err := parseWindow(req.StartTime, req.EndTime)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	n, err := slotLedger.SetCustomPrices(r.Context(), court.ID, from, to, window, req.Price)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, countResponse{CourtID: court.ID, Updated: n})
}

// GET /api/v1/owner/courts/{id}/slots/calendar?from=&to=
func HandleCalendar(w http.ResponseWriter, r *http.Request) {
	court, ok := apiutil.LoadOwnedCourt(w, r, registry)
	if !ok {
		return
	}
	from, _, err := apiutil.QueryDate(r, "from", true)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	to, ok, err := apiutil.QueryDate(r, "to", false)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if !ok {
		to = from
	}

	days, err := slotLedger.Calendar(r.Context(), court.ID, from, to)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"courtId": court.ID, "days": days})
}

func parseWindow(start, end string) (timeslot.Interval, error) {
	iv, err := timeslot.ParseInterval(start, end)
	if err != nil {
		return timeslot.Interval{}, apperr.Interval("%v", err)
	}
	return iv, nil
}

func parseRange(fromRaw, toRaw string) (from, to time.Time, err error) {
	if from, err = timeslot.ParseDate(fromRaw); err != nil {
		return from, to, apperr.Field("from", "must be a YYYY-MM-DD date")
	}
	if to, err = timeslot.ParseDate(toRaw); err != nil {
		return from, to, apperr.Field("to", "must be a YYYY-MM-DD date")
	}
	return from, to, nil
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	if err := apiutil.WriteJSON(w, status, payload); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write response")
	}
}
