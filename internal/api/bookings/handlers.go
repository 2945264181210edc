// internal/api/bookings/handlers.go
package bookings

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/codr1/quickcourt/internal/api/apiutil"
	"github.com/codr1/quickcourt/internal/api/authz"
	"github.com/codr1/quickcourt/internal/apperr"
	"github.com/codr1/quickcourt/internal/booking"
	"github.com/codr1/quickcourt/internal/courts"
	"github.com/codr1/quickcourt/internal/ratelimit"
	"github.com/codr1/quickcourt/internal/timeslot"
)

var (
	service     *booking.Service
	registry    *courts.Registry
	limiter     *ratelimit.Limiter
	trustProxy  bool
	handlerOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
// A nil limiter disables rate limiting of booking creation.
func InitHandlers(svc *booking.Service, reg *courts.Registry, l *ratelimit.Limiter, trustForwarded bool) {
	if svc == nil || reg == nil {
		return
	}
	handlerOnce.Do(func() {
		service = svc
		registry = reg
		limiter = l
		trustProxy = trustForwarded
	})
}

type createRequest struct {
	CourtID       int64  `json:"courtId" validate:"required,gt=0"`
	VenueID       int64  `json:"venueId" validate:"omitempty,gt=0"`
	Date          string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime     string `json:"startTime" validate:"required"`
	EndTime       string `json:"endTime" validate:"required"`
	DurationHours int    `json:"durationHours" validate:"omitempty,min=1"`
	PaymentToken  string `json:"paymentToken"`
	ContactEmail  string `json:"contactEmail" validate:"omitempty,email"`
}

type ownerCancelRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// POST /api/v1/bookings
func HandleCreateBooking(w http.ResponseWriter, r *http.Request) {
	user, ok := apiutil.RequireRole(w, r, authz.RoleCustomer)
	if !ok {
		return
	}

	if limiter != nil {
		ip := ratelimit.ClientIP(r, trustProxy)
		customer := strconv.FormatInt(user.ID, 10)
		if res := limiter.Allow(customer, ip); !res.Allowed {
			ratelimit.LogRateLimitExceeded(r.Context(), customer, ip, res)
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
			apiutil.WriteError(w, r, apiutil.HandlerError{
				Status:  http.StatusTooManyRequests,
				Message: "too many booking attempts, retry later",
			})
			return
		}
	}

	var req createRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	date, err := timeslot.ParseDate(req.Date)
	if err != nil {
		apiutil.WriteError(w, r, apperr.Field("date", "must be a YYYY-MM-DD date"))
		return
	}
	window, err := timeslot.ParseInterval(req.StartTime, req.EndTime)
	if err != nil {
		apiutil.WriteError(w, r, apperr.Interval("%v", err))
		return
	}
	email := strings.TrimSpace(req.ContactEmail)
	if email == "" {
		email = user.Email
	}

	b, err := service.Create(r.Context(), booking.CreateRequest{
		CustomerID:    user.ID,
		ContactEmail:  email,
		VenueID:       req.VenueID,
		CourtID:       req.CourtID,
		Date:          date,
		Window:        window,
		DurationHours: req.DurationHours,
		PaymentToken:  req.PaymentToken,
	})
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, b)
}

// GET /api/v1/bookings
func HandleListBookings(w http.ResponseWriter, r *http.Request) {
	user, ok := apiutil.RequireRole(w, r, authz.RoleCustomer)
	if !ok {
		return
	}
	filter, page, err := parseListQuery(r)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	filter.CustomerID = user.ID
	if authz.IsAdmin(user) {
		if filter.CustomerID, err = apiutil.QueryID(r, "customerId"); err != nil {
			apiutil.WriteError(w, r, err)
			return
		}
	}

	result, err := service.List(r.Context(), filter, page)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// GET /api/v1/bookings/stats
func HandleBookingStats(w http.ResponseWriter, r *http.Request) {
	user, ok := apiutil.RequireRole(w, r, authz.RoleCustomer)
	if !ok {
		return
	}
	stats, err := service.Stats(r.Context(), user.ID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, stats)
}

// GET /api/v1/bookings/{id}
func HandleGetBooking(w http.ResponseWriter, r *http.Request) {
	user, ok := apiutil.RequireRole(w, r, authz.RoleCustomer, authz.RoleOwner)
	if !ok {
		return
	}
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	b, err := service.Get(r.Context(), id)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if err := canView(r, user, b); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, b)
}

// POST /api/v1/bookings/{id}/cancel
func HandleCancelBooking(w http.ResponseWriter, r *http.Request) {
	user, ok := apiutil.RequireRole(w, r, authz.RoleCustomer)
	if !ok {
		return
	}
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	b, err := service.Cancel(r.Context(), id, user.ID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, b)
}

// GET /api/v1/owner/venues/{id}/bookings
func HandleVenueBookings(w http.ResponseWriter, r *http.Request) {
	venue, ok := loadOwnedVenue(w, r)
	if !ok {
		return
	}
	filter, page, err := parseListQuery(r)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	filter.VenueID = venue.ID

	result, err := service.List(r.Context(), filter, page)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// GET /api/v1/owner/venues/{id}/summary
func HandleVenueSummary(w http.ResponseWriter, r *http.Request) {
	venue, ok := loadOwnedVenue(w, r)
	if !ok {
		return
	}
	summary, err := service.VenueSummary(r.Context(), venue.ID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, summary)
}

// POST /api/v1/owner/bookings/{id}/cancel
func HandleOwnerCancelBooking(w http.ResponseWriter, r *http.Request) {
	b, ok := loadOwnedBooking(w, r)
	if !ok {
		return
	}
	var req ownerCancelRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	cancelled, err := service.CancelByOwner(r.Context(), b.ID, req.Reason)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, cancelled)
}

// POST /api/v1/owner/bookings/{id}/complete
func HandleCompleteBooking(w http.ResponseWriter, r *http.Request) {
	b, ok := loadOwnedBooking(w, r)
	if !ok {
		return
	}
	completed, err := service.Complete(r.Context(), b.ID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, completed)
}

// canView lets customers read their own bookings and owners read bookings at
// their venues. Other bookings are reported as missing.
func canView(r *http.Request, user *authz.AuthUser, b booking.Booking) error {
	if authz.IsAdmin(user) || b.CustomerID == user.ID {
		return nil
	}
	if user.Role == authz.RoleOwner {
		venue, err := registry.GetVenue(r.Context(), b.VenueID)
		if err != nil {
			return err
		}
		if venue.OwnerID == user.ID {
			return nil
		}
	}
	return apperr.NotFound("booking", b.ID)
}

func loadOwnedVenue(w http.ResponseWriter, r *http.Request) (courts.Venue, bool) {
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return courts.Venue{}, false
	}
	venue, err := registry.GetVenue(r.Context(), id)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return courts.Venue{}, false
	}
	if _, ok := apiutil.RequireVenueOwner(w, r, venue.OwnerID); !ok {
		return courts.Venue{}, false
	}
	return venue, true
}

func loadOwnedBooking(w http.ResponseWriter, r *http.Request) (booking.Booking, bool) {
	if _, ok := apiutil.RequireRole(w, r, authz.RoleOwner); !ok {
		return booking.Booking{}, false
	}
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return booking.Booking{}, false
	}
	b, err := service.Get(r.Context(), id)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return booking.Booking{}, false
	}
	venue, err := registry.GetVenue(r.Context(), b.VenueID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return booking.Booking{}, false
	}
	if _, ok := apiutil.RequireVenueOwner(w, r, venue.OwnerID); !ok {
		return booking.Booking{}, false
	}
	return b, true
}

func parseListQuery(r *http.Request) (booking.Filter, booking.Page, error) {
	q := r.URL.Query()
	var filter booking.Filter

	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status, ok := booking.ParseStatus(strings.ToLower(raw))
		if !ok {
			return filter, booking.Page{}, apperr.Field("status", "must be confirmed, cancelled or completed")
		}
		filter.Status = status
	}
	for name, dst := range map[string]*string{"from": &filter.From, "to": &filter.To} {
		d, ok, err := apiutil.QueryDate(r, name, false)
		if err != nil {
			return filter, booking.Page{}, err
		}
		if ok {
			*dst = timeslot.FormatDate(d)
		}
	}
	courtID, err := apiutil.QueryID(r, "courtId")
	if err != nil {
		return filter, booking.Page{}, err
	}
	filter.CourtID = courtID

	limit, err := apiutil.QueryInt(r, "limit")
	if err != nil {
		return filter, booking.Page{}, err
	}
	offset, err := apiutil.QueryInt(r, "offset")
	if err != nil {
		return filter, booking.Page{}, err
	}
	return filter, booking.Page{Limit: limit, Offset: offset}, nil
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	if err := apiutil.WriteJSON(w, status, payload); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write response")
	}
}
