package bookings

// NOTE: Tests cannot use t.Parallel() due to shared package state.

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/codr1/quickcourt/internal/api/apiutil"
	"github.com/codr1/quickcourt/internal/api/authz"
	"github.com/codr1/quickcourt/internal/booking"
	"github.com/codr1/quickcourt/internal/courts"
	dbgen "github.com/codr1/quickcourt/internal/db/generated"
	"github.com/codr1/quickcourt/internal/ledger"
	"github.com/codr1/quickcourt/internal/payment"
	"github.com/codr1/quickcourt/internal/pricing"
	"github.com/codr1/quickcourt/internal/ratelimit"
	"github.com/codr1/quickcourt/internal/testutil"
)

const venueOwnerID = 900

var (
	customer   = &authz.AuthUser{ID: 100, Role: authz.RoleCustomer, Email: "asha@example.com"}
	other      = &authz.AuthUser{ID: 101, Role: authz.RoleCustomer}
	venueOwner = &authz.AuthUser{ID: venueOwnerID, Role: authz.RoleOwner}
	otherOwner = &authz.AuthUser{ID: 901, Role: authz.RoleOwner}
)

func setupBookingsTest(t *testing.T, perCustomer int) dbgen.Court {
	t.Helper()

	database := testutil.NewTestDB(t)
	venue := testutil.SeedVenue(t, database, testutil.VenueOpts{OwnerID: venueOwnerID})
	court := testutil.SeedCourt(t, database, venue.ID, testutil.CourtOpts{})

	now := func() time.Time { return time.Date(2030, 3, 1, 9, 0, 0, 0, time.UTC) }
	l := ledger.New(database, pricing.NewResolver(courts.DefaultPeakWindow), ledger.WithClock(now))
	svc := booking.NewService(database, l, payment.NewSimulatedGateway(), booking.WithClock(now))
	lim := ratelimit.New(&ratelimit.Config{Window: time.Minute, MaxPerCustomer: perCustomer, MaxPerIP: 1000})

	service, registry, limiter, trustProxy = nil, nil, nil, false
	handlerOnce = sync.Once{}
	InitHandlers(svc, courts.NewRegistry(database.Queries, "UTC"), lim, false)

	t.Cleanup(func() {
		lim.Close()
		service, registry, limiter = nil, nil, nil
		handlerOnce = sync.Once{}
	})
	return court
}

func do(t *testing.T, h http.HandlerFunc, method, target, body string, user *authz.AuthUser, id string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	if id != "" {
		req.SetPathValue("id", id)
	}
	if user != nil {
		req = req.WithContext(authz.ContextWithUser(req.Context(), user))
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func createBody(courtID int64, start, end string) string {
	b, _ := json.Marshal(map[string]any{
		"courtId":      courtID,
		"date":         "2030-03-05",
		"startTime":    start,
		"endTime":      end,
		"paymentToken": "tok_visa",
	})
	return string(b)
}

func decodeBooking(t *testing.T, rec *httptest.ResponseRecorder) booking.Booking {
	t.Helper()
	var b booking.Booking
	if err := json.NewDecoder(rec.Body).Decode(&b); err != nil {
		t.Fatalf("decode booking: %v", err)
	}
	return b
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apiutil.ErrorResponse {
	t.Helper()
	var e apiutil.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&e); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return e
}

func TestCreateBookingFlow(t *testing.T) {
	court := setupBookingsTest(t, 2)

	rec := do(t, HandleCreateBooking, "POST", "/api/v1/bookings", createBody(court.ID, "10:00", "12:00"), customer, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	b := decodeBooking(t, rec)
	if b.Status != booking.StatusConfirmed || b.TotalAmount != 1000 || b.CustomerID != customer.ID {
		t.Fatalf("unexpected booking: %+v", b)
	}

	rec = do(t, HandleCreateBooking, "POST", "/api/v1/bookings", createBody(court.ID, "11:00", "13:00"), customer, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for overlap, got %d: %s", rec.Code, rec.Body.String())
	}
	if e := decodeError(t, rec); e.Code != "slot_unavailable" {
		t.Fatalf("expected slot_unavailable, got %+v", e)
	}

	rec = do(t, HandleCreateBooking, "POST", "/api/v1/bookings", createBody(court.ID, "14:00", "15:00"), customer, "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}

	// Other customers have their own budget.
	rec = do(t, HandleCreateBooking, "POST", "/api/v1/bookings", createBody(court.ID, "14:00", "15:00"), other, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 for other customer, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateBookingRejections(t *testing.T) {
	tests := []struct {
		name   string
		user   *authz.AuthUser
		body   func(courtID int64) string
		status int
		code   string
	}{
		{
			name:   "anonymous",
			body:   func(id int64) string { return createBody(id, "10:00", "11:00") },
			status: http.StatusUnauthorized,
			code:   "unauthenticated",
		},
		{
			name:   "owner cannot book",
			user:   venueOwner,
			body:   func(id int64) string { return createBody(id, "10:00", "11:00") },
			status: http.StatusForbidden,
			code:   "forbidden",
		},
		{
			name:   "missing court",
			user:   customer,
			body:   func(int64) string { return `{"date":"2030-03-05","startTime":"10:00","endTime":"11:00"}` },
			status: http.StatusBadRequest,
			code:   "invalid_input",
		},
		{
			name: "malformed date",
			user: customer,
			body: func(id int64) string {
				return strings.Replace(createBody(id, "10:00", "11:00"), "2030-03-05", "05/03/2030", 1)
			},
			status: http.StatusBadRequest,
			code:   "invalid_input",
		},
		{
			name:   "before opening",
			user:   customer,
			body:   func(id int64) string { return createBody(id, "05:00", "06:00") },
			status: http.StatusUnprocessableEntity,
			code:   "out_of_operating_hours",
		},
		{
			name:   "end before start",
			user:   customer,
			body:   func(id int64) string { return createBody(id, "12:00", "10:00") },
			status: http.StatusBadRequest,
			code:   "invalid_interval",
		},
		{
			name: "declined card",
			user: customer,
			body: func(id int64) string {
				return strings.Replace(createBody(id, "10:00", "11:00"), "tok_visa", payment.DeclineToken, 1)
			},
			status: http.StatusPaymentRequired,
			code:   "payment_failed",
		},
		{
			name:   "unknown court",
			user:   customer,
			body:   func(int64) string { return createBody(9999, "10:00", "11:00") },
			status: http.StatusNotFound,
			code:   "not_found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			court := setupBookingsTest(t, 100)
			rec := do(t, HandleCreateBooking, "POST", "/api/v1/bookings", tt.body(court.ID), tt.user, "")
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			if e := decodeError(t, rec); e.Code != tt.code {
				t.Fatalf("expected code %q, got %+v", tt.code, e)
			}
		})
	}
}

func TestCancelBooking(t *testing.T) {
	court := setupBookingsTest(t, 100)
	b := decodeBooking(t, do(t, HandleCreateBooking, "POST", "/api/v1/bookings", createBody(court.ID, "18:00", "19:00"), customer, ""))
	id := itoa(b.ID)

	rec := do(t, HandleCancelBooking, "POST", "/api/v1/bookings/"+id+"/cancel", "", other, id)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another customer's booking, got %d", rec.Code)
	}

	rec = do(t, HandleCancelBooking, "POST", "/api/v1/bookings/"+id+"/cancel", "", customer, id)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	cancelled := decodeBooking(t, rec)
	if cancelled.Status != booking.StatusCancelled || cancelled.PaymentStatus != booking.PaymentRefunded {
		t.Fatalf("unexpected booking after cancel: %+v", cancelled)
	}

	rec = do(t, HandleCancelBooking, "POST", "/api/v1/bookings/"+id+"/cancel", "", customer, id)
	if rec.Code != http.StatusOK {
		t.Fatalf("repeat cancel should be idempotent, got %d", rec.Code)
	}
}

func TestGetBookingVisibility(t *testing.T) {
	court := setupBookingsTest(t, 100)
	b := decodeBooking(t, do(t, HandleCreateBooking, "POST", "/api/v1/bookings", createBody(court.ID, "10:00", "11:00"), customer, ""))
	id := itoa(b.ID)

	tests := []struct {
		name   string
		user   *authz.AuthUser
		status int
	}{
		{"booking customer", customer, http.StatusOK},
		{"venue owner", venueOwner, http.StatusOK},
		{"other customer", other, http.StatusNotFound},
		{"other owner", otherOwner, http.StatusNotFound},
		{"admin", &authz.AuthUser{ID: 1, Role: authz.RoleAdmin}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, HandleGetBooking, "GET", "/api/v1/bookings/"+id, "", tt.user, id)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestOwnerCancelBooking(t *testing.T) {
	court := setupBookingsTest(t, 100)
	b := decodeBooking(t, do(t, HandleCreateBooking, "POST", "/api/v1/bookings", createBody(court.ID, "10:00", "11:00"), customer, ""))
	id := itoa(b.ID)

	rec := do(t, HandleOwnerCancelBooking, "POST", "/api/v1/owner/bookings/"+id+"/cancel", `{"reason":"flooding"}`, otherOwner, id)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for another owner, got %d", rec.Code)
	}

	rec = do(t, HandleOwnerCancelBooking, "POST", "/api/v1/owner/bookings/"+id+"/cancel", `{}`, venueOwner, id)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without reason, got %d", rec.Code)
	}

	rec = do(t, HandleOwnerCancelBooking, "POST", "/api/v1/owner/bookings/"+id+"/cancel", `{"reason":"flooding"}`, venueOwner, id)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := decodeBooking(t, rec); got.Status != booking.StatusCancelled || got.CancellationReason != "flooding" {
		t.Fatalf("unexpected booking: %+v", got)
	}
}

func TestListBookingsAndSummary(t *testing.T) {
	court := setupBookingsTest(t, 100)
	do(t, HandleCreateBooking, "POST", "/api/v1/bookings", createBody(court.ID, "10:00", "11:00"), customer, "")
	do(t, HandleCreateBooking, "POST", "/api/v1/bookings", createBody(court.ID, "12:00", "13:00"), other, "")

	rec := do(t, HandleListBookings, "GET", "/api/v1/bookings?status=confirmed", "", customer, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var list booking.ListResult
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Total != 1 || len(list.Bookings) != 1 || list.Bookings[0].CustomerID != customer.ID {
		t.Fatalf("customer should only see own bookings: %+v", list)
	}

	rec = do(t, HandleListBookings, "GET", "/api/v1/bookings?status=pending", "", customer, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", rec.Code)
	}

	venueID := itoa(court.VenueID)
	rec = do(t, HandleVenueBookings, "GET", "/api/v1/owner/venues/"+venueID+"/bookings", "", venueOwner, venueID)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	list = booking.ListResult{}
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode venue list: %v", err)
	}
	if list.Total != 2 {
		t.Fatalf("owner should see both bookings, got %d", list.Total)
	}

	rec = do(t, HandleVenueSummary, "GET", "/api/v1/owner/venues/"+venueID+"/summary", "", otherOwner, venueID)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for another owner, got %d", rec.Code)
	}

	rec = do(t, HandleBookingStats, "GET", "/api/v1/bookings/stats", "", customer, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var stats booking.Stats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Total != 1 || stats.TotalSpent != 500 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
