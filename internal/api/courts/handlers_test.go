package courts

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

	"github.com/codr1/quickcourt/internal/api/authz"
	"github.com/codr1/quickcourt/internal/cache"
	"github.com/codr1/quickcourt/internal/courts"
	"github.com/codr1/quickcourt/internal/db"
	"github.com/codr1/quickcourt/internal/ledger"
	"github.com/codr1/quickcourt/internal/pricing"
	"github.com/codr1/quickcourt/internal/testutil"
)

var (
	owner      = &authz.AuthUser{ID: 900, Role: authz.RoleOwner}
	otherOwner = &authz.AuthUser{ID: 901, Role: authz.RoleOwner}
	customer   = &authz.AuthUser{ID: 100, Role: authz.RoleCustomer}
	admin      = &authz.AuthUser{ID: 1, Role: authz.RoleAdmin}
)

func setupCourtsTest(t *testing.T) *db.DB {
	t.Helper()

	database := testutil.NewTestDB(t)
	now := func() time.Time { return time.Date(2030, 3, 1, 9, 0, 0, 0, time.UTC) }
	l := ledger.New(database, pricing.NewResolver(courts.DefaultPeakWindow),
		ledger.WithClock(now),
		ledger.WithCache(cache.NewMemoryStore(), time.Minute),
	)

	registry, slotLedger = nil, nil
	handlerOnce = sync.Once{}
	InitHandlers(courts.NewRegistry(database.Queries, "Asia/Kolkata"), l)

	t.Cleanup(func() {
		registry, slotLedger = nil, nil
		handlerOnce = sync.Once{}
	})
	return database
}

func do(t *testing.T, h http.HandlerFunc, method, target, body string, user *authz.AuthUser, id int64) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if id != 0 {
		req.SetPathValue("id", strconv.FormatInt(id, 10))
	}
	if user != nil {
		req = req.WithContext(authz.ContextWithUser(req.Context(), user))
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode %T: %v", v, err)
	}
	return v
}

const courtBody = `{"name":"Court A","sportType":"badminton","capacity":4,
	"operatingStart":"06:00","operatingEnd":"22:00","pricePerHour":500}`

func TestVenueAndCourtLifecycle(t *testing.T) {
	setupCourtsTest(t)

	rec := do(t, HandleCreateVenue, "POST", "/api/v1/venues", `{"name":"Lakeside Club"}`, owner, 0)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create venue: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	venue := decode[courts.Venue](t, rec)
	if venue.IsApproved || venue.OwnerID != owner.ID || venue.Timezone != "Asia/Kolkata" {
		t.Fatalf("unexpected venue: %+v", venue)
	}

	rec = do(t, HandleCreateCourt, "POST", "/api/v1/venues/x/courts", courtBody, otherOwner, venue.ID)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("other owner: expected 403, got %d", rec.Code)
	}

	rec = do(t, HandleCreateCourt, "POST", "/api/v1/venues/x/courts", courtBody, owner, venue.ID)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create court: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	court := decode[courts.Court](t, rec)

	// Unapproved venues do not expose availability.
	rec = do(t, HandleAvailability, "GET", "/api/v1/courts/x/availability?date=2030-03-05", "", nil, court.ID)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unapproved venue: expected 422, got %d", rec.Code)
	}

	rec = do(t, HandleVenueApproval, "PUT", "/api/v1/admin/venues/x/approval", `{"approved":true}`, owner, venue.ID)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("owner approval: expected 403, got %d", rec.Code)
	}
	rec = do(t, HandleVenueApproval, "PUT", "/api/v1/admin/venues/x/approval", `{}`, admin, venue.ID)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing flag: expected 400, got %d", rec.Code)
	}
	rec = do(t, HandleVenueApproval, "PUT", "/api/v1/admin/venues/x/approval", `{"approved":true}`, admin, venue.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if v := decode[courts.Venue](t, rec); !v.IsApproved {
		t.Fatal("venue should be approved")
	}

	rec = do(t, HandleListCourts, "GET", "/api/v1/venues/x/courts", "", nil, venue.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("list courts: expected 200, got %d", rec.Code)
	}
	list := decode[struct {
		Courts []courts.Court `json:"courts"`
	}](t, rec)
	if len(list.Courts) != 1 || list.Courts[0].ID != court.ID {
		t.Fatalf("unexpected courts: %+v", list.Courts)
	}

	rec = do(t, HandleListOwnVenues, "GET", "/api/v1/owner/venues", "", owner, 0)
	venues := decode[struct {
		Venues []courts.Venue `json:"venues"`
	}](t, rec)
	if len(venues.Venues) != 1 {
		t.Fatalf("expected one owned venue, got %d", len(venues.Venues))
	}
}

func TestCreateVenueRoles(t *testing.T) {
	setupCourtsTest(t)

	rec := do(t, HandleCreateVenue, "POST", "/api/v1/venues", `{"name":"Lakeside Club"}`, customer, 0)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("customer: expected 403, got %d", rec.Code)
	}

	rec = do(t, HandleCreateVenue, "POST", "/api/v1/venues", `{"name":"Lakeside Club","ownerId":77}`, admin, 0)
	if rec.Code != http.StatusCreated {
		t.Fatalf("admin: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if v := decode[courts.Venue](t, rec); v.OwnerID != 77 {
		t.Fatalf("admin should assign the owner, got %d", v.OwnerID)
	}

	rec = do(t, HandleCreateVenue, "POST", "/api/v1/venues", `{"name":"Lakeside Club","ownerId":77}`, owner, 0)
	if v := decode[courts.Venue](t, rec); v.OwnerID != owner.ID {
		t.Fatalf("owners always own what they create, got %d", v.OwnerID)
	}

	rec = do(t, HandleCreateVenue, "POST", "/api/v1/venues", `{"name":"Lakeside Club","timezone":"Mars/Olympus"}`, owner, 0)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad timezone: expected 400, got %d", rec.Code)
	}
}

func TestCreateCourtValidation(t *testing.T) {
	database := setupCourtsTest(t)
	venue := testutil.SeedVenue(t, database, testutil.VenueOpts{OwnerID: owner.ID})

	tests := []struct {
		name string
		body string
	}{
		{"hours reversed", `{"name":"A","sportType":"tennis","capacity":2,"operatingStart":"22:00","operatingEnd":"06:00"}`},
		{"half hour", `{"name":"A","sportType":"tennis","capacity":2,"operatingStart":"06:30","operatingEnd":"22:00"}`},
		{"zero capacity", `{"name":"A","sportType":"tennis","capacity":0,"operatingStart":"06:00","operatingEnd":"22:00"}`},
		{"negative peak", `{"name":"A","sportType":"tennis","capacity":2,"operatingStart":"06:00","operatingEnd":"22:00","pricePeakHours":-1}`},
		{"unknown field", `{"name":"A","sportType":"tennis","capacity":2,"operatingStart":"06:00","operatingEnd":"22:00","surface":"clay"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, HandleCreateCourt, "POST", "/api/v1/venues/x/courts", tt.body, owner, venue.ID)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestAvailability(t *testing.T) {
	database := setupCourtsTest(t)
	venue := testutil.SeedVenue(t, database, testutil.VenueOpts{OwnerID: owner.ID})
	court := testutil.SeedCourt(t, database, venue.ID, testutil.CourtOpts{})
	testutil.SeedBooking(t, database, court, testutil.BookingOpts{
		Date: "2030-03-05", Start: "10:00", End: "12:00", Hours: 2, Amount: 1000,
	})

	rec := do(t, HandleAvailability, "GET", "/api/v1/courts/x/availability?date=2030-03-05", "", nil, court.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[availabilityResponse](t, rec)
	if resp.Date != "2030-03-05" || len(resp.Slots) != 16 {
		t.Fatalf("expected 16 slots on 2030-03-05, got %d on %s", len(resp.Slots), resp.Date)
	}
	for _, s := range resp.Slots {
		booked := s.Start == "10:00" || s.Start == "11:00"
		if booked && (s.Status != ledger.StatusReserved || s.Bookable) {
			t.Errorf("%s should be reserved, got %+v", s.Start, s)
		}
		if !booked && (s.Status != ledger.StatusAvailable || !s.Bookable || s.Price != 500) {
			t.Errorf("%s should be open at 500, got %+v", s.Start, s)
		}
		if s.BookingID != nil {
			t.Errorf("public availability must not expose booking ids, got %+v", s)
		}
	}

	tests := []struct {
		name   string
		target string
		id     int64
		status int
	}{
		{"missing date", "/api/v1/courts/x/availability", court.ID, http.StatusBadRequest},
		{"bad date", "/api/v1/courts/x/availability?date=tomorrow", court.ID, http.StatusBadRequest},
		{"unknown court", "/api/v1/courts/x/availability?date=2030-03-05", 9999, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, HandleAvailability, "GET", tt.target, "", nil, tt.id)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
		})
	}
}

func TestCourtChangesInvalidateAvailability(t *testing.T) {
	database := setupCourtsTest(t)
	venue := testutil.SeedVenue(t, database, testutil.VenueOpts{OwnerID: owner.ID})
	court := testutil.SeedCourt(t, database, venue.ID, testutil.CourtOpts{})

	availability := func() availabilityResponse {
		t.Helper()
		rec := do(t, HandleAvailability, "GET", "/api/v1/courts/x/availability?date=2030-03-05", "", nil, court.ID)
		if rec.Code != http.StatusOK {
			t.Fatalf("availability: expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		return decode[availabilityResponse](t, rec)
	}

	// Prime the cache.
	if got := availability().Slots[0].Price; got != 500 {
		t.Fatalf("expected 500, got %d", got)
	}

	body := `{"name":"Court 1","sportType":"badminton","capacity":4,
		"operatingStart":"08:00","operatingEnd":"20:00","pricePerHour":650}`
	rec := do(t, HandleUpdateCourt, "PUT", "/api/v1/courts/x", body, otherOwner, court.ID)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("other owner update: expected 403, got %d", rec.Code)
	}
	rec = do(t, HandleUpdateCourt, "PUT", "/api/v1/courts/x", body, owner, court.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := availability()
	if len(resp.Slots) != 12 || resp.Slots[0].Start != "08:00" || resp.Slots[0].Price != 650 {
		t.Fatalf("availability should reflect new hours and price, got %d slots starting %+v", len(resp.Slots), resp.Slots[0])
	}

	rec = do(t, HandleCourtStatus, "PUT", "/api/v1/courts/x/status", `{"maintenanceMode":true}`, owner, court.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if c := decode[courts.Court](t, rec); !c.MaintenanceMode || !c.IsActive {
		t.Fatalf("unexpected court: %+v", c)
	}
	for _, s := range availability().Slots {
		if s.Status != ledger.StatusMaintenance || s.Bookable {
			t.Fatalf("expected maintenance slots, got %+v", s)
		}
	}

	rec = do(t, HandleCourtStatus, "PUT", "/api/v1/courts/x/status", `{}`, owner, court.ID)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty status: expected 400, got %d", rec.Code)
	}

	rec = do(t, HandleCourtStatus, "PUT", "/api/v1/courts/x/status", `{"isActive":false}`, owner, court.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("deactivate: expected 200, got %d", rec.Code)
	}
	rec = do(t, HandleAvailability, "GET", "/api/v1/courts/x/availability?date=2030-03-05", "", nil, court.ID)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("inactive court: expected 422, got %d", rec.Code)
	}
}
