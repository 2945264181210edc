// cmd/server/server.go
package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/codr1/quickcourt/internal/api"
	"github.com/codr1/quickcourt/internal/api/bookings"
	"github.com/codr1/quickcourt/internal/api/courts"
	"github.com/codr1/quickcourt/internal/api/slots"
	"github.com/codr1/quickcourt/internal/app"
	"github.com/codr1/quickcourt/internal/config"
)

func newServer(cfg *config.Config, a *app.App) *http.Server {
	router := http.NewServeMux()

	// Setup middleware chain
	handler := api.ChainMiddleware(
		router,
		api.WithRoutePattern,
		api.WithAuth(a.Verifier),
		api.WithLogging(a.Metrics),
		api.WithRecovery,
		api.WithRequestID,
	)

	courts.InitHandlers(a.Registry, a.Ledger)
	bookings.InitHandlers(a.Bookings, a.Registry, a.Limiter, cfg.App.TrustProxy)
	slots.InitHandlers(a.Registry, a.Ledger)

	// Register routes
	registerRoutes(router, a)

	return &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux, a *app.App) {
	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := a.DB.PingContext(r.Context()); err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Health check failed")
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if a.Metrics != nil {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	// Venue and court routes
	mux.HandleFunc("POST /api/v1/venues", courts.HandleCreateVenue)
	mux.HandleFunc("GET /api/v1/venues/{id}/courts", courts.HandleListCourts)
	mux.HandleFunc("POST /api/v1/venues/{id}/courts", courts.HandleCreateCourt)
	mux.HandleFunc("PUT /api/v1/admin/venues/{id}/approval", courts.HandleVenueApproval)
	mux.HandleFunc("GET /api/v1/courts/{id}", courts.HandleGetCourt)
	mux.HandleFunc("PUT /api/v1/courts/{id}", courts.HandleUpdateCourt)
	mux.HandleFunc("PUT /api/v1/courts/{id}/status", courts.HandleCourtStatus)
	mux.HandleFunc("GET /api/v1/courts/{id}/availability", courts.HandleAvailability)

	// Customer booking routes
	mux.HandleFunc("POST /api/v1/bookings", bookings.HandleCreateBooking)
	mux.HandleFunc("GET /api/v1/bookings", bookings.HandleListBookings)
	mux.HandleFunc("GET /api/v1/bookings/stats", bookings.HandleBookingStats)
	mux.HandleFunc("GET /api/v1/bookings/{id}", bookings.HandleGetBooking)
	mux.HandleFunc("POST /api/v1/bookings/{id}/cancel", bookings.HandleCancelBooking)

	// Owner routes
	mux.HandleFunc("GET /api/v1/owner/venues", courts.HandleListOwnVenues)
	mux.HandleFunc("GET /api/v1/owner/venues/{id}/bookings", bookings.HandleVenueBookings)
	mux.HandleFunc("GET /api/v1/owner/venues/{id}/summary", bookings.HandleVenueSummary)
	mux.HandleFunc("POST /api/v1/owner/bookings/{id}/cancel", bookings.HandleOwnerCancelBooking)
	mux.HandleFunc("POST /api/v1/owner/bookings/{id}/complete", bookings.HandleCompleteBooking)

	// Slot management routes
	mux.HandleFunc("POST /api/v1/owner/courts/{id}/slots/block", slots.HandleBlock)
	mux.HandleFunc("POST /api/v1/owner/courts/{id}/slots/bulk", slots.HandleBulk)
	mux.HandleFunc("PUT /api/v1/owner/courts/{id}/slots/pricing", slots.HandlePricing)
	mux.HandleFunc("GET /api/v1/owner/courts/{id}/slots/calendar", slots.HandleCalendar)
}
