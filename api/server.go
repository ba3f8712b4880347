/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. Metrics:    Prometheus request counters and latency
  5. CORS:       Cross-origin requests for browser clients

ROUTE GROUPS:
  /api/guides/*         Pay guide management
  /api/holidays/*       Stored holiday removal
  /api/shifts/*         Shift recording and pricing
  /api/calculate        Ad-hoc calculation
  /api/periods/*        Pay period resolution and summaries
  /api/scenarios/*      Demo data
  /api/reset            Database reset (dev only)
  /healthz              Liveness and store check
  /metrics              Prometheus scrape endpoint

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterOptions tunes NewRouter.
type RouterOptions struct {
	// AllowedOrigins for CORS. Defaults to local development origins.
	AllowedOrigins []string
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts ...RouterOptions) *chi.Mux {
	var o RouterOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	if len(o.AllowedOrigins) == 0 {
		o.AllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(h.Metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   o.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", h.Metrics.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Guide routes
		r.Route("/guides", func(r chi.Router) {
			r.Get("/", h.ListGuides)
			r.Post("/", h.CreateGuide)
			r.Get("/{id}", h.GetGuide)
			r.Delete("/{id}", h.DeleteGuide)
			r.Get("/{id}/holidays", h.ListGuideHolidays)
			r.Post("/{id}/holidays", h.CreateGuideHoliday)
		})

		r.Delete("/holidays/{id}", h.DeleteHoliday)

		// Shift routes
		r.Route("/shifts", func(r chi.Router) {
			r.Get("/", h.ListShifts)
			r.Post("/", h.CreateShift)
			r.Get("/{id}", h.GetShift)
			r.Delete("/{id}", h.DeleteShift)
			r.Get("/{id}/pay", h.GetShiftPay)
			r.Get("/{id}/calculations", h.ListShiftCalculations)
		})

		r.Post("/calculate", h.Calculate)

		// Period routes
		r.Route("/periods", func(r chi.Router) {
			r.Get("/resolve", h.ResolvePeriod)
			r.Get("/summary", h.PeriodSummary)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})

		r.Post("/reset", h.ResetDatabase)
	})

	return r
}
