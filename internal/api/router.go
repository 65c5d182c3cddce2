package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReportTrigger accepts an on-demand report request; false means the
// request queue is full.
type ReportTrigger interface {
	RequestReport(date string) bool
}

// NewRouter creates the command-surface router: the on-demand report
// trigger, liveness, and prometheus metrics.
func NewRouter(trigger ReportTrigger, loc *time.Location) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", HealthHandler())
		r.Post("/reports", NewReportHandler(trigger, loc).Trigger)
	})

	return r
}
