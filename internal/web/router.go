package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/plannerd/plannerd"
	"github.com/plannerd/plannerd/calendar/google"
	"github.com/plannerd/plannerd/internal/config"
	"github.com/plannerd/plannerd/internal/metrics"
)

// NewRouter wires the calendar API and connect-flow routes.
func NewRouter(cfg *config.Config, svc CalendarService, client *google.Client, store plannerd.CredentialStore) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.PrometheusEnabled {
		r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			metrics.Handler().ServeHTTP(w, r)
		})
	}

	h := NewHandler(cfg, svc, client, store)

	r.Get("/calendar/connect", h.Connect)
	r.Get("/calendar/callback", h.Callback)

	r.Route("/api/calendar", func(r chi.Router) {
		r.Get("/connection", h.Connection)
		r.Get("/events", h.ListEvents)
		r.Post("/events", h.CreateEvent)
		r.Patch("/events/{eventID}", h.UpdateEvent)
		r.Delete("/events/{eventID}", h.DeleteEvent)
	})

	return r
}
