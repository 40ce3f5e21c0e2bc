package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/md-rashed-zaman/slotbook/libs/auth"
	"github.com/md-rashed-zaman/slotbook/libs/httpx"
	"github.com/md-rashed-zaman/slotbook/libs/runtime"
)

// RouterConfig collects everything the HTTP surface is built from.
type RouterConfig struct {
	Public      *PublicHandler
	Host        *HostHandler
	Verifier    *auth.Verifier
	Limiter     httpx.Limiter
	LimiterOpen bool
	ReadyChecks []runtime.ReadyCheck
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", runtime.Healthz)
	r.Get("/readyz", runtime.Readyz(cfg.ReadyChecks...))

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if cfg.Limiter != nil {
				r.Use(httpx.RateLimit(cfg.Limiter, cfg.Public.logger, cfg.LimiterOpen))
			}
			r.Use(auth.OptionalHost(cfg.Verifier))

			r.Get("/event-types/{id}/slots", cfg.Public.Slots)
			r.Get("/event-types/{id}/dates", cfg.Public.Dates)
			r.Post("/event-types/{id}/bookings", cfg.Public.Create)
			r.Post("/bookings/{id}/reschedule", cfg.Public.Reschedule)
			r.Post("/bookings/{id}/cancel", cfg.Public.Cancel)
			r.Get("/bookings/{id}/calendar.ics", cfg.Public.Calendar)
		})

		r.Route("/host", func(r chi.Router) {
			r.Use(auth.RequireHost(cfg.Verifier))

			r.Get("/availability", cfg.Host.GetAvailability)
			r.Put("/availability", cfg.Host.PutAvailability)
			r.Get("/overrides", cfg.Host.ListOverrides)
			r.Post("/overrides", cfg.Host.CreateOverride)
			r.Delete("/overrides/{id}", cfg.Host.DeleteOverride)
			r.Get("/event-types", cfg.Host.ListEventTypes)
			r.Post("/event-types", cfg.Host.CreateEventType)
			r.Put("/event-types/{id}", cfg.Host.UpdateEventType)
			r.Get("/bookings", cfg.Host.ListBookings)
			r.Post("/bookings/{id}/no-show", cfg.Host.MarkNoShow)
		})
	})
	return r
}
