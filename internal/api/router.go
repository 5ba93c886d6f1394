package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/clinicbook/clinic-booking/internal/auth"
	"github.com/clinicbook/clinic-booking/internal/booking"
	"github.com/clinicbook/clinic-booking/internal/metrics"
	"github.com/clinicbook/clinic-booking/internal/patient"
	"github.com/clinicbook/clinic-booking/internal/slot"
)

type RouterConfig struct {
	Bookings       *booking.Service
	Slots          slot.Registry
	Auth           *auth.Service
	Patients       patient.Repository
	Metrics        *metrics.BookingMetrics
	PgPool         *pgxpool.Pool
	Redis          *redis.Client
	Logger         *zap.Logger
	Env            string
	Version        string
	BookingHorizon time.Duration
	AuthRateLimit  int
	CORSOrigins    []string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health and metrics endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		// Auth endpoints, rate limited per IP
		r.Group(func(r chi.Router) {
			r.Use(httprate.LimitByIP(cfg.AuthRateLimit, time.Minute))
			r.Post("/register", registerHandler(cfg.Auth))
			r.Post("/login", loginHandler(cfg.Auth))
		})

		// Slot listings are public
		r.Get("/slots", listSlotsHandler(cfg.Slots, cfg.BookingHorizon))
		r.Get("/slots/today", todaySlotsHandler(cfg.Slots))
		r.Get("/slots/next-week", nextWeekSlotsHandler(cfg.Slots, cfg.BookingHorizon))

		// Everything below requires a session
		r.Group(func(r chi.Router) {
			r.Use(cfg.Auth.Authenticate)

			r.Get("/me", meHandler(cfg.Patients))
			r.Delete("/bookings/{id}", cancelBookingHandler(cfg.Bookings, cfg.Metrics))

			r.Group(func(r chi.Router) {
				r.Use(auth.RequirePatient)
				r.Post("/book", bookHandler(cfg.Bookings, cfg.Metrics))
				r.Get("/my-bookings", myBookingsHandler(cfg.Bookings))
			})

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin)
				r.Get("/all-bookings", allBookingsHandler(cfg.Bookings))
				r.Patch("/bookings/{id}/status", updateBookingStatusHandler(cfg.Bookings, cfg.Metrics))
			})
		})
	})

	return r
}
