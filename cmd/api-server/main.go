package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/clinicbook/clinic-booking/internal/api"
	"github.com/clinicbook/clinic-booking/internal/auth"
	"github.com/clinicbook/clinic-booking/internal/booking"
	"github.com/clinicbook/clinic-booking/internal/config"
	"github.com/clinicbook/clinic-booking/internal/db"
	"github.com/clinicbook/clinic-booking/internal/logger"
	"github.com/clinicbook/clinic-booking/internal/metrics"
	"github.com/clinicbook/clinic-booking/internal/patient"
	redisclient "github.com/clinicbook/clinic-booking/internal/redis"
	"github.com/clinicbook/clinic-booking/internal/slot"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	zlog.Info("api-server starting up",
		zap.String("env", cfg.Env),
		zap.String("http_port", cfg.HTTPPort),
		zap.String("version", version),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		zlog.Fatal("postgres connection error", zap.Error(err))
	}
	defer pgPool.Close()
	zlog.Info("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		zlog.Fatal("redis connection error", zap.Error(err))
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			zlog.Warn("error closing redis", zap.Error(err))
		}
	}()
	zlog.Info("connected to Redis")

	locker := redisclient.NewRedisLocker(rdb, cfg.LockTTL)
	patients := patient.NewPgRepository(pgPool)
	slots := slot.NewPgRegistry(pgPool)
	ledger := booking.NewPgRepository(pgPool)

	bookingSvc := booking.NewService(ledger, slots, locker, zlog)
	authSvc := auth.NewService(patients, cfg.JWTSecret, cfg.TokenTTL, cfg.BcryptCost, zlog)
	bookingMetrics := metrics.NewBookingMetrics(nil)

	router := api.NewRouter(api.RouterConfig{
		Bookings:       bookingSvc,
		Slots:          slots,
		Auth:           authSvc,
		Patients:       patients,
		Metrics:        bookingMetrics,
		PgPool:         pgPool,
		Redis:          rdb,
		Logger:         zlog,
		Env:            cfg.Env,
		Version:        version,
		BookingHorizon: cfg.BookingHorizon,
		AuthRateLimit:  cfg.AuthRateLimit,
		CORSOrigins:    cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server error", zap.Error(err))
		}
	case <-rootCtx.Done():
		zlog.Info("shutting down api-server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			zlog.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}
