package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/consult-api/internal/config"
	appointmentHandler "github.com/jwalitptl/consult-api/internal/handler/appointment"
	directoryHandler "github.com/jwalitptl/consult-api/internal/handler/directory"
	doctorHandler "github.com/jwalitptl/consult-api/internal/handler/doctor"
	"github.com/jwalitptl/consult-api/internal/handler/health"
	promHandler "github.com/jwalitptl/consult-api/internal/handler/prometheus"
	"github.com/jwalitptl/consult-api/internal/middleware"
	"github.com/jwalitptl/consult-api/internal/repository/postgres"
	"github.com/jwalitptl/consult-api/internal/router"
	appointmentService "github.com/jwalitptl/consult-api/internal/service/appointment"
	auditService "github.com/jwalitptl/consult-api/internal/service/audit"
	clinicalService "github.com/jwalitptl/consult-api/internal/service/clinical"
	directoryService "github.com/jwalitptl/consult-api/internal/service/directory"
	eventService "github.com/jwalitptl/consult-api/internal/service/event"
	"github.com/jwalitptl/consult-api/pkg/auth"
	"github.com/jwalitptl/consult-api/pkg/lock"
	"github.com/jwalitptl/consult-api/pkg/logger"
	redisclient "github.com/jwalitptl/consult-api/pkg/messaging/redis"
	"github.com/jwalitptl/consult-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		JSON:       cfg.Log.JSON,
	})
	log.Logger = *appLogger.Zerolog()

	loc, err := cfg.Server.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid clinic timezone")
	}

	ctx := context.Background()

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("failed to apply schema")
	}

	redisClient, err := redisclient.NewClient(ctx, redisclient.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer redisClient.Close()

	appMetrics := metrics.NewMetrics(prometheus.DefaultRegisterer, "consult", "api")

	// Repositories
	appointmentRepo := postgres.NewAppointmentRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	doctorRepo := postgres.NewDoctorRepository(db)
	prescriptionRepo := postgres.NewPrescriptionRepository(db)
	documentRepo := postgres.NewDocumentRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)
	auditRepo := postgres.NewAuditRepository(db)

	// Services
	appointmentSvc := appointmentService.NewService(appointmentService.Dependencies{
		Appointments:  appointmentRepo,
		Patients:      patientRepo,
		Doctors:       doctorRepo,
		Prescriptions: prescriptionRepo,
		Locker:        lock.NewRedisLocker(redisClient, "lock:"),
		Events:        eventService.NewEventService(outboxRepo),
		Auditor:       auditService.NewService(auditRepo),
		Metrics:       appMetrics,
		Logger:        appLogger.WithFields(map[string]interface{}{"component": "appointments"}),
	}, appointmentService.Config{
		LockTTL:  cfg.Booking.LockTTL,
		Location: loc,
	})
	clinicalSvc := clinicalService.NewService(appointmentRepo, patientRepo, doctorRepo, prescriptionRepo, documentRepo,
		appLogger.WithFields(map[string]interface{}{"component": "clinical"}))
	directorySvc := directoryService.NewService(doctorRepo, cfg.Cache.DirectoryTTL)

	tokens := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer)

	r := router.NewRouter(
		middleware.NewAuthMiddleware(tokens),
		router.Handlers{
			Health: health.NewHandler(map[string]health.Check{
				"database": db.PingContext,
				"redis": func(ctx context.Context) error {
					return redisClient.Ping(ctx).Err()
				},
			}),
			Directory:   directoryHandler.NewHandler(directorySvc),
			Appointment: appointmentHandler.NewHandler(appointmentSvc, clinicalSvc),
			Doctor:      doctorHandler.NewHandler(appointmentSvc, clinicalSvc),
			Metrics:     promHandler.New(prometheus.DefaultGatherer),
		},
		appMetrics,
		router.RouterConfig{
			Mode:             cfg.Server.Mode,
			RateLimitEnabled: cfg.RateLimit.Enabled,
			RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:        cfg.RateLimit.Burst,
			RequestTimeout:   cfg.Server.Timeout(),
			CORSConfig:       middleware.DefaultCORSConfig(cfg.Server.AllowOrigins),
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("timezone", loc.String()).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}
