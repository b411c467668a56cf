package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinicare-api/internal/config"
	"github.com/jwalitptl/clinicare-api/internal/email"
	appointmentHandler "github.com/jwalitptl/clinicare-api/internal/handler/appointment"
	authHandler "github.com/jwalitptl/clinicare-api/internal/handler/auth"
	clinicHandler "github.com/jwalitptl/clinicare-api/internal/handler/clinic"
	doctorServiceHandler "github.com/jwalitptl/clinicare-api/internal/handler/doctorservice"
	encounterHandler "github.com/jwalitptl/clinicare-api/internal/handler/encounter"
	"github.com/jwalitptl/clinicare-api/internal/handler/health"
	leaveHandler "github.com/jwalitptl/clinicare-api/internal/handler/leave"
	optionHandler "github.com/jwalitptl/clinicare-api/internal/handler/option"
	promHandler "github.com/jwalitptl/clinicare-api/internal/handler/prometheus"
	sessionHandler "github.com/jwalitptl/clinicare-api/internal/handler/session"
	staffHandler "github.com/jwalitptl/clinicare-api/internal/handler/staff"
	"github.com/jwalitptl/clinicare-api/internal/middleware"
	"github.com/jwalitptl/clinicare-api/internal/repository/postgres"
	redisrepo "github.com/jwalitptl/clinicare-api/internal/repository/redis"
	"github.com/jwalitptl/clinicare-api/internal/router"
	appointmentService "github.com/jwalitptl/clinicare-api/internal/service/appointment"
	authService "github.com/jwalitptl/clinicare-api/internal/service/auth"
	clinicService "github.com/jwalitptl/clinicare-api/internal/service/clinic"
	doctorServiceService "github.com/jwalitptl/clinicare-api/internal/service/doctorservice"
	encounterService "github.com/jwalitptl/clinicare-api/internal/service/encounter"
	eventService "github.com/jwalitptl/clinicare-api/internal/service/event"
	leaveService "github.com/jwalitptl/clinicare-api/internal/service/leave"
	optionService "github.com/jwalitptl/clinicare-api/internal/service/option"
	"github.com/jwalitptl/clinicare-api/internal/service/rbac"
	scheduleService "github.com/jwalitptl/clinicare-api/internal/service/schedule"
	sessionService "github.com/jwalitptl/clinicare-api/internal/service/session"
	staffService "github.com/jwalitptl/clinicare-api/internal/service/staff"
	"github.com/jwalitptl/clinicare-api/pkg/auth"
	"github.com/jwalitptl/clinicare-api/pkg/logger"
	"github.com/jwalitptl/clinicare-api/pkg/messaging/redis"
	"github.com/jwalitptl/clinicare-api/pkg/security"
)

// redisPinger adapts the redis client to health.Pinger.
type redisPinger struct {
	client *goredis.Client
}

func (p redisPinger) PingContext(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Setup(&logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
	})

	if err := middleware.RegisterValidators(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	ctx := context.Background()

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if cfg.Database.MigrateOnStart {
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	redisClient, err := redis.NewClient(ctx, redis.Config{
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

	// Repositories
	base := postgres.NewBaseRepository(db)
	userRepo := postgres.NewUserRepository(base)
	clinicRepo := postgres.NewClinicRepository(base)
	staffRepo := postgres.NewStaffRepository(base)
	doctorServiceRepo := postgres.NewDoctorServiceRepository(base)
	sessionRepo := postgres.NewSessionRepository(base)
	leaveRepo := postgres.NewLeaveRepository(base)
	appointmentRepo := postgres.NewAppointmentRepository(base)
	encounterRepo := postgres.NewEncounterRepository(base)
	optionRepo := postgres.NewOptionRepository(base)
	outboxRepo := postgres.NewOutboxRepository(base)
	tokenRepo := redisrepo.NewTokenRepository(redisClient)

	// Services
	events := eventService.NewEventService(outboxRepo, nil, nil, eventService.Config{})
	mailer := email.NewSMTPService(cfg.SMTP)
	hasher := security.NewBcryptHasher(0)
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())
	policy := rbac.NewPolicy()

	authSvc := authService.NewService(userRepo, clinicRepo, tokenRepo, jwtSvc, hasher, mailer)
	clinicSvc := clinicService.NewService(clinicRepo, userRepo, events)
	staffSvc := staffService.NewService(staffRepo, userRepo, hasher, mailer, events)
	doctorServiceSvc := doctorServiceService.NewService(doctorServiceRepo, staffRepo)
	sessionSvc := sessionService.NewService(sessionRepo, staffRepo, events)
	leaveSvc := leaveService.NewService(leaveRepo, staffRepo, events)
	scheduleSvc := scheduleService.NewService(sessionRepo, leaveRepo, appointmentRepo)
	optionSvc := optionService.NewService(optionRepo, cfg.Cache.OptionTTL, cfg.Cache.CleanupInterval)
	appointmentSvc := appointmentService.NewService(
		appointmentRepo, sessionRepo, staffRepo, userRepo, scheduleSvc, optionSvc, events,
	)
	encounterSvc := encounterService.NewService(encounterRepo, appointmentRepo, staffRepo, userRepo)

	// HTTP
	prom := promHandler.New(cfg.Metrics.Prefix)
	healthH := health.NewHandler(map[string]health.Pinger{
		"postgres": db,
		"redis":    redisPinger{client: redisClient},
	}, prom.Handler())

	cors := middleware.DefaultCORSConfig()
	if len(cfg.CORS.AllowedOrigins) > 0 {
		cors.AllowOrigins = cfg.CORS.AllowedOrigins
	}

	routerConfig := router.RouterConfig{
		Mode:       cfg.Server.Mode,
		CORSConfig: cors,
		Timeout:    middleware.TimeoutConfig{Duration: cfg.Server.RequestTimeout},
		Metrics:    prom.Middleware(),
	}
	if cfg.RateLimit.Enabled {
		routerConfig.RateLimit = rate.Limit(cfg.RateLimit.RequestsPerSecond)
		routerConfig.RateBurst = cfg.RateLimit.Burst
	}

	r := router.NewRouter(
		middleware.NewAuthMiddleware(authSvc, policy),
		authHandler.NewHandler(authSvc),
		healthH,
		[]router.GuardedHandler{
			clinicHandler.NewHandler(clinicSvc),
			staffHandler.NewReceptionistHandler(staffSvc),
			staffHandler.NewDoctorHandler(staffSvc),
			doctorServiceHandler.NewHandler(doctorServiceSvc),
			sessionHandler.NewHandler(sessionSvc),
			leaveHandler.NewHandler(leaveSvc, scheduleSvc),
			appointmentHandler.NewHandler(appointmentSvc),
			encounterHandler.NewHandler(encounterSvc),
			optionHandler.NewHandler(optionSvc),
		},
		routerConfig,
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

	log.Info().Msg("server exited properly")
}
