package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinicare-api/internal/config"
	"github.com/jwalitptl/clinicare-api/internal/email"
	"github.com/jwalitptl/clinicare-api/internal/handler/health"
	promHandler "github.com/jwalitptl/clinicare-api/internal/handler/prometheus"
	"github.com/jwalitptl/clinicare-api/internal/repository/postgres"
	eventService "github.com/jwalitptl/clinicare-api/internal/service/event"
	"github.com/jwalitptl/clinicare-api/internal/worker"
	"github.com/jwalitptl/clinicare-api/pkg/logger"
	"github.com/jwalitptl/clinicare-api/pkg/messaging/redis"
	"github.com/jwalitptl/clinicare-api/pkg/metrics"
	pkgworker "github.com/jwalitptl/clinicare-api/pkg/worker"
)

// workerEnv holds the settings only the worker process reads, as WORKER_*.
type workerEnv struct {
	ID              string        `envconfig:"ID"`
	HealthPort      int           `envconfig:"HEALTH_PORT" default:"8081"`
	CleanupInterval time.Duration `envconfig:"CLEANUP_INTERVAL" default:"1h"`
	Notifications   bool          `envconfig:"NOTIFICATIONS" default:"true"`
}

type pinger func(ctx context.Context) error

func (p pinger) PingContext(ctx context.Context) error { return p(ctx) }

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	var env workerEnv
	if err := envconfig.Process("worker", &env); err != nil {
		log.Fatal().Err(err).Msg("Failed to read worker environment")
	}

	if env.ID == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		env.ID = fmt.Sprintf("worker-%s-%d", hostname, os.Getpid())
	}

	l := logger.Setup(&logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
	}).WithFields(map[string]interface{}{"component": "worker", "worker_id": env.ID})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		l.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()

	redisClient, err := redis.NewClient(ctx, redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	})
	if err != nil {
		l.Fatal(err, "Failed to connect to Redis")
	}
	broker := redis.NewRedisBroker(redisClient, l.ZL)
	defer broker.Close()

	prom := promHandler.New(cfg.Metrics.Prefix)
	m := metrics.NewMetrics(prom.Registry(), cfg.Metrics.Prefix, "worker")

	base := postgres.NewBaseRepository(db)
	events := eventService.NewEventService(postgres.NewOutboxRepository(base), broker, m, eventService.Config{
		BatchSize:     cfg.Outbox.BatchSize,
		RetryAttempts: cfg.Outbox.RetryAttempts,
		RetryDelay:    cfg.Outbox.RetryDelay,
	})

	processor, err := pkgworker.NewOutboxProcessor(events, pkgworker.OutboxProcessorConfig{
		PollInterval:    cfg.Outbox.PollInterval,
		CleanupInterval: env.CleanupInterval,
	}, l, m)
	if err != nil {
		l.Fatal(err, "Invalid outbox processor configuration")
	}

	srv := healthServer(env.HealthPort, map[string]health.Pinger{
		"postgres": db,
		"redis":    pinger(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }),
	}, prom)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		processor.Start(ctx)
	}()

	if env.Notifications {
		notifier := worker.NewNotifier(
			broker,
			postgres.NewUserRepository(base),
			postgres.NewClinicRepository(base),
			email.NewSMTPService(cfg.SMTP),
			m,
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := notifier.Start(ctx); err != nil {
				l.Error(err, "Notifier stopped")
			}
		}()
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error(err, "Health check server failed")
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
	case <-ctx.Done():
	}
	l.Info("Shutting down...")
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error(err, "Health server forced to shutdown")
	}
	wg.Wait()
}

func healthServer(port int, checks map[string]health.Pinger, prom *promHandler.Handler) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	health.NewHandler(checks, prom.Handler()).RegisterRoutes(engine.Group(""))

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: engine,
	}
}
