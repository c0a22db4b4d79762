package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/pscheid92/suggestbox/internal/adapter/discord"
	"github.com/pscheid92/suggestbox/internal/adapter/httpserver"
	"github.com/pscheid92/suggestbox/internal/adapter/metrics"
	"github.com/pscheid92/suggestbox/internal/adapter/postgres"
	"github.com/pscheid92/suggestbox/internal/adapter/redis"
	"github.com/pscheid92/suggestbox/internal/app"
	"github.com/pscheid92/suggestbox/internal/domain"
	"github.com/pscheid92/suggestbox/internal/platform/config"
	"github.com/pscheid92/suggestbox/internal/platform/logging"
)

const (
	leaderKey             = "suggestbox:scheduler:leader"
	authorEvictionPeriod  = 5 * time.Minute
	shutdownTimeout       = 10 * time.Second
	startupConnectTimeout = 10 * time.Second
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config, reg prometheus.Registerer) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), startupConnectTimeout)
	defer cancel()

	tracer := postgres.NewQueryTracer(metrics.NewStoreMetrics(reg))
	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, tracer)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

// setupRedis returns nil when no REDIS_URL is configured; the instance then
// runs without a shared author cache and always sweeps.
func setupRedis(cfg *config.Config) *goredis.Client {
	if cfg.RedisURL == "" {
		slog.Info("REDIS_URL not set, running single-instance without shared cache")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupConnectTimeout)
	defer cancel()

	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func runGracefulShutdown(srv *httpserver.Server, scheduler *app.Scheduler, closeGateway func() error) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		if err := closeGateway(); err != nil {
			slog.Error("Failed to close discord gateway", "error", err)
		}

		scheduler.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	reg := metrics.NewRegistry()

	pool := setupDB(cfg, reg)
	defer pool.Close()
	store := postgres.NewPollStore(pool)

	healthChecks := []httpserver.HealthCheck{
		{Name: "postgres", Check: pool.Ping},
		{Name: "schema", Check: postgres.SchemaCheck(pool)},
	}

	session, err := discord.NewSession(cfg.DiscordToken)
	if err != nil {
		slog.Error("Failed to create discord session", "error", err)
		os.Exit(1)
	}
	surface := discord.NewSurface(session, cfg.SuggestChannelID, discord.DefaultRetryPolicy, metrics.NewChatMetrics(reg))

	var (
		users  domain.UserDirectory = surface
		leader domain.LeaderElector
	)
	if rdb := setupRedis(cfg); rdb != nil {
		defer func() { _ = rdb.Close() }()

		authors := redis.NewAuthorCache(rdb, surface, cfg.AuthorCacheTTL, metrics.NewCacheMetrics(reg))
		stopEviction := authors.StartEvictionTimer(authorEvictionPeriod)
		defer stopEviction()
		users = authors

		instanceID := uuid.NewString()
		leader = redis.NewLeaderElection(rdb, instanceID, leaderKey, 3*cfg.FrequentSweepInterval)
		slog.Info("Leader election enabled", "instance_id", instanceID)

		healthChecks = append(healthChecks, httpserver.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
	}

	scheduler := app.NewScheduler(store, surface, users, leader, metrics.NewSweepMetrics(reg), clock, app.SchedulerConfig{
		FrequentInterval: cfg.FrequentSweepInterval,
		FullInterval:     cfg.FullSweepInterval,
		Concurrency:      cfg.SweepConcurrency,
		RateLimit:        cfg.SweepRateLimit,
	})
	suggestions := app.NewSuggestions(store, surface, scheduler, clock, cfg.VotingWindow, cfg.SuggestChannelID)

	router := discord.NewCommandRouter(session, cfg.CommandPrefix, cfg.Operators(), suggestions, scheduler)
	removeHandler := router.Attach(session)
	if err := session.Open(); err != nil {
		slog.Error("Failed to open discord gateway", "error", err)
		os.Exit(1)
	}
	closeGateway := func() error {
		removeHandler()
		return session.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go scheduler.Run(ctx)

	srv := httpserver.NewServer(cfg, scheduler, metrics.Handler(reg), metrics.NewHTTPMetrics(reg), healthChecks, clock)

	done := runGracefulShutdown(srv, scheduler, closeGateway)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
