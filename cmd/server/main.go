package main

import (
	"context"
	"database/sql"
	"driver-batching-service/internal/adapters/cache"
	"driver-batching-service/internal/adapters/events"
	"driver-batching-service/internal/adapters/repositories"
	"driver-batching-service/internal/api"
	"driver-batching-service/internal/config"
	"driver-batching-service/internal/platform/db"
	"driver-batching-service/internal/platform/obs"
	"driver-batching-service/internal/ports"
	"driver-batching-service/internal/services"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// main is the application composition root.
// It wires concrete adapters (SQL, Redis, RabbitMQ) behind ports and starts the HTTP server.
func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := obs.SetupLogger("driver-batching-service", cfg.LogLevel, !cfg.LogJSON)
	if envErr != nil {
		logger.Info().Msg("No .env file found (using environment variables)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	conn, dialect, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Initialize schema on startup; seed demo data for local runs.
	if err := repositories.InitSchema(ctx, conn); err != nil {
		return err
	}
	if cfg.SeedPath != "" {
		if err := repositories.SeedFromJSON(ctx, conn, dialect, cfg.SeedPath); err != nil {
			return err
		}
		log.Info().Str("path", cfg.SeedPath).Msg("seeded demo data")
	}

	repo := repositories.NewSQLOrderRepository(conn, dialect)

	var pool ports.OrderSource = repo
	var refresh services.RefreshFunc
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}

		poolCache := cache.NewRedisOrderCache(rdb, repo, cfg.PoolCacheTTL)
		pool = poolCache
		refresh = services.InvalidateOnAccept(poolCache)
		log.Info().Str("addr", cfg.RedisAddr).Dur("ttl", cfg.PoolCacheTTL).Msg("pool cache enabled")
	}

	var publisher ports.EventPublisher = events.LogPublisher{}
	if cfg.RabbitMQURL != "" {
		rp, err := events.DialRabbit(cfg.RabbitMQURL, events.DefaultExchange)
		if err != nil {
			return err
		}
		defer rp.Close()
		publisher = rp
		log.Info().Str("exchange", events.DefaultExchange).Msg("publishing events to rabbitmq")
	}

	planner := services.NewPlanner(pool, services.GroupOptions{
		MaxDistanceKm:          cfg.MaxDistanceKm,
		MaxBatchSize:           cfg.MaxBatchOrders,
		MaxDeliveryTimeMinutes: cfg.MaxDeliveryTimeMinutes,
	})
	acceptor := services.NewAcceptor(repo, repo, publisher)
	acceptor.Refresh = refresh

	router := api.NewRouter(api.Deps{
		Planner:   planner,
		Acceptor:  acceptor,
		Drivers:   repo,
		JWTSecret: cfg.JWTSecret,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("db", dialect.String()).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (*sql.DB, repositories.Dialect, error) {
	dialect, err := repositories.DialectFor(cfg.DBDriver)
	if err != nil {
		return nil, 0, err
	}

	if dialect == repositories.Postgres {
		conn, err := db.Open(ctx, cfg.DatabaseURL)
		return conn, dialect, err
	}
	conn, err := db.OpenSQLite(ctx, cfg.DBPath)
	return conn, dialect, err
}
