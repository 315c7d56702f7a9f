package server

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kitchenlog/recipebox/internal/adapters/postgres"
	"github.com/kitchenlog/recipebox/internal/platform/logger"
)

// pingAttempts bounds the startup wait for the database. Containerized
// deployments routinely start the API before PostgreSQL is ready to accept
// connections.
const (
	pingAttempts = 10
	pingInterval = 2 * time.Second
)

// ConnectDatabase creates a new database connection pool and returns it with a cleanup function
func ConnectDatabase(ctx context.Context, config Config, log logger.Logger) (*pgxpool.Pool, func(), error) {
	log.Info(ctx, "connecting to database")

	// Parse config from URL and set pool defaults
	poolConfig, err := pgxpool.ParseConfig(config.DatabaseURL)
	if err != nil {
		log.Error(ctx, "failed to parse database URL", "error", err)
		return nil, nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Configure connection pool settings
	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 5 * time.Minute
	poolConfig.MaxConnIdleTime = 1 * time.Minute

	log.Debug(ctx, "database pool configuration",
		"max_conns", poolConfig.MaxConns,
		"min_conns", poolConfig.MinConns,
		"max_conn_lifetime", poolConfig.MaxConnLifetime,
		"max_conn_idle_time", poolConfig.MaxConnIdleTime,
	)

	// Create the connection pool
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Error(ctx, "failed to create connection pool", "error", err)
		return nil, nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Wait for the database to accept connections
	if err := waitForDatabase(ctx, pool, log); err != nil {
		pool.Close()
		log.Error(ctx, "database did not become ready", "error", err)
		return nil, nil, err
	}

	// Bring the schema up to date before anything touches the tables.
	if err := postgres.ApplySchema(ctx, pool); err != nil {
		pool.Close()
		log.Error(ctx, "failed to apply database schema", "error", err)
		return nil, nil, err
	}

	log.Info(ctx, "database connection established successfully")

	// Return the pool and a cleanup function
	cleanup := func() {
		log.Info(context.Background(), "closing database connection pool")
		pool.Close()
	}

	return pool, cleanup, nil
}

// waitForDatabase pings the pool until it responds or the attempt budget runs
// out.
func waitForDatabase(ctx context.Context, pool *pgxpool.Pool, log logger.Logger) error {
	var err error
	for attempt := 1; attempt <= pingAttempts; attempt++ {
		if err = pool.Ping(ctx); err == nil {
			return nil
		}

		log.Warn(ctx, "database not ready, retrying",
			"attempt", attempt,
			"max_attempts", pingAttempts,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pingInterval):
		}
	}
	return fmt.Errorf("database unavailable after %d attempts: %w", pingAttempts, err)
}
