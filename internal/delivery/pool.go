// Package delivery implements the §4.5 delivery-history store: a
// Postgres-backed record of every catalog record ever emitted, used to
// dedup future conversions against. Grounded on driver/alt_db/init.go's
// pgxpool bootstrap-with-retry shape and save_article_driver.go's
// transaction/upsert shape.
package delivery

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"zoterharvest/internal/logger"
)

const (
	maxConnectRetries = 5
	connectRetryDelay = 2 * time.Second
)

// InitPool opens a pgxpool against DATABASE_URL (or the DELIVERY_DB_DSN
// override), retrying transient failures the way
// driver/alt_db.InitDBConnectionPool does.
func InitPool(ctx context.Context) (*pgxpool.Pool, error) {
	dsn := os.Getenv("DELIVERY_DB_DSN")
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		return nil, fmt.Errorf("delivery: neither DELIVERY_DB_DSN nor DATABASE_URL is set")
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("delivery: invalid connection string: %w", err)
	}
	config.MaxConns = int32(envIntOrDefault("DELIVERY_DB_MAX_CONNS", 10))
	config.HealthCheckPeriod = time.Minute

	var lastErr error
	for attempt := 1; attempt <= maxConnectRetries; attempt++ {
		pool, err := pgxpool.NewWithConfig(ctx, config)
		if err != nil {
			lastErr = err
			logger.Logger.WarnContext(ctx, "delivery: pool creation failed", "attempt", attempt, "error", err)
			time.Sleep(connectRetryDelay * time.Duration(attempt))
			continue
		}

		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = pool.Ping(pingCtx)
		cancel()
		if err != nil {
			pool.Close()
			lastErr = err
			logger.Logger.WarnContext(ctx, "delivery: ping failed", "attempt", attempt, "error", err)
			time.Sleep(connectRetryDelay * time.Duration(attempt))
			continue
		}

		return pool, nil
	}

	return nil, fmt.Errorf("delivery: exhausted connection attempts: %w", lastErr)
}

func envIntOrDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
