package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"customer-ledger/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

const applicationName = "customer-ledger"

const (
	fallbackMaxConns       int32 = 10
	fallbackConnectTimeout       = 15 * time.Second
	pingInterval                 = 500 * time.Millisecond
)

// OpenPool connects to the customer store and blocks until the server answers
// a ping or cfg.ConnectTimeout elapses.
func OpenPool(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	if cfg.URL == "" {
		return nil, errors.New("postgres: database url is not configured")
	}

	poolCfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}
	logger = logger.With("host", poolCfg.ConnConfig.Host, "database", poolCfg.ConnConfig.Database)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: open pool: %w", err)
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = fallbackConnectTimeout
	}
	if err := waitForDatabase(ctx, pool, timeout, logger); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("Customer store ready", "max_conns", poolCfg.MaxConns, "min_conns", poolCfg.MinConns)
	return pool, nil
}

func poolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse database url: %w", err)
	}

	poolCfg.MaxConns = fallbackMaxConns
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = min(cfg.MinConns, poolCfg.MaxConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
		poolCfg.MaxConnLifetimeJitter = cfg.MaxConnLifetime / 10
	}

	if poolCfg.ConnConfig.RuntimeParams == nil {
		poolCfg.ConnConfig.RuntimeParams = map[string]string{}
	}
	params := poolCfg.ConnConfig.RuntimeParams
	if _, ok := params["application_name"]; !ok {
		params["application_name"] = applicationName
	}
	// Bounds how long a FOR UPDATE row lock can be held by a stuck statement.
	if cfg.StatementTimeout > 0 {
		params["statement_timeout"] = strconv.FormatInt(cfg.StatementTimeout.Milliseconds(), 10)
	}

	return poolCfg, nil
}

// waitForDatabase pings until the server answers, the timeout passes or ctx
// is cancelled.
func waitForDatabase(ctx context.Context, pool *pgxpool.Pool, timeout time.Duration, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		err := pool.Ping(ctx)
		if err == nil {
			return nil
		}
		logger.Warn("Customer store not reachable yet", "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return fmt.Errorf("postgres: database unreachable after %s: %w", timeout, err)
		case <-ticker.C:
		}
	}
}
