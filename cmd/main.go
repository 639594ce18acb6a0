package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"customer-ledger/internal/api"
	mw "customer-ledger/internal/api/middleware"
	"customer-ledger/internal/batch"
	"customer-ledger/internal/config"
	"customer-ledger/internal/domain/customer"
	"customer-ledger/internal/domain/ledger"
	"customer-ledger/internal/event"
	"customer-ledger/internal/infrastructure/database/memory"
	"customer-ledger/internal/infrastructure/database/migrations"
	"customer-ledger/internal/infrastructure/database/postgres"
	"customer-ledger/internal/infrastructure/logging"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// @title Customer Ledger API
// @version 1.0
// @description Customer directory with balance operations and an administrator role gate.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, logger := initializeApp()

	customerRepo, closeStore, err := initializeStore(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize customer store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	publisher, closePublisher := initializePublisher(cfg, logger)
	defer closePublisher()

	customerService, ledgerService := initializeServices(customerRepo, publisher, logger)

	auditJob := batch.NewBalanceAuditJob(customerService, logger)
	cronScheduler := startBatchJobs(cfg, logger, auditJob)

	rateLimiter, closeRateLimiter := initializeRateLimiter(cfg, logger)
	defer closeRateLimiter()
	router := api.SetupRouter(customerService, ledgerService, rateLimiter, cfg, logger)

	srv, serverErrors, shutdownChan := startServer(cfg, router, logger)
	handleShutdown(srv, cronScheduler, shutdownChan, serverErrors, logger)
}

func initializeApp() (*config.Config, *slog.Logger) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Logger)
	slog.SetDefault(logger)
	logger.Info("Application starting...", "config_source", viper.ConfigFileUsed())

	if cfg.Server.Auth.Enabled && cfg.Server.Auth.JWTSecret == "" {
		logger.Error("Authentication is enabled but server.auth.jwtSecret is empty")
		os.Exit(1)
	}

	return cfg, logger
}

// initializeStore picks the customer directory backend. The returned cleanup
// releases whatever the backend holds open.
func initializeStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (customer.CustomerRepository, func(), error) {
	switch cfg.Database.Driver {
	case "memory":
		logger.Warn("Using in-memory customer store; data is lost on restart")
		return memory.NewCustomerRepository(logger), func() {}, nil
	case "", "postgres":
		if cfg.Database.AutoMigrate {
			logger.Info("Applying database migrations...")
			if err := migrations.Run(cfg.Database.URL, logger); err != nil {
				return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
			}
		}

		logger.Info("Opening customer store connection pool...", "connect_timeout", cfg.Database.ConnectTimeout)
		dbPool, err := postgres.OpenPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			logger.Info("Closing customer store connection pool...")
			dbPool.Close()
		}
		return postgres.NewCustomerRepository(dbPool, logger), closeFn, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

// initializePublisher falls back to dropping events when the broker is
// disabled or unreachable.
func initializePublisher(cfg *config.Config, logger *slog.Logger) (event.EventPublisher, func()) {
	if !cfg.RabbitMQ.Enabled {
		logger.Info("RabbitMQ disabled, domain events will not be published")
		return event.NoopPublisher{}, func() {}
	}

	rmq := cfg.RabbitMQ
	url := fmt.Sprintf("amqp://%s:%s@%s:%d/", rmq.Username, rmq.Password, rmq.Host, rmq.Port)
	conn, err := amqp.Dial(url)
	if err != nil {
		logger.Error("Failed to connect to RabbitMQ, continuing without events", "host", rmq.Host, "error", err)
		return event.NoopPublisher{}, func() {}
	}

	publisher, err := event.NewRabbitMQEventPublisher(conn, rmq.ExchangeName, logger)
	if err != nil {
		logger.Error("Failed to set up RabbitMQ publisher, continuing without events", "error", err)
		conn.Close()
		return event.NoopPublisher{}, func() {}
	}

	logger.Info("RabbitMQ event publisher ready", "exchange", rmq.ExchangeName)
	return publisher, func() {
		logger.Info("Closing RabbitMQ connection...")
		if err := conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			logger.Warn("RabbitMQ connection close failed", "error", err)
		}
	}
}

// initializeRateLimiter builds the per-IP limiter. The redis backend falls
// back to local buckets when the server cannot be reached at startup.
func initializeRateLimiter(cfg *config.Config, logger *slog.Logger) (*mw.RateLimiterMiddleware, func()) {
	if !cfg.Server.RateLimit.Enabled || cfg.Server.RateLimit.Backend != "redis" {
		rl := mw.NewRateLimiterMiddleware(cfg.Server.RateLimit, logger)
		return rl, rl.Stop
	}

	logger.Info("Initializing Redis client for rate limiting...", "addr", cfg.Redis.Addr)
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Redis unreachable, falling back to in-process rate limiting", "addr", cfg.Redis.Addr, "error", err)
		client.Close()
		rl := mw.NewRateLimiterMiddleware(cfg.Server.RateLimit, logger)
		return rl, rl.Stop
	}

	rl := mw.NewRedisRateLimiterMiddleware(cfg.Server.RateLimit, client, logger)
	return rl, func() {
		rl.Stop()
		logger.Info("Closing Redis client...")
		if err := client.Close(); err != nil {
			logger.Warn("Redis client close failed", "error", err)
		}
	}
}

func initializeServices(repo customer.CustomerRepository, publisher event.EventPublisher, logger *slog.Logger) (customer.CustomerService, ledger.LedgerService) {
	logger.Info("Initializing application components...")
	customerService := customer.NewCustomerService(repo, publisher, logger)
	return customerService, ledger.NewLedgerService(customerService, publisher, logger)
}

func startServer(cfg *config.Config, router http.Handler, logger *slog.Logger) (*http.Server, <-chan error, <-chan os.Signal) {
	logger.Info("Setting up HTTP server...", "port", cfg.Server.Port)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("Server listening on port %d", cfg.Server.Port))
		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			serverErrors <- err
		} else {
			logger.Info("Server closed gracefully.")
			serverErrors <- nil
		}
	}()
	return srv, serverErrors, shutdownChan
}

func handleShutdown(srv *http.Server, cronScheduler *cron.Cron, shutdownChan <-chan os.Signal, serverErrors <-chan error, logger *slog.Logger) {
	logger.Info("Shutdown handler started. Waiting for signal or server error...")

	var triggerReason string
	select {
	case sig := <-shutdownChan:
		triggerReason = "signal: " + sig.String()
		logger.Info("Shutdown signal received.", "signal", sig.String())
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server exited unexpectedly before signal", "error", err)
			os.Exit(1)
		}
		triggerReason = "server exited"
		logger.Info("Server goroutine finished before signal.", "error", err)
	}

	logger.Info("Starting graceful shutdown...", "trigger", triggerReason)

	logger.Info("Stopping cron scheduler...")
	cronCtx := cronScheduler.Stop()
	select {
	case <-cronCtx.Done():
		logger.Info("Cron scheduler stopped gracefully.")
	case <-time.After(15 * time.Second):
		logger.Warn("Cron scheduler shutdown timed out.")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	logger.Info("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", "error", err)
		if err := srv.Close(); err != nil {
			logger.Error("HTTP server forced close failed", "error", err)
		}
	} else {
		logger.Info("HTTP server gracefully stopped.")
	}

	logger.Info("Waiting for server goroutine to confirm exit...")
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Server goroutine exited with unexpected error after shutdown", "error", err)
		} else {
			logger.Info("Server goroutine confirmed exit.")
		}
	case <-time.After(5 * time.Second):
		logger.Warn("Timed out waiting for server goroutine confirmation.")
	}

	logger.Info("Application shutdown process complete.")
}

func startBatchJobs(cfg *config.Config, logger *slog.Logger, auditJob *batch.BalanceAuditJob) *cron.Cron {
	logger.Info("Initializing batch job scheduler...")
	c := cron.New()

	scheduleSpec := cfg.Batch.BalanceAuditSchedule
	if scheduleSpec == "" {
		scheduleSpec = "0 * * * *"
		logger.Warn("Balance audit schedule not configured, using default", "schedule", scheduleSpec)
	}
	jobTimeout := cfg.Batch.BalanceAuditTimeout
	if jobTimeout <= 0 {
		jobTimeout = 5 * time.Minute
	}

	jobID, err := c.AddJob(scheduleSpec, cron.FuncJob(func() {
		jobLogger := logger.With("job_name", "BalanceAudit")
		jobLogger.Info("Cron triggered: Running balance audit job.")

		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		if _, runErr := auditJob.Run(ctx); runErr != nil {
			jobLogger.Error("Balance audit job finished with error", slog.Any("error", runErr))
		}
	}))
	if err != nil {
		logger.Error("Failed to schedule balance audit job", "schedule", scheduleSpec, slog.Any("error", err))
	} else {
		logger.Info("Scheduled balance audit job", "schedule", scheduleSpec, "job_id", jobID)
	}

	c.Start()
	logger.Info("Cron scheduler started.")
	return c
}

func setupLogger(cfg config.LoggerConfig) *slog.Logger {
	return logging.NewLogger(cfg)
}
