package api

import (
	"log/slog"
	"net/http"
	"time"

	_ "customer-ledger/docs"
	"customer-ledger/internal/api/handler"
	mw "customer-ledger/internal/api/middleware"
	"customer-ledger/internal/config"
	"customer-ledger/internal/domain/customer"
	"customer-ledger/internal/domain/ledger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/traceid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// SetupRouter wires every route. The caller owns rateLimiter and stops it on
// shutdown.
func SetupRouter(customerService customer.CustomerService, ledgerService ledger.LedgerService, rateLimiter *mw.RateLimiterMiddleware, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	router := chi.NewRouter()

	setupMiddleware(router, rateLimiter, logger)
	router.NotFound(handler.NotFound)
	router.MethodNotAllowed(handler.MethodNotAllowed)

	setupMetricsEndpoint(router, cfg, logger)
	setupAuthRoutes(router, cfg, customerService, logger)
	setupCustomerRoutes(router, cfg, customerService, ledgerService, logger)
	setupAdminRoutes(router, cfg, ledgerService, logger)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	setupSwaggerEndpoint(router, logger)

	return router
}

func setupMiddleware(router *chi.Mux, rateLimiter *mw.RateLimiterMiddleware, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(traceid.Middleware)
	router.Use(mw.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(middleware.Timeout(60 * time.Second))
	if rateLimiter != nil {
		router.Use(rateLimiter.Middleware)
	}
	router.Use(mw.MetricsMiddleware())
}

func setupMetricsEndpoint(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	logger.Info("Setting up Prometheus metrics endpoint", "path", metricsPath)
	router.Handle(metricsPath, promhttp.Handler())
}

func setupSwaggerEndpoint(router *chi.Mux, logger *slog.Logger) {
	logger.Info("Setting up Swagger UI endpoint", "path", "/swagger/")
	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
}

func setupAuthRoutes(router *chi.Mux, cfg *config.Config, svc customer.CustomerService, logger *slog.Logger) {
	authHandler := handler.NewAuthHandler(cfg.Server.Auth, svc, logger)
	router.Route("/auth", func(r chi.Router) {
		r.Post("/token", authHandler.IssueToken)
	})
}

func setupCustomerRoutes(router *chi.Mux, cfg *config.Config, customerSvc customer.CustomerService, ledgerSvc ledger.LedgerService, logger *slog.Logger) {
	customerHandler := handler.NewCustomerHandler(customerSvc, logger)
	ledgerHandler := handler.NewLedgerHandler(ledgerSvc, logger)
	adminHandler := handler.NewAdminHandler(ledgerSvc, logger)

	router.Route("/customers", func(r chi.Router) {
		// Registration is open; everything else needs a bearer token.
		r.Post("/", customerHandler.CreateCustomer)

		r.Group(func(r chi.Router) {
			r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
			r.Get("/city/{city}", adminHandler.ListByCity)
			r.Route("/{customerID}", func(r chi.Router) {
				r.Get("/balance", ledgerHandler.GetBalance)
				r.Post("/deposit", ledgerHandler.Deposit)
				r.Post("/withdraw", ledgerHandler.Withdraw)
			})
		})
	})
}

func setupAdminRoutes(router *chi.Mux, cfg *config.Config, ledgerSvc ledger.LedgerService, logger *slog.Logger) {
	adminHandler := handler.NewAdminHandler(ledgerSvc, logger)

	router.Route("/admin", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Get("/senior-citizens", adminHandler.ListSeniorCitizens)
		r.Route("/users/{userID}", func(r chi.Router) {
			r.Put("/name", adminHandler.ChangeName)
			r.Put("/dob", adminHandler.ChangeDateOfBirth)
			r.Delete("/", adminHandler.DeleteUser)
		})
	})
}
