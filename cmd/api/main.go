package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/hodie-labs/hodie-platform/internal/api/router"
	"github.com/hodie-labs/hodie-platform/internal/booking"
	appconfig "github.com/hodie-labs/hodie-platform/internal/config"
	"github.com/hodie-labs/hodie-platform/internal/observability/metrics"
	"github.com/hodie-labs/hodie-platform/internal/onboarding"
	"github.com/hodie-labs/hodie-platform/internal/provisioning"
	"github.com/hodie-labs/hodie-platform/internal/sessiongate"
	"github.com/hodie-labs/hodie-platform/internal/userstore"
	"github.com/hodie-labs/hodie-platform/internal/visualization"
	"github.com/hodie-labs/hodie-platform/pkg/logging"
)

func main() {
	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting hodie-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"store_backend", cfg.StoreBackend,
	)

	ctx := context.Background()

	// Initialize stores
	records, sessions, cleanup, err := setupStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to set up stores", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	// Metrics
	m, metricsHandler := setupMetrics()

	// Initialize services and handlers
	gate := sessiongate.New(records, logger.Component("sessiongate"), m.Session)
	sessionHandler := sessiongate.NewHandler(gate, logger.Component("sessiongate"))
	onboardingHandler := onboarding.NewHandler(gate, logger.Component("onboarding"))

	bookingService := booking.NewService(sessions, logger.Component("booking"), m.Wizard)
	bookingHandler := booking.NewHandler(bookingService, logger.Component("booking"))

	provisioningService := provisioning.NewService(
		records,
		buildAccessChecker(cfg),
		provisioning.Defaults{
			APIKey:          cfg.DefaultAPIKey,
			APIKeyID:        cfg.DefaultAPIKeyID,
			AIProvider:      cfg.DefaultAIProvider,
			MaxTokensPerDay: cfg.DefaultMaxTokensPerDay,
		},
		logger.Component("provisioning"),
		m.Provisioning,
	)
	provisioningHandler := provisioning.NewHandler(provisioningService, logger.Component("provisioning"))

	images, err := visualization.NewDiskImageStore(cfg.ChartImageDir)
	if err != nil {
		logger.Error("failed to set up image store", "error", err)
		os.Exit(1)
	}
	chartService := visualization.NewService(images, cfg.ChartImageTTL, logger.Component("visualization"), m.Chart)
	chartHandler := visualization.NewHandler(chartService, logger.Component("visualization"))

	// Setup router
	routerCfg := &router.Config{
		Logger:              logger,
		SessionHandler:      sessionHandler,
		OnboardingHandler:   onboardingHandler,
		BookingHandler:      bookingHandler,
		ProvisioningHandler: provisioningHandler,
		ChartHandler:        chartHandler,
		MetricsHandler:      metricsHandler,
		HTTPMetrics:         m.HTTP,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		OIDCIssuerURL:       cfg.OIDCIssuerURL,
		OIDCAudience:        cfg.OIDCAudience,
		RateLimitPerSecond:  cfg.RateLimitPerSecond,
		RateLimitBurst:      cfg.RateLimitBurst,
	}
	r := router.New(routerCfg)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// setupStores builds the user record store and the wizard session store for
// the configured backend. Wizard sessions live in Redis when available and
// fall back to memory for the postgres and memory backends.
func setupStores(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (userstore.Store, booking.SessionStore, func(), error) {
	switch cfg.StoreBackend {
	case "redis":
		client, err := connectRedis(ctx, cfg)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		cleanup := func() { _ = client.Close() }
		return userstore.NewRedisStore(client), booking.NewRedisSessionStore(client, cfg.WizardSessionTTL), cleanup, nil

	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, fmt.Errorf("ping postgres: %w", err)
		}
		logger.Info("wizard sessions held in memory with postgres backend")
		return userstore.NewPostgresStore(pool), booking.NewMemorySessionStore(), pool.Close, nil

	case "memory":
		logger.Warn("using in-memory store, records do not survive restarts")
		return userstore.NewMemoryStore(), booking.NewMemorySessionStore(), func() {}, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func connectRedis(ctx context.Context, cfg *appconfig.Config) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// appMetrics bundles the typed metric sets registered at startup.
type appMetrics struct {
	Session      *metrics.SessionMetrics
	Wizard       *metrics.WizardMetrics
	Provisioning *metrics.ProvisioningMetrics
	Chart        *metrics.ChartMetrics
	HTTP         *metrics.HTTPMetrics
}

// setupMetrics registers the application collectors on a fresh registry and
// returns them alongside the scrape handler.
func setupMetrics() (*appMetrics, http.Handler) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &appMetrics{
		Session:      metrics.NewSessionMetrics(reg),
		Wizard:       metrics.NewWizardMetrics(reg),
		Provisioning: metrics.NewProvisioningMetrics(reg),
		Chart:        metrics.NewChartMetrics(reg),
		HTTP:         metrics.NewHTTPMetrics(reg),
	}

	handler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	return m, handler
}

// buildAccessChecker returns nil when no access service is configured.
func buildAccessChecker(cfg *appconfig.Config) provisioning.AccessChecker {
	if cfg.AccessServiceURL == "" {
		return nil
	}
	return provisioning.NewAccessClient(cfg.AccessServiceURL, cfg.AccessServiceTimeout)
}
