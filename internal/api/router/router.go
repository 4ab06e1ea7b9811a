package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hodie-labs/hodie-platform/internal/booking"
	httpmiddleware "github.com/hodie-labs/hodie-platform/internal/http/middleware"
	"github.com/hodie-labs/hodie-platform/internal/observability/metrics"
	"github.com/hodie-labs/hodie-platform/internal/onboarding"
	"github.com/hodie-labs/hodie-platform/internal/provisioning"
	"github.com/hodie-labs/hodie-platform/internal/sessiongate"
	"github.com/hodie-labs/hodie-platform/internal/visualization"
	"github.com/hodie-labs/hodie-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	SessionHandler      *sessiongate.Handler
	OnboardingHandler   *onboarding.Handler
	BookingHandler      *booking.Handler
	ProvisioningHandler *provisioning.Handler
	ChartHandler        *visualization.Handler
	MetricsHandler      http.Handler
	HTTPMetrics         *metrics.HTTPMetrics
	CORSAllowedOrigins  []string

	// OIDC auth config (optional, enables bearer token validation)
	OIDCIssuerURL string
	OIDCAudience  string

	// Rate limiting (optional, disabled when RateLimitPerSecond is 0)
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	oidc := httpmiddleware.OIDCConfig{
		IssuerURL: cfg.OIDCIssuerURL,
		Audience:  cfg.OIDCAudience,
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	if cfg.HTTPMetrics != nil {
		r.Use(httpmiddleware.HTTPMetrics(cfg.HTTPMetrics))
	}
	if cfg.RateLimitPerSecond > 0 {
		r.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		// Chart images are embedded in the chat as plain img tags, which
		// cannot carry a bearer token; the filenames are unguessable.
		public.Get("/images/{filename}", cfg.ChartHandler.Image)
	})

	// The gate resolves anonymous requests to the login view, so the token
	// is optional here.
	r.Group(func(session chi.Router) {
		session.Use(httpmiddleware.OIDCOptional(oidc))
		session.Get("/session/view", cfg.SessionHandler.View)
	})

	// Endpoints that read or mutate per-user records require a valid token.
	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.OIDCAuth(oidc))

		private.Route("/onboarding", func(r chi.Router) {
			r.Get("/", cfg.OnboardingHandler.Show)
			r.Post("/complete", cfg.OnboardingHandler.Complete)
		})

		private.Mount("/booking/wizard", cfg.BookingHandler.Routes())

		private.Mount("/visualization", cfg.ChartHandler.Routes())

		private.Post("/provisioning/ensure", cfg.ProvisioningHandler.Ensure)
	})

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
