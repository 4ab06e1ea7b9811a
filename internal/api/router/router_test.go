package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hodie-labs/hodie-platform/internal/booking"
	"github.com/hodie-labs/hodie-platform/internal/onboarding"
	"github.com/hodie-labs/hodie-platform/internal/provisioning"
	"github.com/hodie-labs/hodie-platform/internal/sessiongate"
	"github.com/hodie-labs/hodie-platform/internal/userstore"
	"github.com/hodie-labs/hodie-platform/internal/visualization"
	"github.com/hodie-labs/hodie-platform/pkg/logging"
)

type grantAllChecker struct{}

func (grantAllChecker) HasValidAccess(ctx context.Context, userID string) (bool, error) {
	return true, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := logging.Default()
	store := userstore.NewMemoryStore()

	gate := sessiongate.New(store, logger, nil)
	sessionHandler := sessiongate.NewHandler(gate, logger)
	onboardingHandler := onboarding.NewHandler(gate, logger)

	bookingService := booking.NewService(booking.NewMemorySessionStore(), logger, nil)
	bookingHandler := booking.NewHandler(bookingService, logger)

	provisioningService := provisioning.NewService(store, grantAllChecker{}, provisioning.Defaults{
		APIKey:          "test-key",
		APIKeyID:        "hodie-default",
		AIProvider:      "kimi-k2",
		MaxTokensPerDay: 10000,
	}, logger, nil)
	provisioningHandler := provisioning.NewHandler(provisioningService, logger)

	images, err := visualization.NewDiskImageStore(t.TempDir())
	if err != nil {
		t.Fatalf("image store: %v", err)
	}
	chartHandler := visualization.NewHandler(visualization.NewService(images, 0, logger, nil), logger)

	cfg := &Config{
		Logger:              logger,
		SessionHandler:      sessionHandler,
		OnboardingHandler:   onboardingHandler,
		BookingHandler:      bookingHandler,
		ProvisioningHandler: provisioningHandler,
		ChartHandler:        chartHandler,
	}

	return New(cfg)
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}

	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
}

func TestRouterSessionViewAnonymous(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/session/view", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode view response: %v", err)
	}
	if resp["view"] != "login" {
		t.Errorf("expected login view for anonymous request, got %v", resp["view"])
	}
}

func TestRouterPrivateRoutesRequireAuth(t *testing.T) {
	router := newTestRouter(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/onboarding/"},
		{http.MethodPost, "/onboarding/complete"},
		{http.MethodPost, "/booking/wizard"},
		{http.MethodPost, "/visualization/histogram"},
		{http.MethodPost, "/provisioning/ensure"},
	}
	for _, p := range paths {
		req := httptest.NewRequest(p.method, p.path, nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected status %d, got %d", p.method, p.path, http.StatusUnauthorized, rr.Code)
		}
	}
}

func TestRouterImageServingIsPublic(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/images/chart_00000000.png", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	// 404 means the request reached the image handler without a token; a
	// 401 would mean the route ended up behind the auth group.
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/does-not-exist", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}
