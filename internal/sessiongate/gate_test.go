package sessiongate

import (
	"context"
	"errors"
	"testing"

	"github.com/hodie-labs/hodie-platform/internal/identity"
	"github.com/hodie-labs/hodie-platform/internal/userstore"
	"github.com/hodie-labs/hodie-platform/pkg/logging"
)

func newGate(t *testing.T) (*Gate, *userstore.MemoryStore) {
	t.Helper()
	store := userstore.NewMemoryStore()
	return New(store, logging.New("error"), nil), store
}

func TestResolveLoadingWinsOverEverything(t *testing.T) {
	gate, _ := newGate(t)
	user := &identity.User{ID: "u1"}

	states := []AuthState{
		{IsLoading: true},
		{IsLoading: true, Err: errors.New("boom")},
		{IsLoading: true, IsAuthenticated: true, User: user},
		{IsLoading: true, IsAuthenticated: false, User: nil, Err: errors.New("x")},
	}

	for i, state := range states {
		decision, err := gate.Resolve(context.Background(), state)
		if err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
		if decision.View != ViewLoading {
			t.Errorf("case %d: expected loading, got %s", i, decision.View)
		}
	}
}

func TestResolveErrorSurfacesMessage(t *testing.T) {
	gate, _ := newGate(t)

	decision, err := gate.Resolve(context.Background(), AuthState{Err: errors.New("token refresh failed")})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if decision.View != ViewError {
		t.Fatalf("expected error view, got %s", decision.View)
	}
	if decision.Message != "token refresh failed" {
		t.Errorf("expected verbatim message, got %q", decision.Message)
	}
}

func TestResolveUnauthenticatedRoutesToLogin(t *testing.T) {
	gate, _ := newGate(t)

	decision, err := gate.Resolve(context.Background(), AuthState{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if decision.View != ViewLogin {
		t.Errorf("expected login, got %s", decision.View)
	}
}

func TestResolveFirstVisitRoutesToOnboarding(t *testing.T) {
	gate, _ := newGate(t)
	user := &identity.User{ID: "u1", Email: "pat@example.com"}

	decision, err := gate.Resolve(context.Background(), AuthState{IsAuthenticated: true, User: user})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if decision.View != ViewOnboarding {
		t.Errorf("expected onboarding, got %s", decision.View)
	}
	if decision.User == nil || decision.User.ID != "u1" {
		t.Error("decision should carry the user")
	}
}

func TestResolveFlaggedUserAlwaysDashboard(t *testing.T) {
	gate, store := newGate(t)
	user := &identity.User{ID: "u1"}
	ctx := context.Background()

	if err := store.Set(ctx, userstore.OnboardingKey("u1"), userstore.OnboardingDone); err != nil {
		t.Fatalf("seed flag: %v", err)
	}

	for i := 0; i < 3; i++ {
		decision, err := gate.Resolve(ctx, AuthState{IsAuthenticated: true, User: user})
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if decision.View != ViewDashboard {
			t.Fatalf("flagged user must never see onboarding, got %s", decision.View)
		}
	}
}

func TestResolveConsumesSignupPayloadOnce(t *testing.T) {
	gate, store := newGate(t)
	user := &identity.User{ID: "u1"}
	ctx := context.Background()

	payload := `{"userId":"u1","email":"pat@example.com","plan":"comprehensive"}`
	if err := store.Set(ctx, userstore.SignupPayloadKey, payload); err != nil {
		t.Fatalf("seed payload: %v", err)
	}

	decision, err := gate.Resolve(ctx, AuthState{IsAuthenticated: true, User: user})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if decision.View != ViewDashboard {
		t.Errorf("valid payload should route to dashboard even on first visit, got %s", decision.View)
	}

	if _, err := store.Get(ctx, userstore.SignupPayloadKey); !errors.Is(err, userstore.ErrNotFound) {
		t.Error("payload must be deleted after consumption")
	}
	flag, err := store.Get(ctx, userstore.OnboardingKey("u1"))
	if err != nil || flag != userstore.OnboardingDone {
		t.Errorf("onboarding flag must be %q after consumption, got %q (err %v)", userstore.OnboardingDone, flag, err)
	}
}

func TestResolveMalformedPayloadFallsBack(t *testing.T) {
	gate, store := newGate(t)
	user := &identity.User{ID: "u1"}
	ctx := context.Background()

	if err := store.Set(ctx, userstore.SignupPayloadKey, `{not json`); err != nil {
		t.Fatalf("seed payload: %v", err)
	}

	decision, err := gate.Resolve(ctx, AuthState{IsAuthenticated: true, User: user})
	if err != nil {
		t.Fatalf("malformed payload must not raise: %v", err)
	}
	if decision.View != ViewOnboarding {
		t.Errorf("expected fallback to onboarding, got %s", decision.View)
	}

	raw, err := store.Get(ctx, userstore.SignupPayloadKey)
	if err != nil || raw != `{not json` {
		t.Errorf("malformed payload must be left untouched, got %q (err %v)", raw, err)
	}
}

func TestCompleteOnboardingIsIdempotent(t *testing.T) {
	gate, store := newGate(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := gate.CompleteOnboarding(ctx, "u1"); err != nil {
			t.Fatalf("CompleteOnboarding call %d: %v", i+1, err)
		}
	}

	flag, err := store.Get(ctx, userstore.OnboardingKey("u1"))
	if err != nil || flag != userstore.OnboardingDone {
		t.Errorf("expected flag %q, got %q (err %v)", userstore.OnboardingDone, flag, err)
	}

	decision, err := gate.Resolve(ctx, AuthState{IsAuthenticated: true, User: &identity.User{ID: "u1"}})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if decision.View != ViewDashboard {
		t.Errorf("expected dashboard after completion, got %s", decision.View)
	}
}
