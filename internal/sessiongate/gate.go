// Package sessiongate routes an authenticated session to exactly one view
// based on the auth collaborator's state and the user's onboarding record.
package sessiongate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hodie-labs/hodie-platform/internal/identity"
	"github.com/hodie-labs/hodie-platform/internal/observability/metrics"
	"github.com/hodie-labs/hodie-platform/internal/userstore"
	"github.com/hodie-labs/hodie-platform/pkg/logging"
)

// View is the single view state the gate resolves to.
type View string

const (
	ViewLoading    View = "loading"
	ViewError      View = "error"
	ViewLogin      View = "login"
	ViewOnboarding View = "onboarding"
	ViewDashboard  View = "dashboard"
)

// AuthState is the observed state of the external auth collaborator.
type AuthState struct {
	User            *identity.User
	IsAuthenticated bool
	IsLoading       bool
	Err             error
}

// Decision is the gate's routing result.
type Decision struct {
	View    View           `json:"view"`
	Message string         `json:"message,omitempty"`
	User    *identity.User `json:"user,omitempty"`
}

// signupPayload is the comprehensive signup payload written by the external
// signup form. Only well-formed JSON objects count as parseable; the field
// set is informational and not validated.
type signupPayload struct {
	UserID    string          `json:"userId,omitempty"`
	Email     string          `json:"email,omitempty"`
	Plan      string          `json:"plan,omitempty"`
	Responses json.RawMessage `json:"responses,omitempty"`
}

// Gate decides which view a session sees.
type Gate struct {
	store   userstore.Store
	logger  *logging.Logger
	metrics *metrics.SessionMetrics
}

// New creates a session gate over the given record store.
func New(store userstore.Store, logger *logging.Logger, m *metrics.SessionMetrics) *Gate {
	if store == nil {
		panic("sessiongate: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Gate{store: store, logger: logger, metrics: m}
}

// Resolve maps the auth state to exactly one view. Loading wins over every
// other input; an auth error is surfaced with a full-reload remedy; an
// authenticated user is routed by onboarding status after a one-shot attempt
// to consume the signup payload; everyone else sees the login view.
func (g *Gate) Resolve(ctx context.Context, state AuthState) (Decision, error) {
	switch {
	case state.IsLoading:
		return g.decide(Decision{View: ViewLoading}), nil

	case state.Err != nil:
		return g.decide(Decision{View: ViewError, Message: state.Err.Error()}), nil

	case state.IsAuthenticated && state.User != nil:
		if g.consumeSignupPayload(ctx, state.User.ID) {
			return g.decide(Decision{View: ViewDashboard, User: state.User}), nil
		}

		flag, err := g.store.Get(ctx, userstore.OnboardingKey(state.User.ID))
		if err != nil && !errors.Is(err, userstore.ErrNotFound) {
			return Decision{}, fmt.Errorf("sessiongate: onboarding lookup: %w", err)
		}
		if flag == userstore.OnboardingDone {
			return g.decide(Decision{View: ViewDashboard, User: state.User}), nil
		}
		return g.decide(Decision{View: ViewOnboarding, User: state.User}), nil

	default:
		return g.decide(Decision{View: ViewLogin}), nil
	}
}

// consumeSignupPayload attempts the one-shot capture of the comprehensive
// signup payload: parse, then delete the payload and set the onboarding flag
// as one atomic action. A parse failure is logged and swallowed, leaving the
// payload untouched. Returns true when the capture succeeded.
func (g *Gate) consumeSignupPayload(ctx context.Context, userID string) bool {
	raw, err := g.store.Get(ctx, userstore.SignupPayloadKey)
	if errors.Is(err, userstore.ErrNotFound) {
		return false
	}
	if err != nil {
		g.logger.Warn("signup payload read failed", "error", err)
		return false
	}

	var payload signupPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		g.logger.Warn("signup payload parse failed, falling back to onboarding flag", "error", err)
		return false
	}

	if err := g.store.SetAndDelete(ctx, userstore.OnboardingKey(userID), userstore.OnboardingDone, userstore.SignupPayloadKey); err != nil {
		g.logger.Warn("signup payload consume failed", "error", err, "user_id", userID)
		return false
	}

	g.metrics.ObservePayloadConsumed()
	g.logger.Info("comprehensive signup payload consumed", "user_id", userID, "plan", payload.Plan)
	return true
}

// CompleteOnboarding persists the onboarding flag for the user. This is the
// Onboarding → Dashboard transition and the only user-driven one. The write
// is idempotent.
func (g *Gate) CompleteOnboarding(ctx context.Context, userID string) error {
	if err := g.store.Set(ctx, userstore.OnboardingKey(userID), userstore.OnboardingDone); err != nil {
		return fmt.Errorf("sessiongate: complete onboarding: %w", err)
	}
	g.logger.Info("onboarding completed", "user_id", userID)
	return nil
}

func (g *Gate) decide(d Decision) Decision {
	g.metrics.ObserveDecision(string(d.View))
	return d
}
