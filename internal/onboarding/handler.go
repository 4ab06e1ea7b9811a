package onboarding

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hodie-labs/hodie-platform/internal/identity"
	"github.com/hodie-labs/hodie-platform/pkg/logging"
)

// Completer persists the onboarding flag. The session gate satisfies this.
type Completer interface {
	CompleteOnboarding(ctx context.Context, userID string) error
}

// Handler exposes the onboarding flow over HTTP.
type Handler struct {
	completer Completer
	logger    *logging.Logger
}

// NewHandler creates an onboarding handler.
func NewHandler(completer Completer, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{completer: completer, logger: logger}
}

// Show handles GET /onboarding.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	user, ok := identity.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(Content(user))
}

// Complete handles POST /onboarding/complete. The flag is persisted before
// the client transitions to the dashboard.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	user, ok := identity.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	if err := h.completer.CompleteOnboarding(r.Context(), user.ID); err != nil {
		h.logger.Error("failed to complete onboarding", "error", err, "user_id", user.ID)
		http.Error(w, "failed to complete onboarding", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"view": "dashboard"})
}
