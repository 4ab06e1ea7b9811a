package sessiongate

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/hodie-labs/hodie-platform/internal/identity"
	"github.com/hodie-labs/hodie-platform/pkg/logging"
)

// Handler exposes the session gate over HTTP.
type Handler struct {
	gate   *Gate
	logger *logging.Logger
}

// NewHandler creates a session gate handler.
func NewHandler(gate *Gate, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{gate: gate, logger: logger}
}

// View handles GET /session/view. The auth collaborator's loading and error
// state is transported by the client, which owns the auth SDK; the user
// comes from the validated bearer token when one was presented.
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	state := AuthState{}

	if loading, err := strconv.ParseBool(r.URL.Query().Get("loading")); err == nil {
		state.IsLoading = loading
	}
	if msg := r.URL.Query().Get("auth_error"); msg != "" {
		state.Err = errors.New(msg)
	}
	if user, ok := identity.UserFromContext(r.Context()); ok {
		state.User = user
		state.IsAuthenticated = true
	}

	decision, err := h.gate.Resolve(r.Context(), state)
	if err != nil {
		h.logger.Error("session gate resolve failed", "error", err)
		http.Error(w, "failed to resolve session view", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(decision)
}
