package provisioning

import (
	"encoding/json"
	"net/http"

	"github.com/hodie-labs/hodie-platform/internal/identity"
	"github.com/hodie-labs/hodie-platform/pkg/logging"
)

// Handler exposes provisioning over HTTP.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a provisioning handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// EnsureResponse reports whether the user now has AI access.
type EnsureResponse struct {
	Granted bool `json:"granted"`
}

// Ensure handles POST /provisioning/ensure for the authenticated user.
func (h *Handler) Ensure(w http.ResponseWriter, r *http.Request) {
	user, ok := identity.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	granted, err := h.service.EnsureAccess(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("ensure access failed", "error", err, "user_id", user.ID)
		http.Error(w, "failed to provision AI access", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(EnsureResponse{Granted: granted})
}
