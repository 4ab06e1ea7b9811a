package booking

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/hodie-labs/hodie-platform/internal/identity"
	"github.com/hodie-labs/hodie-platform/pkg/logging"
)

var validate = validator.New()

// Handler exposes the booking wizard over HTTP.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a booking wizard handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Routes returns the wizard route tree, mounted under /booking/wizard.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Start)
	r.Route("/{wizardID}", func(r chi.Router) {
		r.Get("/", h.View)
		r.Post("/select", h.Select)
		r.Post("/location", h.Location)
		r.Post("/payment", h.PaymentDetails)
		r.Post("/continue", h.Continue)
		r.Post("/back", h.Back)
		r.Post("/complete", h.Complete)
		r.Post("/close", h.Close)
	})
	return r
}

// ViewResponse is the wizard state as rendered for the current step.
type ViewResponse struct {
	ID          string       `json:"id"`
	Step        Step         `json:"step"`
	Selection   Selection    `json:"selection"`
	CanContinue bool         `json:"can_continue"`
	Panels      []Panel      `json:"panels,omitempty"`
	PartnerLabs []PartnerLab `json:"partner_labs,omitempty"`
	TimeSlots   []string     `json:"time_slots,omitempty"`
	Summary     *Summary     `json:"summary,omitempty"`
	NextSteps   []string     `json:"next_steps,omitempty"`
}

func viewOf(s *Session) ViewResponse {
	resp := ViewResponse{
		ID:          s.ID,
		Step:        s.Step,
		Selection:   s.Selection,
		CanContinue: s.CanContinue(),
	}
	switch s.Step {
	case StepChoose:
		resp.Panels = Panels
	case StepLocation:
		if s.Selection.Method == MethodHome {
			resp.TimeSlots = TimeSlots
		} else {
			resp.PartnerLabs = PartnerLabs
		}
	case StepBooking:
		summary := s.Summarize()
		resp.Summary = &summary
	case StepConfirmation:
		resp.NextSteps = s.NextSteps()
	}
	return resp
}

// Start handles POST /booking/wizard.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	user, ok := identity.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	session, err := h.service.Start(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to start wizard", "error", err, "user_id", user.ID)
		http.Error(w, "failed to start booking wizard", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, viewOf(session))
}

// View handles GET /booking/wizard/{wizardID}.
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	session, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewOf(session))
}

// SelectRequest chooses the collection method on the choose step.
type SelectRequest struct {
	Method  string `json:"method" validate:"required,oneof=lab home"`
	PanelID string `json:"panel_id" validate:"omitempty"`
}

// Select handles POST /booking/wizard/{wizardID}/select.
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	session, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	var req SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "method must be lab or home", http.StatusBadRequest)
		return
	}

	updated, err := h.service.SelectMethod(r.Context(), session.ID, CollectionMethod(req.Method), req.PanelID)
	if err != nil {
		h.writeWizardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(updated))
}

// LocationRequest carries the location-step fields. All optional: the step
// has no completeness guard.
type LocationRequest struct {
	Address  string `json:"address" validate:"omitempty,max=500"`
	Date     string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	TimeSlot string `json:"time_slot" validate:"omitempty"`
}

// Location handles POST /booking/wizard/{wizardID}/location.
func (h *Handler) Location(w http.ResponseWriter, r *http.Request) {
	session, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	var req LocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "invalid location fields", http.StatusBadRequest)
		return
	}

	updated, err := h.service.SetLocation(r.Context(), session.ID, req.Address, req.Date, req.TimeSlot)
	if err != nil {
		h.writeWizardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(updated))
}

// PaymentRequest carries the card fields. Collected, never validated, never
// transmitted anywhere.
type PaymentRequest struct {
	CardNumber string `json:"card_number"`
	Expiry     string `json:"expiry"`
	CVV        string `json:"cvv"`
	Name       string `json:"name"`
}

// PaymentDetails handles POST /booking/wizard/{wizardID}/payment.
func (h *Handler) PaymentDetails(w http.ResponseWriter, r *http.Request) {
	session, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	updated, err := h.service.SetPayment(r.Context(), session.ID, Payment(req))
	if err != nil {
		h.writeWizardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(updated))
}

// Continue handles POST /booking/wizard/{wizardID}/continue.
func (h *Handler) Continue(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Continue)
}

// Back handles POST /booking/wizard/{wizardID}/back.
func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Back)
}

// Complete handles POST /booking/wizard/{wizardID}/complete.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Complete)
}

// Close handles POST /booking/wizard/{wizardID}/close. The session is
// deleted; nothing about the booking is persisted anywhere.
func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	session, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	if err := h.service.Close(r.Context(), session.ID); err != nil {
		h.writeWizardError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, id string) (*Session, error)) {
	session, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	updated, err := apply(r.Context(), session.ID)
	if err != nil {
		h.writeWizardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(updated))
}

func (h *Handler) loadOwned(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	user, ok := identity.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return nil, false
	}

	id := chi.URLParam(r, "wizardID")
	session, err := h.service.Get(r.Context(), id)
	if errors.Is(err, ErrSessionNotFound) {
		http.Error(w, "wizard session not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		h.logger.Error("failed to load wizard session", "error", err, "wizard_id", id)
		http.Error(w, "failed to load wizard session", http.StatusInternalServerError)
		return nil, false
	}
	if session.UserID != user.ID {
		http.Error(w, "wizard session not found", http.StatusNotFound)
		return nil, false
	}
	return session, true
}

func (h *Handler) writeWizardError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		http.Error(w, "wizard session not found", http.StatusNotFound)
	case errors.Is(err, ErrUnknownPanel):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrMethodRequired),
		errors.Is(err, ErrInvalidMethod),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrNoBack),
		errors.Is(err, ErrPastDate),
		errors.Is(err, ErrUnknownSlot):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "wizard transition failed", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
