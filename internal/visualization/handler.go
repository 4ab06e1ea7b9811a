package visualization

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/hodie-labs/hodie-platform/pkg/logging"
)

var validate = validator.New()

// Handler exposes chart rendering over HTTP.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a visualization handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Routes returns the chart route tree, mounted under /visualization.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/histogram", h.Histogram)
	r.Post("/scatter", h.Scatter)
	r.Post("/bar", h.Bar)
	r.Post("/blood-data", h.BloodData)
	r.Post("/cleanup", h.Cleanup)
	return r
}

// HistogramResponse is the rendered artifact plus the series summary.
type HistogramResponse struct {
	Artifact
	Stats *Stats `json:"stats,omitempty"`
}

// Histogram handles POST /visualization/histogram.
func (h *Handler) Histogram(w http.ResponseWriter, r *http.Request) {
	var req HistogramRequest
	if !h.decode(w, r, &req) {
		return
	}

	artifact, stats, err := h.service.Histogram(r.Context(), req)
	if err != nil {
		h.writeChartError(w, err, "histogram")
		return
	}
	writeJSON(w, http.StatusOK, HistogramResponse{Artifact: *artifact, Stats: stats})
}

// Scatter handles POST /visualization/scatter.
func (h *Handler) Scatter(w http.ResponseWriter, r *http.Request) {
	var req ScatterRequest
	if !h.decode(w, r, &req) {
		return
	}

	artifact, err := h.service.Scatter(r.Context(), req)
	if err != nil {
		h.writeChartError(w, err, "scatter")
		return
	}
	writeJSON(w, http.StatusOK, artifact)
}

// Bar handles POST /visualization/bar.
func (h *Handler) Bar(w http.ResponseWriter, r *http.Request) {
	var req BarRequest
	if !h.decode(w, r, &req) {
		return
	}

	artifact, err := h.service.Bar(r.Context(), req)
	if err != nil {
		h.writeChartError(w, err, "bar")
		return
	}
	writeJSON(w, http.StatusOK, artifact)
}

// OverviewResponse lists every chart rendered for a dataset.
type OverviewResponse struct {
	Count          int        `json:"count"`
	Visualizations []Artifact `json:"visualizations"`
}

// BloodData handles POST /visualization/blood-data.
func (h *Handler) BloodData(w http.ResponseWriter, r *http.Request) {
	var req BloodDataRequest
	if !h.decode(w, r, &req) {
		return
	}

	artifacts, err := h.service.BloodOverview(r.Context(), req.Data)
	if err != nil {
		h.writeChartError(w, err, "blood overview")
		return
	}
	writeJSON(w, http.StatusOK, OverviewResponse{Count: len(artifacts), Visualizations: artifacts})
}

// CleanupResponse reports how many images a retention sweep removed.
type CleanupResponse struct {
	Deleted int `json:"deleted"`
}

// Cleanup handles POST /visualization/cleanup.
func (h *Handler) Cleanup(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.service.Cleanup(r.Context())
	if err != nil {
		h.logger.Error("image sweep failed", "error", err)
		http.Error(w, "image sweep failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, CleanupResponse{Deleted: deleted})
}

// Image handles GET /images/{filename}. Served without auth so the chat can
// embed the URL in an img tag; filenames are unguessable.
func (h *Handler) Image(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	img, err := h.service.Image(r.Context(), filename)
	if errors.Is(err, ErrImageNotFound) {
		http.Error(w, "image not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to open image", "error", err, "filename", filename)
		http.Error(w, "failed to open image", http.StatusInternalServerError)
		return
	}
	defer img.Close()

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = io.Copy(w, img)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "missing or invalid chart fields", http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) writeChartError(w http.ResponseWriter, err error, kind string) {
	switch {
	case errors.Is(err, ErrNoData), errors.Is(err, ErrSeriesMismatch):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("chart rendering failed", "error", err, "kind", kind)
		http.Error(w, "chart rendering failed", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
