// Package handler provides the HTTP handlers for the local service request store.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/vijayrajbudala/GIS-Application/display"
	"github.com/vijayrajbudala/GIS-Application/features"
	"github.com/vijayrajbudala/GIS-Application/schema"
)

// FeatureStore is the subset of *features.LocalStore the handlers use.
type FeatureStore interface {
	AddPoint(ctx context.Context, status string, click display.Point) (features.PointRecord, bool, error)
	Records() []features.PointRecord
	StatusOptions() []schema.Option
	BeginAddMode()
	EndAddMode()
	ToggleAddMode() bool
	AddMode() bool
	Export() ([]byte, error)
	GeoJSON() ([]byte, error)
	Ready() bool
}

// Handler holds the server dependencies and registers routes.
type Handler struct {
	features FeatureStore
	log      *zap.Logger
	mux      *http.ServeMux
}

// New creates a Handler and wires up all routes.
func New(fs FeatureStore, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{features: fs, log: log, mux: http.NewServeMux()}
	h.routes()
	return h
}

// ServeHTTP makes Handler an http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	// Health / status
	h.mux.HandleFunc("GET /", h.root)
	h.mux.HandleFunc("GET /health", h.health)

	h.mux.HandleFunc("GET /status-options", h.statusOptions)

	h.mux.HandleFunc("GET /add-mode", h.getAddMode)
	h.mux.HandleFunc("PUT /add-mode", h.putAddMode)
	h.mux.HandleFunc("POST /add-mode/toggle", h.toggleAddMode)

	h.mux.HandleFunc("GET /points", h.listPoints)
	h.mux.HandleFunc("POST /points", h.addPoint)
	h.mux.HandleFunc("GET /points.geojson", h.pointsGeoJSON)

	h.mux.HandleFunc("GET /export", h.export)
}

// ---------- helpers ----------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// ---------- status endpoints ----------

func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	// Only match exact root path
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "Local Service Requests",
	})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if !h.features.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "starting"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// ---------- status options ----------

func (h *Handler) statusOptions(w http.ResponseWriter, r *http.Request) {
	opts := h.features.StatusOptions()
	if opts == nil {
		opts = []schema.Option{}
	}
	writeJSON(w, http.StatusOK, opts)
}

// ---------- add mode ----------

type addModeBody struct {
	Enabled bool `json:"enabled"`
}

func (h *Handler) getAddMode(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, addModeBody{Enabled: h.features.AddMode()})
}

func (h *Handler) putAddMode(w http.ResponseWriter, r *http.Request) {
	var body addModeBody
	if err := readJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if body.Enabled {
		h.features.BeginAddMode()
	} else {
		h.features.EndAddMode()
	}
	writeJSON(w, http.StatusOK, addModeBody{Enabled: h.features.AddMode()})
}

func (h *Handler) toggleAddMode(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, addModeBody{Enabled: h.features.ToggleAddMode()})
}

// ---------- points ----------

func (h *Handler) listPoints(w http.ResponseWriter, r *http.Request) {
	recs := h.features.Records()
	if recs == nil {
		recs = []features.PointRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

type addPointRequest struct {
	Status   string         `json:"status"`
	Geometry *display.Point `json:"geometry"`
}

func (h *Handler) addPoint(w http.ResponseWriter, r *http.Request) {
	var req addPointRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Geometry == nil {
		writeError(w, http.StatusBadRequest, "geometry is required")
		return
	}

	rec, added, err := h.features.AddPoint(r.Context(), req.Status, *req.Geometry)
	switch {
	case errors.Is(err, features.ErrNotReady):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, features.ErrEmptyStatus), errors.Is(err, features.ErrUnknownStatus):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, features.ErrDuplicateID):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, features.ErrRenderFailed):
		writeError(w, http.StatusBadGateway, err.Error())
	case err != nil:
		h.log.Error("add point failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	case !added:
		w.WriteHeader(http.StatusNoContent)
	default:
		writeJSON(w, http.StatusCreated, rec)
	}
}

func (h *Handler) pointsGeoJSON(w http.ResponseWriter, r *http.Request) {
	b, err := h.features.GeoJSON()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ---------- export ----------

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	b, err := h.features.Export()
	if errors.Is(err, features.ErrNothingToExport) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+features.ExportFilename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
