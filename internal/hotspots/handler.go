package hotspots

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"crimelense/internal/geo"
	"crimelense/pkg/validation"
)

// Handler exposes the heatmap and hotspot management endpoints.
type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// PublicRoutes is mounted at /api/heatmap.
func (h *Handler) PublicRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Heatmap)
	return r
}

// AdminRoutes is mounted at /admin/hotspots behind the guard.
func (h *Handler) AdminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Add)
	r.Delete("/{id}", h.Remove)
	return r
}

func (h *Handler) Heatmap(w http.ResponseWriter, r *http.Request) {
	center := h.svc.Center()
	if q := r.URL.Query(); q.Get("lat") != "" || q.Get("lng") != "" {
		lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
		lng, errLng := strconv.ParseFloat(q.Get("lng"), 64)
		if errLat != nil || errLng != nil || !validation.ValidateCoordinates(lat, lng) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid lat/lng"})
			return
		}
		center = geo.LatLng{lat, lng}
	}
	resp, err := h.svc.Heatmap(r.Context(), center)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	spots, err := h.svc.List(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hotspots": spots})
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	spot, err := h.svc.Add(r.Context(), req)
	if err != nil {
		var inv *InvalidError
		if errors.As(err, &inv) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error(), "fields": inv.Fields})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, spot)
}

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	err := h.svc.Remove(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
