package analysis

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Broadcaster pushes a value to everyone watching a channel.
type Broadcaster interface {
	Broadcast(channel string, v any)
}

// View is the JSON rendering of a screen's state.
type View[R any] struct {
	ScreenID   string      `json:"screen_id"`
	Phase      Phase       `json:"phase"`
	Generation uint64      `json:"generation"`
	Outcome    *Outcome[R] `json:"outcome,omitempty"`
	Error      *ErrorBody  `json:"error,omitempty"`
}

// NewView renders st for screen id.
func NewView[R any](id string, st State[R]) View[R] {
	return View[R]{
		ScreenID:   id,
		Phase:      st.Phase,
		Generation: st.Generation,
		Outcome:    st.Outcome,
		Error:      Describe(st.Err),
	}
}

// Handler exposes the screens of one workflow over HTTP.
type Handler[P, R any] struct {
	screens *Screens[P, R]
	hub     Broadcaster
}

// NewHandler wires a handler to a screen registry. hub may be nil.
func NewHandler[P, R any](screens *Screens[P, R], hub Broadcaster) *Handler[P, R] {
	return &Handler[P, R]{screens: screens, hub: hub}
}

// Routes returns a chi.Router with the screen lifecycle routes.
func (h *Handler[P, R]) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Mount)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/submit", h.Submit)
	r.Post("/{id}/reset", h.Reset)
	r.Delete("/{id}", h.Unmount)
	return r
}

func (h *Handler[P, R]) Mount(w http.ResponseWriter, _ *http.Request) {
	id, m, err := h.screens.Mount()
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	if h.hub != nil {
		m.Subscribe(func(st State[R]) {
			h.hub.Broadcast(id, NewView(id, st))
		})
	}
	writeJSON(w, http.StatusCreated, NewView(id, m.State()))
}

func (h *Handler[P, R]) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	m, ok := h.screens.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "screen not found"})
		return
	}
	writeJSON(w, http.StatusOK, NewView(id, m.State()))
}

func (h *Handler[P, R]) Submit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	m, ok := h.screens.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "screen not found"})
		return
	}

	var params P
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	gen, err := m.Submit(r.Context(), params)
	if errors.Is(err, ErrClosed) {
		// unmounted while the request was in flight
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "screen not found"})
		return
	}
	st := m.State()
	status := http.StatusAccepted
	var ve *ValidationError
	if st.Phase == PhaseFailed && st.Generation == gen && errors.As(st.Err, &ve) {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, NewView(id, st))
}

func (h *Handler[P, R]) Reset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	m, ok := h.screens.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "screen not found"})
		return
	}
	m.Reset()
	writeJSON(w, http.StatusOK, NewView(id, m.State()))
}

func (h *Handler[P, R]) Unmount(w http.ResponseWriter, r *http.Request) {
	if !h.screens.Unmount(chi.URLParam(r, "id")) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "screen not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
