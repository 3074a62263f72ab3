package session

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"crimelense/internal/auth"
	"crimelense/pkg/jwt"
)

// Handler exposes the session over HTTP.
type Handler struct {
	store *Store
	authn auth.Authenticator
	reg   auth.Registrar
}

// NewHandler wires a handler to the store. reg may be nil, in which case
// signup is unavailable.
func NewHandler(store *Store, authn auth.Authenticator, reg auth.Registrar) *Handler {
	return &Handler{store: store, authn: authn, reg: reg}
}

// Response is returned by every session endpoint.
type Response struct {
	Token    string  `json:"token,omitempty"`
	Session  Session `json:"session"`
	Initials string  `json:"initials,omitempty"`
}

// Routes returns a chi.Router with all session routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.Get)
	r.Post("/login", h.Login)
	r.Post("/signup", h.Signup)
	r.Post("/logout", h.Logout)

	r.Group(func(r chi.Router) {
		r.Use(jwt.RequireAuth)
		r.Patch("/profile", h.UpdateProfile)
	})

	return r
}

func (h *Handler) Get(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.respond(""))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	id, err := h.authn.Authenticate(r.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, auth.ErrInvalidCredentials) {
			status = http.StatusUnauthorized
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	h.open(w, r, id, http.StatusOK)
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	if h.reg == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "signup is not available"})
		return
	}
	var req auth.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	id, err := h.reg.Register(r.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, auth.ErrEmailTaken):
			status = http.StatusConflict
		case errors.Is(err, auth.ErrInvalidSignup):
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	h.open(w, r, id, http.StatusCreated)
}

// open signs the identity in and answers with a fresh token.
func (h *Handler) open(w http.ResponseWriter, r *http.Request, id *auth.Identity, status int) {
	if err := h.store.Login(r.Context(), User{Email: id.Email, Name: id.Name}); err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, ErrEmailRequired) {
			code = http.StatusBadRequest
		}
		writeJSON(w, code, map[string]string{"error": err.Error()})
		return
	}
	h.withToken(w, status)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Logout(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, h.respond(""))
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims := jwt.GetClaims(r.Context())

	var patch UserPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	if err := h.store.UpdateUserAs(r.Context(), claims.Email, patch); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, ErrInvalidState):
			status = http.StatusConflict
		case errors.Is(err, ErrNotOwner):
			status = http.StatusForbidden
		case errors.Is(err, ErrEmailRequired):
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	h.withToken(w, http.StatusOK)
}

func (h *Handler) withToken(w http.ResponseWriter, status int) {
	cur := h.store.Session()
	if !cur.Authenticated {
		// logged out concurrently
		writeJSON(w, status, h.respond(""))
		return
	}
	token, err := jwt.Generate(cur.User.Email, cur.User.Name)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, status, h.respond(token))
}

func (h *Handler) respond(token string) Response {
	cur := h.store.Session()
	resp := Response{Token: token, Session: cur}
	if cur.Authenticated {
		resp.Initials = Initials(cur.User.Name)
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
