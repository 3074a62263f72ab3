// Package views serves the page descriptors the client renders.
package views

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"crimelense/internal/guard"
	"crimelense/internal/session"
)

// Public pages need no session.
var Public = []string{
	"/", "/heatmap", "/prediction", "/safe-route", "/compare",
	"/profile", "/login", "/signup", "/selection", "/about",
}

// ProtectedPrefixes require an authenticated session.
var ProtectedPrefixes = []string{"/dashboard", "/admin"}

// Dashboard pages live under /dashboard.
var Dashboard = []string{"", "/heatmap", "/prediction", "/safe-route", "/compare", "/analysis"}

// Page describes what to render for a path.
type Page struct {
	View      string          `json:"view"`
	Protected bool            `json:"protected"`
	Session   session.Session `json:"session"`
	Initials  string          `json:"initials,omitempty"`
}

// Handler renders pages from the current session.
type Handler struct {
	sessions guard.SessionReader
	guard    *guard.Guard
}

func NewHandler(sessions guard.SessionReader, g *guard.Guard) *Handler {
	return &Handler{sessions: sessions, guard: g}
}

// Mount registers every page on r. Protected pages must sit behind the
// guard middleware.
func (h *Handler) Mount(r chi.Router) {
	for _, p := range Public {
		r.Get(p, h.Render)
	}
	for _, p := range Dashboard {
		r.Get("/dashboard"+p, h.Render)
	}
	r.Get("/admin", h.Render)
}

func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	cur := h.sessions.Session()
	page := Page{
		View:      r.URL.Path,
		Protected: h.guard.Protected(r.URL.Path),
		Session:   cur,
	}
	if cur.Authenticated {
		page.Initials = session.Initials(cur.User.Name)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(page)
}
