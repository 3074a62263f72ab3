// Package guard decides whether a protected destination may be shown to
// the current visitor.
package guard

import (
	"log"
	"net/http"
	"strings"

	"crimelense/internal/session"
)

// LoginPath is where denied visitors are sent.
const LoginPath = "/login"

// Decision is the outcome of one evaluation. When Allowed is false the
// caller must redirect to RedirectTo instead of rendering Destination.
type Decision struct {
	Allowed     bool
	Destination string
	RedirectTo  string
}

// Allow renders destination.
func Allow(destination string) Decision {
	return Decision{Allowed: true, Destination: destination}
}

// Deny redirects to loginPath.
func Deny(destination, loginPath string) Decision {
	return Decision{Destination: destination, RedirectTo: loginPath}
}

// Decide is the pure authorization rule.
func Decide(s session.Session, destination, loginPath string) Decision {
	if s.Authenticated {
		return Allow(destination)
	}
	return Deny(destination, loginPath)
}

// SessionReader is the read side of the session store.
type SessionReader interface {
	Session() session.Session
}

// Guard evaluates protected destinations against the live session. It
// keeps no memory of earlier decisions.
type Guard struct {
	sessions  SessionReader
	loginPath string
	prefixes  []string
}

// New returns a Guard protecting every path under the given prefixes.
func New(sessions SessionReader, loginPath string, prefixes ...string) *Guard {
	return &Guard{sessions: sessions, loginPath: loginPath, prefixes: prefixes}
}

// Protected reports whether path sits under one of the guarded prefixes.
// "/dashboard" and "/dashboard/x" are protected, "/dashboards" is not.
func (g *Guard) Protected(path string) bool {
	for _, p := range g.prefixes {
		p = strings.TrimSuffix(p, "/")
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// Evaluate reads the current session and decides for destination.
func (g *Guard) Evaluate(destination string) Decision {
	return Decide(g.sessions.Session(), destination, g.loginPath)
}

// Middleware renders next for allowed requests and redirects the rest.
// Requests to unprotected paths pass through untouched.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.Protected(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		d := g.Evaluate(r.URL.Path)
		if !d.Allowed {
			log.Printf("[guard] denied %s, redirecting to %s", d.Destination, d.RedirectTo)
			http.Redirect(w, r, d.RedirectTo, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}
