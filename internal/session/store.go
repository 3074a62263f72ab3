package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"crimelense/internal/persist"
)

// Store owns the visitor's session and keeps it write-through consistent
// with the durable record behind a persist.Port. Construct one per
// application and hand it to whoever needs to read the session.
type Store struct {
	// mu is held across port I/O so mutations reach storage in call order.
	mu      sync.RWMutex
	port    persist.Port
	session Session
}

// NewStore creates a logged-out store. Call LoadOnStartup to adopt a
// previously persisted session.
func NewStore(port persist.Port) *Store {
	return &Store{port: port}
}

// Session returns a copy of the current session.
func (s *Store) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.clone()
}

// LoadOnStartup adopts the persisted session, if any. A corrupt record is
// logged and purged and the store starts logged out. It never fails.
func (s *Store) LoadOnStartup(ctx context.Context) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = Session{}
	data, err := s.port.Get(ctx)
	if errors.Is(err, persist.ErrNotFound) {
		return Session{}
	}
	if err != nil {
		log.Printf("[session] reading stored session failed, starting logged out: %v", err)
		return Session{}
	}

	u, err := decodeRecord(data)
	if err != nil {
		log.Printf("[session] %v; clearing record", err)
		corruptionRecoveredTotal.Inc()
		if rmErr := s.port.Remove(ctx); rmErr != nil {
			log.Printf("[session] clearing corrupt record failed: %v", rmErr)
		}
		return Session{}
	}

	s.session = Session{Authenticated: true, User: &u}
	log.Printf("[session] restored session for %s", u.Email)
	return s.session.clone()
}

// Login signs u in and persists the session before returning. An empty
// Name is derived from the e-mail address. When persisting fails the
// in-memory session is left as it was.
func (s *Store) Login(ctx context.Context, u User) error {
	u.Email = strings.TrimSpace(u.Email)
	if u.Email == "" {
		operationsTotal.WithLabelValues("login", "rejected").Inc()
		return ErrEmailRequired
	}
	if strings.TrimSpace(u.Name) == "" {
		u.Name = DisplayNameFromEmail(u.Email)
	}
	data, err := encodeRecord(u)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.port.Set(ctx, data); err != nil {
		operationsTotal.WithLabelValues("login", "error").Inc()
		return fmt.Errorf("persist session: %w", err)
	}
	s.session = Session{Authenticated: true, User: u.clone()}
	operationsTotal.WithLabelValues("login", "ok").Inc()
	log.Printf("[session] %s logged in", u.Email)
	return nil
}

// Logout clears the session and removes the durable record. If the record
// cannot be removed the session stays signed in and the error is returned.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.port.Remove(ctx); err != nil {
		operationsTotal.WithLabelValues("logout", "error").Inc()
		return fmt.Errorf("remove session: %w", err)
	}
	s.session = Session{}
	operationsTotal.WithLabelValues("logout", "ok").Inc()
	log.Println("[session] logged out")
	return nil
}

// UpdateUser merges patch into the signed-in user and re-persists it.
// It fails with an InvalidStateError when nobody is signed in.
func (s *Store) UpdateUser(ctx context.Context, patch UserPatch) error {
	return s.update(ctx, "", patch)
}

// UpdateUserAs is UpdateUser for a caller acting as email. It fails with
// ErrNotOwner, leaving the session alone, when someone else is signed in.
func (s *Store) UpdateUserAs(ctx context.Context, email string, patch UserPatch) error {
	if strings.TrimSpace(email) == "" {
		return ErrNotOwner
	}
	return s.update(ctx, email, patch)
}

func (s *Store) update(ctx context.Context, owner string, patch UserPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.session.Authenticated {
		operationsTotal.WithLabelValues("update_user", "rejected").Inc()
		return &InvalidStateError{Op: "updateUser"}
	}
	if owner != "" && !strings.EqualFold(strings.TrimSpace(owner), s.session.User.Email) {
		operationsTotal.WithLabelValues("update_user", "rejected").Inc()
		return ErrNotOwner
	}

	merged := s.session.User.clone()
	patch.apply(merged)
	merged.Email = strings.TrimSpace(merged.Email)
	if merged.Email == "" {
		operationsTotal.WithLabelValues("update_user", "rejected").Inc()
		return ErrEmailRequired
	}

	data, err := encodeRecord(*merged)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.port.Set(ctx, data); err != nil {
		operationsTotal.WithLabelValues("update_user", "error").Inc()
		return fmt.Errorf("persist session: %w", err)
	}
	s.session.User = merged
	operationsTotal.WithLabelValues("update_user", "ok").Inc()
	return nil
}
