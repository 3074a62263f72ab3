package analysis

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrTooManyScreens is returned by Mount once the registry is full.
var ErrTooManyScreens = errors.New("too many mounted screens")

// Screens tracks the machines of mounted screen instances. A screen gets
// a fresh Idle machine on Mount and loses it on Unmount; nothing carries
// over between instances.
type Screens[P, R any] struct {
	newMachine func() *Machine[P, R]
	limit      int

	mu      sync.Mutex
	screens map[string]*Machine[P, R]
}

// NewScreens returns a registry building machines with newMachine and
// holding at most limit screens (unlimited when limit <= 0).
func NewScreens[P, R any](newMachine func() *Machine[P, R], limit int) *Screens[P, R] {
	return &Screens[P, R]{
		newMachine: newMachine,
		limit:      limit,
		screens:    make(map[string]*Machine[P, R]),
	}
}

// Mount creates a screen instance and returns its ID and machine.
func (s *Screens[P, R]) Mount() (string, *Machine[P, R], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.limit > 0 && len(s.screens) >= s.limit {
		return "", nil, ErrTooManyScreens
	}
	id := uuid.New().String()
	m := s.newMachine()
	s.screens[id] = m
	return id, m, nil
}

// Get returns the machine of a mounted screen.
func (s *Screens[P, R]) Get(id string) (*Machine[P, R], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.screens[id]
	return m, ok
}

// Unmount discards a screen and closes its machine. It reports whether
// the screen existed.
func (s *Screens[P, R]) Unmount(id string) bool {
	s.mu.Lock()
	m, ok := s.screens[id]
	delete(s.screens, id)
	s.mu.Unlock()
	if ok {
		m.Close()
	}
	return ok
}

// Len returns the number of mounted screens.
func (s *Screens[P, R]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.screens)
}

// CloseAll unmounts every screen.
func (s *Screens[P, R]) CloseAll() {
	s.mu.Lock()
	all := s.screens
	s.screens = make(map[string]*Machine[P, R])
	s.mu.Unlock()
	for _, m := range all {
		m.Close()
	}
}
