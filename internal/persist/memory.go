package persist

import (
	"context"
	"sync"
)

// Memory is an in-process Port. It is safe for concurrent use.
type Memory struct {
	mu   sync.Mutex
	data []byte
	ok   bool
}

// NewMemory returns an empty Memory port.
func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Get(context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), m.data...), nil
}

func (m *Memory) Set(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	m.ok = true
	return nil
}

func (m *Memory) Remove(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data, m.ok = nil, false
	return nil
}
