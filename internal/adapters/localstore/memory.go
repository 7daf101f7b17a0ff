// Package localstore holds favorites backends that need no server: an
// in-process map and a SQLite file.
package localstore

import (
	"context"
	"sync"

	"github.com/samirrijal/pawmatch/internal/core/domain"
)

// Memory keeps favorites in process memory. Contents are lost on exit.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]string
}

// NewMemory creates an empty Memory backend.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]string)}
}

// Name identifies the backend.
func (m *Memory) Name() string { return "memory" }

// Load returns a copy of owner's favorites.
func (m *Memory) Load(_ context.Context, owner string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := m.data[domain.NormalizeOwner(owner)]
	out := make([]string, len(ids))
	copy(out, ids)
	return out, nil
}

// Save stores a copy of ids.
func (m *Memory) Save(_ context.Context, owner string, ids []string) error {
	cp := make([]string, len(ids))
	copy(cp, ids)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[domain.NormalizeOwner(owner)] = cp
	return nil
}
