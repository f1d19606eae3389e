// memory.go - In-Memory Store fuer Tests und kurzlebige Modelle
package store

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Memory is a Store that keeps the latest checkpoint in memory.
type Memory struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	commits int
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(_ context.Context, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.blobs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return slices.Clone(data), nil
}

func (m *Memory) Commit(_ context.Context, blobs map[string][]byte) error {
	next := make(map[string][]byte, len(blobs))
	for name, data := range blobs {
		next[name] = slices.Clone(data)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs = next
	m.commits++
	return nil
}

// Commits returns how many checkpoints were committed.
func (m *Memory) Commits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commits
}

// Names returns the blob names of the latest checkpoint in lexical order.
func (m *Memory) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Sorted(maps.Keys(m.blobs))
}

func (m *Memory) Close() error { return nil }
