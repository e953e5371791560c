package cache

import (
	"context"
	"sync"

	"github.com/viant/imgsim/vector"
)

// Memory is a process-local Backend. It keeps encoded artifacts so loads
// return fresh copies.
type Memory struct {
	mu    sync.Mutex
	data  map[string]artifacts
	saves int
}

// NewMemory returns an empty Memory backend.
func NewMemory() *Memory { return &Memory{data: make(map[string]artifacts)} }

func (m *Memory) Save(_ context.Context, dataset string, vectors []vector.Vector) error {
	key, err := Key(dataset)
	if err != nil {
		return err
	}
	a, err := encode(vectors)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = a
	m.saves++
	return nil
}

func (m *Memory) Load(_ context.Context, dataset string) ([]vector.Vector, error) {
	key, err := Key(dataset)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	a, ok := m.data[key]
	m.mu.Unlock()
	if !ok {
		return nil, ErrMiss
	}
	return decode(a)
}

// Saves reports how many times Save has been called.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

var _ Backend = (*Memory)(nil)
