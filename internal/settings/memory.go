package settings

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by a MemoryKV after Close.
var ErrClosed = errors.New("store closed")

// MemoryKV is a process-local KV, used for ephemeral daemons and tests.
type MemoryKV struct {
	mu     sync.RWMutex
	data   map[string]string
	closed bool
	// FailWith, when set, is returned by every operation.
	FailWith error
}

// NewMemoryKV returns an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FailWith != nil {
		return "", false, m.FailWith
	}
	if m.closed {
		return "", false, ErrClosed
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(_ context.Context, pairs map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	if m.closed {
		return ErrClosed
	}
	for k, v := range pairs {
		m.data[k] = v
	}
	return nil
}

func (m *MemoryKV) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
