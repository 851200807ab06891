package kv

import (
	"context"
	"sync"
)

// Memory is an in-process Medium. It forgets everything when the process exits.
type Memory struct {
	mu    sync.RWMutex
	items map[string]string
	used  int64
	opts  options
}

// NewMemory creates an empty in-memory medium.
func NewMemory(opts ...Option) *Memory {
	return &Memory{
		items: make(map[string]string),
		opts:  buildOptions(opts),
	}
}

// GetItem implements Medium.
func (m *Memory) GetItem(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.items[key]
	return value, ok, nil
}

// SetItem implements Medium.
func (m *Memory) SetItem(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	used := m.used
	if old, ok := m.items[key]; ok {
		used -= int64(len(key) + len(old))
	}
	if err := m.opts.checkQuota(used, key, value); err != nil {
		return err
	}

	m.items[key] = value
	m.used = used + int64(len(key)+len(value))
	return nil
}

// RemoveItem implements Medium.
func (m *Memory) RemoveItem(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.items[key]; ok {
		m.used -= int64(len(key) + len(old))
		delete(m.items, key)
	}
	return nil
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Close implements ClosableMedium. It is a no-op.
func (m *Memory) Close() error {
	return nil
}
