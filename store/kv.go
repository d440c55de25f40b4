// Package store provides the durable key-value persistence used for the
// backend session pair, with in-memory and Redis backends.
package store

import (
	"context"
	"sync"
)

// KV is durable string storage. Implementations must treat a missing key as
// ("", nil) from Get and as an absent entry in MultiGet, not as an error.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	MultiGet(ctx context.Context, keys ...string) (map[string]string, error)
	MultiRemove(ctx context.Context, keys ...string) error
}

// Memory is a mutex-guarded in-process KV, used in tests and by embedders
// that supply their own durable layer.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory creates an empty in-memory KV.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

// Get implements KV.Get.
func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data[key], nil
}

// Set implements KV.Set.
func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// MultiGet implements KV.MultiGet. Absent keys are omitted from the result.
func (m *Memory) MultiGet(_ context.Context, keys ...string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(keys))
	for _, key := range keys {
		if v, ok := m.data[key]; ok {
			out[key] = v
		}
	}
	return out, nil
}

// MultiRemove implements KV.MultiRemove.
func (m *Memory) MultiRemove(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}
