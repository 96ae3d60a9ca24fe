package status

import (
	"sort"
	"sync"
)

// MetricMap is a thread-safe registry of observed values of type T
// Registration uses the mutex; cached pointers are read and written lock-free
type MetricMap[T any] struct {
	mu    sync.RWMutex
	items map[string]*T
}

// NewMetricMap creates an initialized MetricMap
func NewMetricMap[T any]() *MetricMap[T] {
	return &MetricMap[T]{
		items: make(map[string]*T),
	}
}

// Get returns the value pointer for key, creating it on first use
func (m *MetricMap[T]) Get(key string) *T {
	m.mu.RLock()
	if ptr, ok := m.items[key]; ok {
		m.mu.RUnlock()
		return ptr
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if ptr, ok := m.items[key]; ok {
		return ptr
	}
	ptr := new(T)
	m.items[key] = ptr
	return ptr
}

// Lookup returns the value pointer for key without creating it
func (m *MetricMap[T]) Lookup(key string) (*T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ptr, ok := m.items[key]
	return ptr, ok
}

// Range iterates over all values in sorted key order
func (m *MetricMap[T]) Range(fn func(key string, ptr *T)) {
	m.mu.RLock()
	keys := make([]string, 0, len(m.items))
	ptrs := make(map[string]*T, len(m.items))
	for k, ptr := range m.items {
		keys = append(keys, k)
		ptrs[k] = ptr
	}
	m.mu.RUnlock()

	sort.Strings(keys)
	for _, k := range keys {
		fn(k, ptrs[k])
	}
}

// Count returns the number of registered values
func (m *MetricMap[T]) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
