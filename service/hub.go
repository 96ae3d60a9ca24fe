package service

import (
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"
)

var (
	ErrDuplicate         = errors.New("service already registered")
	ErrMissingDependency = errors.New("dependency not registered")
	ErrCycle             = errors.New("circular service dependency")
	ErrNotInitialized    = errors.New("services not initialized")
)

// Hub owns service instances and drives them through Init, Start and Stop in dependency order
type Hub struct {
	mu       sync.RWMutex
	services map[string]Service
	order    []string // dependency order, computed by InitAll
	started  []string // services whose Start succeeded, stopped in reverse
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{services: make(map[string]Service)}
}

// Register adds a service; any cached order is discarded
func (h *Hub) Register(svc Service) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	name := svc.Name()
	if _, ok := h.services[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}
	h.services[name] = svc
	h.order = nil
	return nil
}

// Get returns a service by name
func (h *Hub) Get(name string) (Service, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	svc, ok := h.services[name]
	return svc, ok
}

// MustGet returns the named service as T and panics when it is absent or of another type
func MustGet[T any](h *Hub, name string) T {
	svc, ok := h.Get(name)
	if !ok {
		panic(fmt.Sprintf("service not found: %s", name))
	}
	typed, ok := svc.(T)
	if !ok {
		panic(fmt.Sprintf("service %s: type mismatch, got %T", name, svc))
	}
	return typed
}

// InitAll orders services by dependency and initializes each with args[name]
// A failure stops what was already initialized, newest first
func (h *Hub) InitAll(args map[string][]any) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.order == nil {
		order, err := h.resolve()
		if err != nil {
			return err
		}
		h.order = order
	}

	for i, name := range h.order {
		if err := h.services[name].Init(args[name]...); err != nil {
			h.stopReverse(h.order[:i])
			return fmt.Errorf("service %s init failed: %w", name, err)
		}
	}
	return nil
}

// StartAll starts services in dependency order
// A failure stops what was already started, newest first
func (h *Hub) StartAll() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.order == nil {
		return ErrNotInitialized
	}
	h.started = h.started[:0]
	for _, name := range h.order {
		if err := h.services[name].Start(); err != nil {
			h.stopReverse(h.started)
			h.started = nil
			return fmt.Errorf("service %s start failed: %w", name, err)
		}
		h.started = append(h.started, name)
	}
	return nil
}

// StopAll stops every started service in reverse order; errors are logged, never returned
func (h *Hub) StopAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopReverse(h.started)
	h.started = nil
}

func (h *Hub) stopReverse(names []string) {
	for i := len(names) - 1; i >= 0; i-- {
		if err := h.services[names[i]].Stop(); err != nil {
			log.Printf("[service] %s stop: %v", names[i], err)
		}
	}
}

// Contribute lets every ResourceContributor publish, in dependency order once initialized
func (h *Hub) Contribute(publish ResourcePublisher) {
	h.mu.RLock()
	order := h.order
	if order == nil {
		order = h.names()
	}
	svcs := make([]Service, 0, len(order))
	for _, name := range order {
		svcs = append(svcs, h.services[name])
	}
	h.mu.RUnlock()

	for _, svc := range svcs {
		if c, ok := svc.(ResourceContributor); ok {
			c.Contribute(publish)
		}
	}
}

// Order returns the dependency order, empty before InitAll
func (h *Hub) Order() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.order)
}

// resolve is Kahn's algorithm with name order breaking ties
func (h *Hub) resolve() ([]string, error) {
	pending := make(map[string]int, len(h.services))
	dependents := make(map[string][]string)
	for name, svc := range h.services {
		deps := svc.Dependencies()
		pending[name] = len(deps)
		for _, dep := range deps {
			if _, ok := h.services[dep]; !ok {
				return nil, fmt.Errorf("%w: %s requires %s", ErrMissingDependency, name, dep)
			}
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var ready []string
	for _, name := range h.names() {
		if pending[name] == 0 {
			ready = append(ready, name)
		}
	}

	order := make([]string, 0, len(h.services))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)

		next := dependents[name]
		slices.Sort(next)
		for _, d := range next {
			if pending[d]--; pending[d] == 0 {
				ready = append(ready, d)
			}
		}
	}
	if len(order) != len(h.services) {
		return nil, ErrCycle
	}
	return order, nil
}

func (h *Hub) names() []string {
	names := make([]string, 0, len(h.services))
	for name := range h.services {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
