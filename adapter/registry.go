package adapter

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the adapters available to a caller, keyed by service
// name. Registration happens at startup; lookups are concurrent-safe.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter. Registering the same service twice is a
// wiring bug and returns an error.
func (r *Registry) Register(a Adapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	service := a.Service()
	if _, dup := r.adapters[service]; dup {
		return fmt.Errorf("adapter already registered for service %q", service)
	}
	r.adapters[service] = a
	return nil
}

// Get returns the adapter for a service.
func (r *Registry) Get(service string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[service]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for service %q", service)
	}
	return a, nil
}

// Services lists registered service names in sorted order.
func (r *Registry) Services() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.adapters))
	for s := range r.adapters {
		names = append(names, s)
	}
	sort.Strings(names)
	return names
}
