package llm

import (
	"fmt"
	"sync"
)

// Registry manages the configured providers by name
type Registry struct {
	providers   map[string]Provider
	defaultName string
	mu          sync.RWMutex
}

// NewRegistry creates a new provider registry
func NewRegistry(defaultName string) *Registry {
	return &Registry{
		providers:   make(map[string]Provider),
		defaultName: defaultName,
	}
}

// Register registers a provider under its own name
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get returns a provider by name, falling back to the default for ""
func (r *Registry) Get(name string) (Provider, error) {
	if name == "" {
		name = r.defaultName
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("provider not found: %s", name)
	}
	return p, nil
}

// Names returns the registered provider names
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}

// DefaultName returns the default provider name
func (r *Registry) DefaultName() string {
	return r.defaultName
}
