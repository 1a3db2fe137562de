package model

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds models by name.
type Registry struct {
	mu     sync.RWMutex
	models map[string]*Model
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		models: make(map[string]*Model),
	}
}

// Register adds a model under its name. Names must be unique.
func (r *Registry) Register(m *Model) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.models[m.Name()]; ok {
		return fmt.Errorf("%w: model %q already registered", ErrConfiguration, m.Name())
	}
	r.models[m.Name()] = m
	return nil
}

// Get returns the named model, or nil and false if it is not registered.
func (r *Registry) Get(name string) (*Model, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.models[name]
	return m, ok
}

// Names returns the registered model names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ByTable returns the models stored in table.
func (r *Registry) ByTable(table string) []*Model {
	var out []*Model
	for _, name := range r.Names() {
		m, _ := r.Get(name)
		if m.TableName() == table {
			out = append(out, m)
		}
	}
	return out
}
