package backend

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages the available backends
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
}

// globalRegistry is the default backend registry
var globalRegistry = NewRegistry()

// NewRegistry creates a new backend registry
func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[string]Backend),
	}
}

// Register adds a backend to the global registry
func Register(b Backend) error {
	return globalRegistry.Register(b)
}

// Get retrieves a backend from the global registry
func Get(name string) (Backend, error) {
	return globalRegistry.Get(name)
}

// List returns all registered backend names
func List() []string {
	return globalRegistry.List()
}

// GetInfo returns information about all registered backends
func GetInfo() []Info {
	return globalRegistry.GetInfo()
}

// Register adds a backend to the registry
func (r *Registry) Register(b Backend) error {
	if b == nil {
		return fmt.Errorf("backend cannot be nil")
	}

	name := b.Name()
	if name == "" {
		return fmt.Errorf("backend name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.backends[name]; exists {
		return fmt.Errorf("backend %q already registered", name)
	}

	r.backends[name] = b
	return nil
}

// Get retrieves a backend by name
func (r *Registry) Get(name string) (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, exists := r.backends[name]
	if !exists {
		return nil, fmt.Errorf("backend %q not found", name)
	}

	return b, nil
}

// List returns all registered backend names in sorted order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}

// Clear removes all backends from the registry
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.backends = make(map[string]Backend)
}

// GetInfo returns detailed information about all backends
func (r *Registry) GetInfo() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.backends))
	for _, b := range r.backends {
		info := Info{
			Name:        b.Name(),
			Description: b.Description(),
		}

		// Backends may describe themselves further
		if ext, ok := b.(interface{ Info() Info }); ok {
			info = ext.Info()
		}

		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})

	return infos
}
