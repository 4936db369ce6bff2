package panel

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var ErrNotFound = errors.New("panel profile not found")

// Registry holds the known panel profiles.
type Registry struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

// globalRegistry holds the built-in profiles.
var globalRegistry = NewRegistry()

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		profiles: make(map[string]Profile),
	}
}

// Register adds a profile to the global registry
func Register(p Profile) error {
	return globalRegistry.Register(p)
}

// Get retrieves a profile from the global registry
func Get(name string) (Profile, error) {
	return globalRegistry.Get(name)
}

// List returns all globally registered profile names
func List() []string {
	return globalRegistry.List()
}

// All returns the global profiles sorted by name
func All() []Profile {
	return globalRegistry.All()
}

// Register adds a profile. Names are unique.
func (r *Registry) Register(p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.profiles[p.Name]; exists {
		return fmt.Errorf("panel %q already registered", p.Name)
	}
	r.profiles[p.Name] = p
	return nil
}

// Replace adds p, overwriting any profile of the same name.
func (r *Registry) Replace(p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.Name] = p
	return nil
}

// Reset replaces the whole registry content with profiles. Nothing changes
// when a profile is invalid or a name repeats.
func (r *Registry) Reset(profiles []Profile) error {
	next := make(map[string]Profile, len(profiles))
	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			return err
		}
		if _, exists := next[p.Name]; exists {
			return fmt.Errorf("panel %q already registered", p.Name)
		}
		next[p.Name] = p
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles = next
	return nil
}

// Get retrieves a profile by name
func (r *Registry) Get(name string) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.profiles[name]
	if !exists {
		return Profile{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return p, nil
}

// List returns all profile names in sorted order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}

// All returns every profile sorted by name.
func (r *Registry) All() []Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// Clear removes all profiles from the registry
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.profiles = make(map[string]Profile)
}
