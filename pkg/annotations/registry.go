package annotations

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry holds the descriptors of the known annotation types. Names are
// matched case-insensitively. There is no process-wide registry; build one
// per parse configuration and hand it to NewFactory.
type Registry struct {
	mu          sync.RWMutex          // Protects concurrent access
	descriptors map[string]Descriptor // keyed by lowercased canonical name
}

// NewRegistry creates an empty annotation registry
func NewRegistry() *Registry {
	return &Registry{
		descriptors: make(map[string]Descriptor),
	}
}

// Register adds a descriptor to the registry
func (r *Registry) Register(d Descriptor) error {
	if err := d.validate(); err != nil {
		return fmt.Errorf("invalid descriptor for %s: %w", d.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(d.Name)
	if existing, exists := r.descriptors[key]; exists {
		return fmt.Errorf("annotation type %s is already registered as %s", d.Name, existing.Name)
	}

	params := make([]Parameter, len(d.Params))
	copy(params, d.Params)
	d.Params = params

	fields := make([]string, len(d.Fields))
	copy(fields, d.Fields)
	d.Fields = fields

	r.descriptors[key] = d
	return nil
}

// MustRegister is like Register but panics on error. It is meant for
// registries populated at startup.
func (r *Registry) MustRegister(descriptors ...Descriptor) *Registry {
	for _, d := range descriptors {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
	return r
}

// Lookup retrieves the descriptor registered under name
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, exists := r.descriptors[strings.ToLower(name)]
	return d, exists
}

// IsRegistered checks if an annotation type is registered
func (r *Registry) IsRegistered(name string) bool {
	_, exists := r.Lookup(name)
	return exists
}

// Names returns the registered canonical names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		names = append(names, d.Name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered types
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.descriptors)
}
