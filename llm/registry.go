package llm

import (
	"sort"
	"strings"
	"sync"

	"github.com/amendo-ai/amendo/types"
)

// Registry is a thread-safe provider registry with model-based routing.
// A model id resolves to the first provider that claims it exactly, then to
// a provider whose name matches the model's vendor prefix, then to the
// fallback provider if one is set.
type Registry struct {
	providers map[string]Provider
	order     []string // registration order, for deterministic routing
	fallback  string
	mu        sync.RWMutex
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider under its own name.
// Re-registering a name replaces the previous provider.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := p.Name()
	if _, exists := r.providers[name]; !exists {
		r.order = append(r.order, name)
	}
	r.providers[name] = p
}

// Get retrieves a provider by name.
func (r *Registry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// SetFallback designates a registered provider to serve models no other
// provider claims.
func (r *Registry) SetFallback(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[name]; !ok {
		return types.NewError(types.ErrProviderUnavailable, "fallback provider not registered").WithProvider(name)
	}
	r.fallback = name
	return nil
}

// ProviderFor resolves the provider serving the given model id.
func (r *Registry) ProviderFor(model string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Exact model match wins.
	for _, name := range r.order {
		p := r.providers[name]
		for _, m := range p.SupportedModels() {
			if m == model {
				return p, nil
			}
		}
	}

	// Vendor-prefixed model ids ("openai/gpt-4o") route to the provider of
	// the same name even when the concrete model is not listed.
	if vendor, _, ok := strings.Cut(model, "/"); ok {
		if p, exists := r.providers[vendor]; exists {
			return p, nil
		}
	}

	if r.fallback != "" {
		return r.providers[r.fallback], nil
	}

	return nil, types.NewError(types.ErrModelNotFound, "no provider found for model "+model)
}

// List returns the sorted names of all registered providers.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Unregister removes a provider. If it was the fallback, the fallback is cleared.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.providers, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if r.fallback == name {
		r.fallback = ""
	}
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}
