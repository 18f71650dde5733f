package provider

import (
	"fmt"
	"sync"
)

// UnavailableError reports a provider that is known but not usable, usually
// because its credentials are missing from configuration. Unavailable
// providers are never attempted.
type UnavailableError struct {
	Name   string
	Reason string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("provider %s is unavailable: %s", e.Name, e.Reason)
}

// UnknownProviderError reports a provider name that was never registered.
type UnknownProviderError struct {
	Name string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown provider %q", e.Name)
}

// Registry holds the configured adapters in priority order. The first
// available adapter is the default (primary); the next available one serves
// as the fallback. Registration happens at startup; lookups are read-only
// afterwards, but the registry is safe for concurrent use regardless.
type Registry struct {
	mu          sync.RWMutex
	adapters    map[string]Adapter
	unavailable map[string]string // name -> reason
	order       []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters:    make(map[string]Adapter),
		unavailable: make(map[string]string),
	}
}

// Register adds a usable adapter at the next priority position.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := a.Name()
	if _, seen := r.adapters[name]; !seen {
		if _, wasUnavailable := r.unavailable[name]; !wasUnavailable {
			r.order = append(r.order, name)
		}
	}
	delete(r.unavailable, name)
	r.adapters[name] = a
}

// MarkUnavailable records a known provider that cannot be attempted, with a
// human-readable reason (e.g. "no API token configured").
func (r *Registry) MarkUnavailable(name, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, seen := r.adapters[name]; seen {
		return
	}
	if _, seen := r.unavailable[name]; !seen {
		r.order = append(r.order, name)
	}
	r.unavailable[name] = reason
}

// Get returns the adapter registered under name. Returns *UnavailableError
// for known-but-unconfigured providers and *UnknownProviderError otherwise.
func (r *Registry) Get(name string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if a, ok := r.adapters[name]; ok {
		return a, nil
	}
	if reason, ok := r.unavailable[name]; ok {
		return nil, &UnavailableError{Name: name, Reason: reason}
	}
	return nil, &UnknownProviderError{Name: name}
}

// Primary returns the first available adapter in priority order, or an
// error when none is available.
func (r *Registry) Primary() (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range r.order {
		if a, ok := r.adapters[name]; ok {
			return a, nil
		}
	}
	return nil, fmt.Errorf("no providers available")
}

// FallbackFor returns the next available adapter after the named primary,
// or nil when no fallback is configured.
func (r *Registry) FallbackFor(primary string) Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range r.order {
		if name == primary {
			continue
		}
		if a, ok := r.adapters[name]; ok {
			return a
		}
	}
	return nil
}

// Names returns all known provider names in priority order, available or not.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Available reports whether the named provider is registered and usable.
func (r *Registry) Available(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.adapters[name]
	return ok
}
