package backtest

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rustyeddy/riskbench/market"
	"github.com/rustyeddy/riskbench/signals"
)

// Backend simulates one run. Implementations must be deterministic and
// must not perform I/O.
type Backend interface {
	Name() string
	Run(bars market.Series, sig signals.Series, cfg Config) Result
}

// Registry holds the backends a Runner may select from.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
}

// NewRegistry returns a registry holding the given backends. A later backend
// with the same name replaces an earlier one.
func NewRegistry(backends ...Backend) *Registry {
	r := &Registry{backends: make(map[string]Backend)}
	for _, b := range backends {
		r.backends[b.Name()] = b
	}
	return r
}

// DefaultRegistry returns a new registry with the native and nextbar backends.
func DefaultRegistry() *Registry {
	return NewRegistry(NewNative(), NewNextBar())
}

// Register adds b. It fails if the name is already taken.
func (r *Registry) Register(b Backend) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.backends[b.Name()]; ok {
		return fmt.Errorf("backtest: backend %q already registered", b.Name())
	}
	r.backends[b.Name()] = b
	return nil
}

func (r *Registry) Lookup(name string) (Backend, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.backends[name]
	return b, ok
}

// Available returns the availability map fed to Select.
func (r *Registry) Available() map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]bool, len(r.backends))
	for name := range r.backends {
		out[name] = true
	}
	return out
}

// Names returns registered backend names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve selects a backend for preference. When the selected id is not
// registered there is no fallback left and a *ConfigError wrapping
// ErrNoBackend is returned.
func (r *Registry) Resolve(preference string) (Backend, error) {
	id := Select(preference, r.Available())
	b, ok := r.Lookup(id)
	if !ok {
		return nil, &ConfigError{
			Field: "engine_preference",
			Msg:   fmt.Sprintf("%q resolved to %q which is not registered", preference, id),
			Err:   ErrNoBackend,
		}
	}
	return b, nil
}
