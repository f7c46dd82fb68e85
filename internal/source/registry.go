// Package source holds the process-wide DataSource registry.
//
// Providers are registered once during startup (see
// internal/external/providers.RegisterAll) before the first lookup. Nothing
// else constructs providers, so swapping a provider never touches the engine.
package source

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/wonny/volur/internal/contracts"
)

// Registry maps provider names to DataSource implementations
// ⭐ SSOT: 데이터 소스 등록/조회는 여기서만
type Registry struct {
	mu      sync.RWMutex
	sources map[string]contracts.DataSource
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]contracts.DataSource)}
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry
func Default() *Registry {
	return defaultRegistry
}

// Register adds a source. Registering a taken name fails with
// contracts.ErrDuplicateSource instead of silently replacing the provider.
func (r *Registry) Register(src contracts.DataSource) error {
	if src == nil {
		return fmt.Errorf("register: nil data source")
	}

	name := normalizeName(src.Name())
	if name == "" {
		return fmt.Errorf("register: data source has an empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sources[name]; exists {
		return fmt.Errorf("%w: %s", contracts.ErrDuplicateSource, name)
	}
	r.sources[name] = src
	return nil
}

// Get looks up a source by name
func (r *Registry) Get(name string) (contracts.DataSource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src, ok := r.sources[normalizeName(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", contracts.ErrUnknownSource, name, strings.Join(r.namesLocked(), ", "))
	}
	return src, nil
}

// Names returns the registered names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register adds a source to the process-wide registry
func Register(src contracts.DataSource) error {
	return defaultRegistry.Register(src)
}

// Get looks up a source in the process-wide registry
func Get(name string) (contracts.DataSource, error) {
	return defaultRegistry.Get(name)
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
