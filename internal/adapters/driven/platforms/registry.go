package platforms

import (
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/streamlink/internal/core/domain"
	"github.com/custodia-labs/streamlink/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.PlatformRegistry = (*Registry)(nil)

// Registry maps platform identifiers to adapters.
type Registry struct {
	mu       sync.RWMutex
	adapters map[domain.Platform]driven.PlatformAdapter
}

// NewRegistry creates a registry holding the given adapters.
func NewRegistry(adapters ...driven.PlatformAdapter) *Registry {
	r := &Registry{adapters: make(map[domain.Platform]driven.PlatformAdapter)}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// NewRegistryFromCredentials builds adapters for every built-in platform that has
// credentials configured. Platforms without credentials stay unsupported.
func NewRegistryFromCredentials(creds map[domain.Platform]Credentials, opts ...Option) *Registry {
	r := NewRegistry()
	for _, def := range Definitions() {
		c, ok := creds[def.Platform]
		if !ok || !c.Configured() {
			continue
		}
		r.Register(New(def, c, opts...))
	}
	return r
}

// Register adds or replaces the adapter for its platform.
func (r *Registry) Register(adapter driven.PlatformAdapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[adapter.Platform()] = adapter
}

// Adapter returns the adapter for a platform.
func (r *Registry) Adapter(platform domain.Platform) (driven.PlatformAdapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.adapters[platform]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedPlatform, platform)
	}
	return adapter, nil
}

// Platforms returns the registered platforms in a stable order.
func (r *Registry) Platforms() []domain.Platform {
	r.mu.RLock()
	defer r.mu.RUnlock()
	platforms := make([]domain.Platform, 0, len(r.adapters))
	for p := range r.adapters {
		platforms = append(platforms, p)
	}
	sort.Slice(platforms, func(i, j int) bool { return platforms[i] < platforms[j] })
	return platforms
}
