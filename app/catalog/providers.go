package catalog

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Provider identifies one streaming provider in the upstream catalog API.
type Provider struct {
	ID   int    `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

type registryFile struct {
	Providers []Provider `yaml:"providers"`
}

// Registry is the fixed set of providers the crawler harvests. Loaded once at
// startup; never mutated afterwards.
type Registry struct {
	providers map[int]Provider
	order     []int
}

func defaultProviders() []Provider {
	return []Provider{
		{ID: 8, Name: "Netflix"},
		{ID: 9, Name: "Amazon"},
		{ID: 337, Name: "Disney"},
		{ID: 350, Name: "Apple"},
	}
}

// DefaultRegistry returns the built-in provider set.
func DefaultRegistry() *Registry {
	registry, _ := newRegistry(defaultProviders())
	return registry
}

// LoadRegistry reads the provider set from a YAML file. A missing file falls
// back to the built-in defaults.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		slog.Info("Providers file not found, using built-in providers", "path", path)
		return DefaultRegistry(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read providers file: %w", err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse providers file: %w", err)
	}

	registry, err := newRegistry(file.Providers)
	if err != nil {
		return nil, fmt.Errorf("invalid providers file %s: %w", path, err)
	}

	return registry, nil
}

func newRegistry(providers []Provider) (*Registry, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("at least one provider is required")
	}

	registry := &Registry{providers: make(map[int]Provider, len(providers))}
	for i, provider := range providers {
		if provider.ID <= 0 {
			return nil, fmt.Errorf("provider at index %d has invalid id %d", i, provider.ID)
		}
		if provider.Name == "" {
			return nil, fmt.Errorf("provider %d has no name", provider.ID)
		}
		if _, exists := registry.providers[provider.ID]; exists {
			return nil, fmt.Errorf("duplicate provider id %d", provider.ID)
		}
		registry.providers[provider.ID] = provider
		registry.order = append(registry.order, provider.ID)
	}

	return registry, nil
}

// Known reports whether the provider id is registered.
func (r *Registry) Known(providerID int) bool {
	_, ok := r.providers[providerID]
	return ok
}

// Name returns the display name for a registered provider, or "" for an
// unknown id.
func (r *Registry) Name(providerID int) string {
	return r.providers[providerID].Name
}

// All returns the providers in declaration order.
func (r *Registry) All() []Provider {
	providers := make([]Provider, 0, len(r.order))
	for _, id := range r.order {
		providers = append(providers, r.providers[id])
	}
	return providers
}

// Count returns the number of registered providers.
func (r *Registry) Count() int {
	return len(r.providers)
}
