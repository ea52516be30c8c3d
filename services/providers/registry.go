package providers

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/upb/inference-router/services"
)

var (
	// ErrProviderNotFound is returned when a provider is not registered
	ErrProviderNotFound = services.ErrProviderNotFound

	// ErrProviderAlreadyRegistered is returned when trying to register a duplicate provider
	ErrProviderAlreadyRegistered = errors.New("provider already registered")
)

// Registry holds provider instances keyed by name
// It is populated at construction and read-only afterwards
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	names     []string // sorted
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// RegisterProvider registers a provider instance
func (r *Registry) RegisterProvider(provider Provider) error {
	if provider == nil {
		return errors.New("provider cannot be nil")
	}

	name := provider.Name()
	if name == "" {
		return errors.New("provider name cannot be empty")
	}

	desc := provider.Descriptor()
	if desc.Name != name {
		return fmt.Errorf("provider %q: descriptor name %q does not match", name, desc.Name)
	}
	if err := desc.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("%w: %s", ErrProviderAlreadyRegistered, name)
	}

	r.providers[name] = provider
	r.names = append(r.names, name)
	sort.Strings(r.names)

	return nil
}

// GetProvider retrieves a provider by name
func (r *Registry) GetProvider(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}

	return provider, nil
}

// ListProviders returns all registered provider names in sorted order
func (r *Registry) ListProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Descriptors returns the descriptors of all providers, sorted by name
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	descs := make([]Descriptor, 0, len(r.names))
	for _, name := range r.names {
		descs = append(descs, r.providers[name].Descriptor())
	}
	return descs
}

// GetProviderCount returns the number of registered providers
func (r *Registry) GetProviderCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.providers)
}

// ProviderBuilder is a function that creates a provider instance
type ProviderBuilder func(config ProviderConfig) (Provider, error)

// RegistryBuilder helps build a registry with multiple providers
type RegistryBuilder struct {
	registry *Registry
	builders map[string]ProviderBuilder
	err      error
}

// NewRegistryBuilder creates a new registry builder
func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{
		registry: NewRegistry(),
		builders: make(map[string]ProviderBuilder),
	}
}

// WithProviderBuilder registers a provider builder
func (rb *RegistryBuilder) WithProviderBuilder(name string, builder ProviderBuilder) *RegistryBuilder {
	rb.builders[name] = builder
	return rb
}

// WithProvider directly adds a provider instance
func (rb *RegistryBuilder) WithProvider(provider Provider) *RegistryBuilder {
	if rb.err == nil {
		rb.err = rb.registry.RegisterProvider(provider)
	}
	return rb
}

// Build creates providers for every config that has a builder and returns the registry
func (rb *RegistryBuilder) Build(configs map[string]ProviderConfig) (*Registry, error) {
	if rb.err != nil {
		return nil, rb.err
	}

	// Sorted for deterministic registration errors
	kinds := make([]string, 0, len(configs))
	for kind := range configs {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	for _, kind := range kinds {
		builder, exists := rb.builders[kind]
		if !exists {
			return nil, fmt.Errorf("no builder for provider kind %q", kind)
		}
		provider, err := builder(configs[kind])
		if err != nil {
			return nil, fmt.Errorf("failed to build provider %s: %w", kind, err)
		}
		if err := rb.registry.RegisterProvider(provider); err != nil {
			return nil, fmt.Errorf("failed to register provider %s: %w", kind, err)
		}
	}

	return rb.registry, nil
}
