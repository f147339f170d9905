package indicator

import (
	"sync"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// Factory creates a fresh, unconfigured indicator.
type Factory func() Indicator

// IndicatorRegistry maps indicator names to factories.
// Streaming indicators hold state, so every caller gets its own instance.
type IndicatorRegistry interface {
	RegisterIndicator(name types.IndicatorType, factory Factory) error
	// NewIndicator creates and configures an indicator by name.
	NewIndicator(name types.IndicatorType, params ...any) (Indicator, error)
	ListIndicators() []types.IndicatorType
	RemoveIndicator(name types.IndicatorType) error
}

// IndicatorRegistryV1 manages all available indicators.
type IndicatorRegistryV1 struct {
	factories map[types.IndicatorType]Factory
	mu        sync.RWMutex
}

// NewIndicatorRegistry creates a new, empty indicator registry.
func NewIndicatorRegistry() IndicatorRegistry {
	return &IndicatorRegistryV1{
		factories: make(map[types.IndicatorType]Factory),
		mu:        sync.RWMutex{},
	}
}

// NewDefaultIndicatorRegistry creates a registry holding the built-in indicators.
func NewDefaultIndicatorRegistry() IndicatorRegistry {
	registry := NewIndicatorRegistry()
	_ = registry.RegisterIndicator(types.IndicatorTypeMA, NewMA)
	_ = registry.RegisterIndicator(types.IndicatorTypeEMA, NewEMA)
	_ = registry.RegisterIndicator(types.IndicatorTypeRSI, NewRSI)

	return registry
}

// RegisterIndicator adds an indicator factory to the registry.
func (r *IndicatorRegistryV1) RegisterIndicator(name types.IndicatorType, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return errors.Newf(errors.ErrCodeIndicatorAlreadyExists, "RegisterIndicator: indicator with name %s already registered", name)
	}

	r.factories[name] = factory

	return nil
}

// NewIndicator creates an indicator by name and applies params to it.
func (r *IndicatorRegistryV1) NewIndicator(name types.IndicatorType, params ...any) (Indicator, error) {
	r.mu.RLock()
	factory, exists := r.factories[name]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.Newf(errors.ErrCodeIndicatorNotFound, "NewIndicator: indicator with name %s not found", name)
	}

	indicator := factory()
	if len(params) > 0 {
		if err := indicator.Config(params...); err != nil {
			return nil, err
		}
	}

	return indicator, nil
}

// ListIndicators returns a list of all registered indicator names.
func (r *IndicatorRegistryV1) ListIndicators() []types.IndicatorType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]types.IndicatorType, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}

	return names
}

// RemoveIndicator removes an indicator from the registry.
func (r *IndicatorRegistryV1) RemoveIndicator(name types.IndicatorType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; !exists {
		return errors.Newf(errors.ErrCodeIndicatorNotFound, "RemoveIndicator: indicator with name %s not found", name)
	}

	delete(r.factories, name)

	return nil
}
