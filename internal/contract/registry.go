// Package contract loads the per-instrument commission and margin specs.
//
// A contract file maps an instrument key to its contract and may be written as YAML or JSON:
//
//	RB:
//	  commission_kind: fixed
//	  commission: 0.0001
//	  fixed_fee: 2
//	  multiplier: 10
//	  margin: 0.1
//
// The legacy keys commtype (COMM_FIXED, COMM_PERC), mult and fixed_tax are accepted too.
package contract

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Defaults applied when a field is missing from the contract file.
const (
	DefaultFixedFee   = 2.0
	DefaultMargin     = 0.1
	DefaultMultiplier = 1.0
	DefaultUnitValue  = 1.0
)

// entry is one instrument as written in the file. Pointers tell missing fields apart from zeros.
type entry struct {
	CommissionKind *string  `yaml:"commission_kind"`
	CommType       *string  `yaml:"commtype"`
	Commission     *float64 `yaml:"commission"`
	FixedFee       *float64 `yaml:"fixed_fee"`
	FixedTax       *float64 `yaml:"fixed_tax"`
	Multiplier     *float64 `yaml:"multiplier"`
	Mult           *float64 `yaml:"mult"`
	Margin         *float64 `yaml:"margin"`
	UnitValue      *float64 `yaml:"unit_value"`
	PercentageMode *string  `yaml:"percentage_mode"`
}

// Registry holds validated contract specs keyed by instrument.
type Registry struct {
	specs map[string]types.ContractSpec
	mu    sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		specs: make(map[string]types.ContractSpec),
		mu:    sync.RWMutex{},
	}
}

// LoadFile reads a YAML or JSON contract file into a new registry.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read contract file %s", path)
	}

	return Parse(data)
}

// Parse decodes contract file content. JSON files are read as YAML flow mappings.
func Parse(data []byte) (*Registry, error) {
	var entries map[string]entry

	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidContractSpec, "failed to parse contract file", err)
	}

	registry := NewRegistry()

	for symbol, e := range entries {
		spec, err := e.toSpec(symbol)
		if err != nil {
			return nil, err
		}

		if err := registry.Register(spec); err != nil {
			return nil, err
		}
	}

	return registry, nil
}

// Register validates and stores a spec, replacing any spec with the same symbol.
func (r *Registry) Register(spec types.ContractSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.specs[spec.Symbol] = spec

	return nil
}

// Get returns the contract of an instrument.
func (r *Registry) Get(symbol string) (types.ContractSpec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	spec, ok := r.specs[symbol]
	if !ok {
		return types.ContractSpec{}, errors.Newf(errors.ErrCodeContractNotFound, "no contract spec for instrument %q", symbol)
	}

	return spec, nil
}

// Symbols lists the registered instruments in sorted order.
func (r *Registry) Symbols() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	symbols := make([]string, 0, len(r.specs))
	for symbol := range r.specs {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)

	return symbols
}

func (e entry) toSpec(symbol string) (types.ContractSpec, error) {
	kind, err := e.kind()
	if err != nil {
		return types.ContractSpec{}, errors.Wrapf(errors.ErrCodeInvalidContractSpec, err, "contract %q", symbol)
	}

	spec := types.ContractSpec{
		Symbol:         symbol,
		CommissionKind: kind,
		Commission:     pick(0, e.Commission),
		FixedFee:       0,
		Multiplier:     pick(DefaultMultiplier, e.Multiplier, e.Mult),
		Margin:         pick(0, e.Margin),
		UnitValue:      pick(DefaultUnitValue, e.UnitValue),
		PercentageMode: "",
	}

	switch kind {
	case types.CommissionKindFixed:
		spec.FixedFee = pick(DefaultFixedFee, e.FixedFee, e.FixedTax)
		spec.Margin = pick(DefaultMargin, e.Margin)
	case types.CommissionKindPercentage:
		spec.PercentageMode = types.PercentageModePercent
		if e.PercentageMode != nil {
			spec.PercentageMode = types.PercentageMode(strings.ToLower(*e.PercentageMode))
		}
	}

	return spec, nil
}

func (e entry) kind() (types.CommissionKind, error) {
	if e.CommissionKind != nil {
		return types.CommissionKind(strings.ToLower(*e.CommissionKind)), nil
	}

	if e.CommType == nil {
		return types.CommissionKindFixed, nil
	}

	switch strings.ToUpper(*e.CommType) {
	case "COMM_FIXED":
		return types.CommissionKindFixed, nil
	case "COMM_PERC":
		return types.CommissionKindPercentage, nil
	default:
		return "", fmt.Errorf("unknown commtype %q", *e.CommType)
	}
}

func pick(fallback float64, values ...*float64) float64 {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}

	return fallback
}
