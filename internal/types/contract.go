package types

import (
	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

type CommissionKind string

type PercentageMode string

const (
	// CommissionKindFixed charges a per-contract fee plus a rate on the traded price.
	CommissionKindFixed CommissionKind = "fixed"
	// CommissionKindPercentage charges a rate on the notional, or a flat amount per contract.
	CommissionKindPercentage CommissionKind = "percentage"
)

const (
	PercentageModePercent PercentageMode = "percent"
	PercentageModeFlat    PercentageMode = "flat"
)

// ContractSpec describes how one instrument is charged and margined.
type ContractSpec struct {
	Symbol         string         `yaml:"symbol" json:"symbol" validate:"required"`
	CommissionKind CommissionKind `yaml:"commission_kind" json:"commission_kind" validate:"required,oneof=fixed percentage"`
	// Commission is the rate. For the percentage kind in flat mode it is an amount per contract.
	Commission float64 `yaml:"commission" json:"commission" validate:"gte=0"`
	// FixedFee is charged per contract by the fixed kind.
	FixedFee   float64 `yaml:"fixed_fee" json:"fixed_fee" validate:"gte=0"`
	Multiplier float64 `yaml:"multiplier" json:"multiplier" validate:"gt=0"`
	// Margin is a fraction of the notional when it lies in (0, 1). The percentage
	// kind treats any other value as an absolute amount per contract.
	Margin         float64        `yaml:"margin" json:"margin" validate:"gte=0"`
	UnitValue      float64        `yaml:"unit_value" json:"unit_value" validate:"gt=0"`
	PercentageMode PercentageMode `yaml:"percentage_mode" json:"percentage_mode" validate:"omitempty,oneof=percent flat"`
}

// Validate validates the ContractSpec struct.
func (c *ContractSpec) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidContractSpec, err, "invalid contract spec for %q", c.Symbol)
	}

	return nil
}
