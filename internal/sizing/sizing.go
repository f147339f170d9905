// Package sizing turns an entry signal into a whole number of contracts.
//
// Every policy returns a non-negative size. Zero means "do not enter" and the
// caller reports it as a degenerate sizing rather than submitting an order.
package sizing

import (
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

type Policy string

const (
	PolicyFixedNotional Policy = "fixed_notional"
	PolicyRiskBased     Policy = "risk_based"
	PolicyPercentEquity Policy = "percent_equity"
)

// DefaultMarginBuffer is the share of cash kept free when capping a size by margin.
const DefaultMarginBuffer = 0.10

type Config struct {
	Policy Policy `yaml:"policy" json:"policy" jsonschema:"title=Sizing policy,enum=fixed_notional,enum=risk_based,enum=percent_equity,default=risk_based" validate:"required,oneof=fixed_notional risk_based percent_equity"`
	// FixedCashAmount is the notional spent per entry by the fixed_notional policy.
	FixedCashAmount float64 `yaml:"fixed_cash_amount" json:"fixed_cash_amount" jsonschema:"title=Fixed cash amount,minimum=0" validate:"gte=0"`
	// RiskPerTrade is the fraction of account value put at risk by the risk_based policy.
	RiskPerTrade float64 `yaml:"risk_per_trade" json:"risk_per_trade" jsonschema:"title=Risk per trade,minimum=0,maximum=1,default=0.02" validate:"gte=0,lte=1"`
	// MarginBuffer is the fraction of cash never committed to margin.
	MarginBuffer float64 `yaml:"margin_buffer" json:"margin_buffer" jsonschema:"title=Margin buffer,minimum=0,maximum=1,default=0.1" validate:"gte=0,lt=1"`
	// EquityPercent is the fraction of account value committed by the percent_equity policy.
	EquityPercent float64 `yaml:"equity_percent" json:"equity_percent" jsonschema:"title=Equity percent,minimum=0,maximum=1,default=0.95" validate:"gte=0,lte=1"`
}

func DefaultConfig() Config {
	return Config{
		Policy:          PolicyRiskBased,
		FixedCashAmount: 10000,
		RiskPerTrade:    0.02,
		MarginBuffer:    DefaultMarginBuffer,
		EquityPercent:   0.95,
	}
}

// Validate validates the Config struct.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid sizing config", err)
	}

	if c.Policy == PolicyFixedNotional && c.FixedCashAmount <= 0 {
		return errors.New(errors.ErrCodeInvalidConfiguration, "fixed_cash_amount must be positive for the fixed_notional policy")
	}

	return nil
}

// Input is everything a policy may look at when sizing one entry.
type Input struct {
	// Price is the expected entry price.
	Price float64
	// AccountValue is the portfolio value marked to the current bar.
	AccountValue float64
	// Cash is the cash available for margin and commission.
	Cash float64
	// StopLossDistance is the distance in price units between entry and protective stop.
	StopLossDistance float64
}

type Sizer interface {
	// Size returns the number of contracts to enter. It is never negative.
	Size(in Input) int64
}

// NewSizer builds the sizer selected by cfg.Policy for one instrument.
func NewSizer(cfg Config, spec types.ContractSpec, fee commission_fee.CommissionFee) (Sizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Policy {
	case PolicyFixedNotional:
		return &FixedNotionalSizer{CashAmount: cfg.FixedCashAmount}, nil
	case PolicyRiskBased:
		return &RiskBasedSizer{
			RiskPerTrade: cfg.RiskPerTrade,
			MarginBuffer: cfg.MarginBuffer,
			UnitValue:    spec.UnitValue,
			Multiplier:   spec.Multiplier,
			Fee:          fee,
		}, nil
	case PolicyPercentEquity:
		return &PercentEquitySizer{
			EquityPercent: cfg.EquityPercent,
			MarginBuffer:  cfg.MarginBuffer,
			Multiplier:    spec.Multiplier,
			Fee:           fee,
		}, nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unknown sizing policy %q", cfg.Policy)
	}
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}

	return true
}
