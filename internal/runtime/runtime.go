package runtime

import (
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/log"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// StrategyRuntime is the contract between the engine and a strategy.
// The engine owns the clock and the account; the strategy only answers with order intents.
type StrategyRuntime interface {
	// Initialize is called once before the first bar.
	Initialize(ctx RuntimeContext) error
	// OnBar is called once per bar after the account was marked to the bar close.
	OnBar(bar types.Bar, account types.AccountInfo) ([]types.OrderIntent, error)
	// OnOrderEvent reports a status change of an order the strategy submitted.
	OnOrderEvent(event types.OrderEvent) []types.OrderIntent
	// Name returns the name of the strategy
	Name() string
}

type RuntimeContext struct {
	// IndicatorRegistry is the registry of all indicators
	IndicatorRegistry indicator.IndicatorRegistry
	// Log receives the strategy's events
	Log log.Log
	// Contract describes the traded instrument
	Contract types.ContractSpec
	// CommissionFee prices trades of the traded instrument
	CommissionFee commission_fee.CommissionFee
}
