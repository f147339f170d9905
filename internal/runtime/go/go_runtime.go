package go_runtime

import (
	"fmt"

	"github.com/rxtech-lab/argo-backtest/internal/log"
	"github.com/rxtech-lab/argo-backtest/internal/runtime"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// GoRuntime runs a strategy that is written as a Go struct.
// A panic inside the strategy is turned into a StrategyRuntimeError instead of
// tearing down the engine.
type GoRuntime struct {
	strategy runtime.StrategyRuntime
	log      log.Log
}

func NewGoRuntime(strategy runtime.StrategyRuntime) runtime.StrategyRuntime {
	return &GoRuntime{
		strategy: strategy,
	}
}

// Initialize implements StrategyRuntime.
func (g *GoRuntime) Initialize(ctx runtime.RuntimeContext) (err error) {
	if g.strategy == nil {
		return errors.New(errors.ErrCodeStrategyNotLoaded, "strategy is not loaded")
	}

	g.log = ctx.Log

	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf(errors.ErrCodeStrategyRuntimeError, "strategy %s panicked during initialize: %v", g.strategy.Name(), r)
		}
	}()

	return g.strategy.Initialize(ctx)
}

// Name implements StrategyRuntime.
func (g *GoRuntime) Name() string {
	if g.strategy == nil {
		return ""
	}

	return g.strategy.Name()
}

// OnBar implements StrategyRuntime.
func (g *GoRuntime) OnBar(bar types.Bar, account types.AccountInfo) (intents []types.OrderIntent, err error) {
	if g.strategy == nil {
		return nil, errors.New(errors.ErrCodeStrategyNotLoaded, "strategy is not loaded")
	}

	defer func() {
		if r := recover(); r != nil {
			intents = nil
			err = errors.Newf(errors.ErrCodeStrategyRuntimeError, "strategy %s panicked on bar %s: %v", g.strategy.Name(), bar.Time, r)
		}
	}()

	return g.strategy.OnBar(bar, account)
}

// OnOrderEvent implements StrategyRuntime. A panic is recorded as a strategy_error event.
func (g *GoRuntime) OnOrderEvent(event types.OrderEvent) (intents []types.OrderIntent) {
	if g.strategy == nil {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			intents = nil

			if g.log != nil {
				_ = g.log.Log(log.LogEntry{
					Timestamp: event.Time,
					Level:     types.LogLevelError,
					Type:      types.EventTypeStrategyError,
					OrderID:   event.OrderID,
					Message:   fmt.Sprintf("strategy %s panicked on order event: %v", g.strategy.Name(), r),
				})
			}
		}
	}()

	return g.strategy.OnOrderEvent(event)
}
