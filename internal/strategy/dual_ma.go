package strategy

import (
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/rxtech-lab/argo-backtest/internal/log"
	"github.com/rxtech-lab/argo-backtest/internal/runtime"
	"github.com/rxtech-lab/argo-backtest/internal/sizing"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// DualMAStrategy enters on a fast/slow average crossover filtered by the RSI,
// protects the position with a stop and exits on the opposite crossover.
type DualMAStrategy struct {
	config       Config
	sizingConfig sizing.Config

	signals   *SignalGenerator
	sizer     sizing.Sizer
	lifecycle *Lifecycle
	log       log.Log

	closeRequested atomic.Bool
}

func NewDualMAStrategy(config Config, sizingConfig sizing.Config) *DualMAStrategy {
	return &DualMAStrategy{
		config:       config,
		sizingConfig: sizingConfig,
	}
}

func (s *DualMAStrategy) Name() string {
	return fmt.Sprintf("dual_%s_%d_%d_rsi_%d", s.config.MAType, s.config.FastPeriod, s.config.SlowPeriod, s.config.RSIPeriod)
}

func (s *DualMAStrategy) Initialize(ctx runtime.RuntimeContext) error {
	if ctx.IndicatorRegistry == nil {
		return errors.New(errors.ErrCodeStrategyNotLoaded, "indicator registry is required")
	}

	signals, err := NewSignalGenerator(ctx.IndicatorRegistry, s.config)
	if err != nil {
		return err
	}

	sizer, err := sizing.NewSizer(s.sizingConfig, ctx.Contract, ctx.CommissionFee)
	if err != nil {
		return err
	}

	s.signals = signals
	s.sizer = sizer
	s.log = ctx.Log
	s.lifecycle = NewLifecycle(ctx.Contract.Symbol, s.config.Direction, s.config.StopLossDistance, ctx.Log)

	return nil
}

// RequestClose asks the strategy to flatten the open position on the next bar.
// It is ignored when no position is open by then.
func (s *DualMAStrategy) RequestClose() {
	s.closeRequested.Store(true)
}

// Lifecycle exposes the order state machine for inspection.
func (s *DualMAStrategy) Lifecycle() *Lifecycle {
	return s.lifecycle
}

func (s *DualMAStrategy) OnBar(bar types.Bar, account types.AccountInfo) ([]types.OrderIntent, error) {
	if s.lifecycle == nil {
		return nil, errors.New(errors.ErrCodeStrategyNotLoaded, "strategy is not initialized")
	}

	s.lifecycle.BeginBar(bar.Time)

	signal := s.signals.Update(bar)
	if signal.Type != types.SignalTypeNoAction {
		s.logSignal(signal)
	}

	closeRequested := s.closeRequested.Swap(false)

	switch s.lifecycle.State() {
	case StateIdle:
		if signal.Type != s.signals.EntrySignal() {
			return nil, nil
		}

		size := s.sizer.Size(sizing.Input{
			Price:            bar.Close,
			AccountValue:     account.PortfolioValue,
			Cash:             account.Cash,
			StopLossDistance: s.config.StopLossDistance,
		})

		intents, err := s.lifecycle.Enter(bar.Time, size)
		if errors.HasCode(err, errors.ErrCodeSizingDegenerate) {
			// Already reported as an event, skip this entry.
			return nil, nil
		}

		return intents, err
	case StateOpen:
		switch {
		case signal.Type == types.SignalTypeClosePosition:
			return s.lifecycle.RequestClose(bar.Time, signal.Reason)
		case closeRequested:
			return s.lifecycle.RequestClose(bar.Time, "close requested")
		case s.lifecycle.NeedsProtection():
			return s.lifecycle.RequestClose(bar.Time, "position has no protective stop")
		}
	}

	return nil, nil
}

func (s *DualMAStrategy) OnOrderEvent(event types.OrderEvent) []types.OrderIntent {
	if s.lifecycle == nil {
		return nil
	}

	return s.lifecycle.OnOrderEvent(event)
}

func (s *DualMAStrategy) logSignal(signal types.Signal) {
	if s.log == nil {
		return
	}

	fields := map[string]string{"signal": string(signal.Type)}
	if signal.Fast.IsSome() {
		fields["fast"] = strconv.FormatFloat(signal.Fast.Unwrap(), 'f', -1, 64)
	}

	if signal.Slow.IsSome() {
		fields["slow"] = strconv.FormatFloat(signal.Slow.Unwrap(), 'f', -1, 64)
	}

	if signal.RSI.IsSome() {
		fields["rsi"] = strconv.FormatFloat(signal.RSI.Unwrap(), 'f', -1, 64)
	}

	_ = s.log.Log(log.LogEntry{
		Timestamp: signal.Time,
		Symbol:    signal.Symbol,
		Level:     types.LogLevelDebug,
		Type:      types.EventTypeSignal,
		Message:   signal.Reason,
		Fields:    fields,
	})
}
