package strategy

import (
	"fmt"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// SignalGenerator turns closes into entry and exit signals from a fast/slow
// average crossover filtered by the RSI.
type SignalGenerator struct {
	fast      indicator.Indicator
	slow      indicator.Indicator
	rsi       indicator.Indicator
	crossover *indicator.Crossover
	rsiUpper  float64
	direction types.Direction
}

func NewSignalGenerator(registry indicator.IndicatorRegistry, config Config) (*SignalGenerator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	fast, err := registry.NewIndicator(config.MAType, config.FastPeriod)
	if err != nil {
		return nil, fmt.Errorf("failed to create fast average: %w", err)
	}

	slow, err := registry.NewIndicator(config.MAType, config.SlowPeriod)
	if err != nil {
		return nil, fmt.Errorf("failed to create slow average: %w", err)
	}

	rsi, err := registry.NewIndicator(types.IndicatorTypeRSI, config.RSIPeriod)
	if err != nil {
		return nil, fmt.Errorf("failed to create rsi: %w", err)
	}

	return &SignalGenerator{
		fast:      fast,
		slow:      slow,
		rsi:       rsi,
		crossover: indicator.NewCrossover(),
		rsiUpper:  config.RSIUpper,
		direction: config.Direction,
	}, nil
}

// Update consumes one bar and returns the signal for it.
// Entry needs a crossover in the strategy direction on this very bar with the RSI
// not yet stretched. An unseeded RSI neither blocks an entry nor forces an exit.
func (g *SignalGenerator) Update(bar types.Bar) types.Signal {
	fast := g.fast.Update(bar.Close)
	slow := g.slow.Update(bar.Close)
	rsi := g.rsi.Update(bar.Close)
	cross := g.crossover.Update(fast, slow)

	signal := types.Signal{
		Time:      bar.Time,
		Type:      types.SignalTypeNoAction,
		Symbol:    bar.Symbol,
		Crossover: cross,
		Fast:      fast,
		Slow:      slow,
		RSI:       rsi,
	}

	crossValue := cross.TakeOr(0)

	if g.direction == types.DirectionShort {
		lower := 100 - g.rsiUpper

		switch {
		case crossValue == -1 && (rsi.IsNone() || rsi.Unwrap() > lower):
			signal.Type = types.SignalTypeSellShort
			signal.Reason = "fast average crossed below slow average"
		case crossValue == 1:
			signal.Type = types.SignalTypeClosePosition
			signal.Reason = "fast average crossed above slow average"
		case rsiBelow(rsi, lower):
			signal.Type = types.SignalTypeClosePosition
			signal.Reason = fmt.Sprintf("rsi %.2f below %.2f", rsi.Unwrap(), lower)
		}

		return signal
	}

	switch {
	case crossValue == 1 && (rsi.IsNone() || rsi.Unwrap() < g.rsiUpper):
		signal.Type = types.SignalTypeBuyLong
		signal.Reason = "fast average crossed above slow average"
	case crossValue == -1:
		signal.Type = types.SignalTypeClosePosition
		signal.Reason = "fast average crossed below slow average"
	case rsiAbove(rsi, g.rsiUpper):
		signal.Type = types.SignalTypeClosePosition
		signal.Reason = fmt.Sprintf("rsi %.2f above %.2f", rsi.Unwrap(), g.rsiUpper)
	}

	return signal
}

// EntrySignal is the signal type that opens a position for the configured direction.
func (g *SignalGenerator) EntrySignal() types.SignalType {
	if g.direction == types.DirectionShort {
		return types.SignalTypeSellShort
	}

	return types.SignalTypeBuyLong
}

func rsiAbove(rsi optional.Option[float64], threshold float64) bool {
	return rsi.IsSome() && rsi.Unwrap() > threshold
}

func rsiBelow(rsi optional.Option[float64], threshold float64) bool {
	return rsi.IsSome() && rsi.Unwrap() < threshold
}
