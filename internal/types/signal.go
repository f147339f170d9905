package types

import (
	"time"

	"github.com/moznion/go-optional"
)

type SignalType string

const (
	// SignalTypeBuyLong tells the strategy to open a long position
	SignalTypeBuyLong SignalType = "buy_long"
	// SignalTypeSellShort tells the strategy to open a short position
	SignalTypeSellShort SignalType = "sell_short"
	// SignalTypeClosePosition tells the strategy to close the open position
	SignalTypeClosePosition SignalType = "close_position"
	// SignalTypeNoAction tells the strategy to take no action
	SignalTypeNoAction SignalType = "no_action"
)

type Signal struct {
	// Time is the time of the bar the signal was computed on
	Time time.Time
	// Type is the type of the signal
	Type SignalType
	// Reason is a short human readable explanation
	Reason string
	// Symbol is the symbol of the signal
	Symbol string
	// Crossover is +1, -1 or 0. It is None until both averages are seeded.
	Crossover optional.Option[int]
	Fast      optional.Option[float64]
	Slow      optional.Option[float64]
	RSI       optional.Option[float64]
}
