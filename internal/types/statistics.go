package types

import (
	"time"

	"github.com/moznion/go-optional"
)

// RunStatistics summarises one backtest run.
// Ratios that have no defined value (for example a win rate with zero trades) are None.
type RunStatistics struct {
	// ID is the unique identifier for this backtest run.
	ID string
	// Timestamp is when this backtest run was executed.
	Timestamp time.Time
	Symbol    string
	// Bars is the number of bars simulated.
	Bars int

	InitialValue float64
	FinalValue   float64
	// CumulativeReturn is final/initial - 1.
	CumulativeReturn float64
	// AnnualizedReturn is (final/initial)^(periods_per_year/bars) - 1.
	AnnualizedReturn optional.Option[float64]

	// MaxDrawdown is the largest peak-to-trough decline as a fraction of the peak.
	MaxDrawdown float64
	// MaxDrawdownValue is the money lost in that deepest decline.
	MaxDrawdownValue float64
	// MaxDrawdownDuration is the longest run of bars spent below a prior peak. It is
	// measured on its own and need not be the length of the MaxDrawdown decline.
	MaxDrawdownDuration int
	SharpeRatio         optional.Option[float64]

	TradeCount    int
	WinningTrades int
	LosingTrades  int
	WinRate       optional.Option[float64]
	AverageWin    optional.Option[float64]
	// AverageLoss is reported as a negative number.
	AverageLoss     optional.Option[float64]
	WinLossRatio    optional.Option[float64]
	TotalCommission float64
	RealizedPnL     float64
}
