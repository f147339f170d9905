package stats

import (
	"math"

	"github.com/moznion/go-optional"
)

// Drawdown is the worst peak-to-trough decline of an equity curve.
// Fraction and Duration are tracked independently: the deepest decline and the
// longest underwater stretch may belong to different drawdowns.
type Drawdown struct {
	// Fraction of the peak that was lost in the deepest decline.
	Fraction float64
	// Value is the money lost in that deepest decline.
	Value float64
	// Duration is the longest run of consecutive bars spent below a prior peak,
	// whichever drawdown it belongs to.
	Duration int
}

// CumulativeReturn is final/initial - 1, undefined for a non-positive initial value.
func CumulativeReturn(initial float64, final float64) optional.Option[float64] {
	if initial <= 0 {
		return optional.None[float64]()
	}

	return optional.Some(final/initial - 1)
}

// AnnualizedReturn compounds the cumulative return over periodsPerYear/bars:
// (final/initial)^(periodsPerYear/bars) - 1.
func AnnualizedReturn(initial float64, final float64, bars int, periodsPerYear int) optional.Option[float64] {
	if initial <= 0 || bars <= 0 || periodsPerYear <= 0 {
		return optional.None[float64]()
	}

	growth := final / initial
	if growth < 0 {
		return optional.None[float64]()
	}

	value := math.Pow(growth, float64(periodsPerYear)/float64(bars)) - 1
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return optional.None[float64]()
	}

	return optional.Some(value)
}

// Returns converts an equity curve into per-bar simple returns.
// The first return is measured against the initial value.
func Returns(initial float64, equity []float64) []float64 {
	returns := make([]float64, 0, len(equity))
	previous := initial

	for _, value := range equity {
		if previous == 0 {
			returns = append(returns, 0)
		} else {
			returns = append(returns, value/previous-1)
		}

		previous = value
	}

	return returns
}

// SharpeRatio annualizes the mean excess per-bar return over its population standard deviation.
// The annual risk free rate is spread evenly over periodsPerYear bars.
// Undefined with fewer than two returns or zero volatility.
func SharpeRatio(returns []float64, riskFreeRate float64, periodsPerYear int) optional.Option[float64] {
	if len(returns) < 2 || periodsPerYear <= 0 {
		return optional.None[float64]()
	}

	perBar := riskFreeRate / float64(periodsPerYear)

	mean := 0.0
	for _, r := range returns {
		mean += r - perBar
	}

	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += math.Pow(r-perBar-mean, 2)
	}

	variance /= float64(len(returns))
	stdDev := math.Sqrt(variance)

	// float noise on a flat curve
	if stdDev < 1e-15 {
		return optional.None[float64]()
	}

	return optional.Some(mean / stdDev * math.Sqrt(float64(periodsPerYear)))
}

// MaxDrawdown walks the equity curve starting from the initial value as the first peak.
func MaxDrawdown(initial float64, equity []float64) Drawdown {
	result := Drawdown{}
	peak := initial
	run := 0

	for _, value := range equity {
		if value >= peak {
			peak = value
			run = 0

			continue
		}

		run++
		if run > result.Duration {
			result.Duration = run
		}

		if peak <= 0 {
			continue
		}

		decline := peak - value
		if decline/peak > result.Fraction {
			result.Fraction = decline / peak
			result.Value = decline
		}
	}

	return result
}
