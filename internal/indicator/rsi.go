package indicator

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// RSI represents the Relative Strength Index indicator with Wilder's smoothing.
// It needs period+1 values before the first reading.
type RSI struct {
	period int

	previous optional.Option[float64]
	changes  int
	avgGain  float64
	avgLoss  float64
	value    optional.Option[float64]
}

// NewRSI creates a new RSI indicator with default configuration.
func NewRSI() Indicator {
	r := &RSI{}
	r.setPeriod(14) // Default period

	return r
}

// Name returns the name of the indicator.
func (r *RSI) Name() types.IndicatorType {
	return types.IndicatorTypeRSI
}

// Config configures the RSI indicator. Expected parameters: period (int).
func (r *RSI) Config(params ...any) error {
	if len(params) != 1 {
		return errors.New(errors.ErrCodeInvalidParameter, "Config expects 1 parameter: period (int)")
	}

	period, err := parsePeriod(params[0])
	if err != nil {
		return err
	}

	r.setPeriod(period)

	return nil
}

func (r *RSI) setPeriod(period int) {
	r.period = period
	r.Reset()
}

func (r *RSI) Period() int {
	return r.period
}

func (r *RSI) Update(value float64) optional.Option[float64] {
	if r.previous.IsNone() {
		r.previous = optional.Some(value)

		return r.value
	}

	change := value - r.previous.Unwrap()
	r.previous = optional.Some(value)

	gain, loss := 0.0, 0.0
	if change > 0 {
		gain = change
	} else {
		loss = -change
	}

	period := float64(r.period)
	r.changes++

	switch {
	case r.changes < r.period:
		r.avgGain += gain
		r.avgLoss += loss

		return r.value
	case r.changes == r.period:
		// First average
		r.avgGain = (r.avgGain + gain) / period
		r.avgLoss = (r.avgLoss + loss) / period
	default:
		r.avgGain = (r.avgGain*(period-1) + gain) / period
		r.avgLoss = (r.avgLoss*(period-1) + loss) / period
	}

	if r.avgLoss == 0 {
		r.value = optional.Some(100.0) // Perfect uptrend

		return r.value
	}

	rs := r.avgGain / r.avgLoss
	r.value = optional.Some(100 - (100 / (1 + rs)))

	return r.value
}

func (r *RSI) Value() optional.Option[float64] {
	return r.value
}

func (r *RSI) Reset() {
	r.previous = optional.None[float64]()
	r.changes = 0
	r.avgGain = 0
	r.avgLoss = 0
	r.value = optional.None[float64]()
}
