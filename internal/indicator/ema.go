package indicator

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// EMA indicator implements Exponential Moving Average calculation.
// The first value is the simple average of the first period inputs.
type EMA struct {
	period int
	count  int
	seed   float64
	value  optional.Option[float64]
}

// NewEMA creates a new EMA indicator with default configuration.
func NewEMA() Indicator {
	e := &EMA{}
	e.setPeriod(20) // Default period

	return e
}

// Name returns the name of the indicator.
func (e *EMA) Name() types.IndicatorType {
	return types.IndicatorTypeEMA
}

// Config configures the EMA indicator. Expected parameters: period (int).
func (e *EMA) Config(params ...any) error {
	if len(params) != 1 {
		return errors.New(errors.ErrCodeInvalidParameter, "Config expects 1 parameter: period (int)")
	}

	period, err := parsePeriod(params[0])
	if err != nil {
		return err
	}

	e.setPeriod(period)

	return nil
}

func (e *EMA) setPeriod(period int) {
	e.period = period
	e.Reset()
}

func (e *EMA) Period() int {
	return e.period
}

func (e *EMA) Update(value float64) optional.Option[float64] {
	if e.value.IsSome() {
		alpha := 2.0 / float64(e.period+1)
		e.value = optional.Some(alpha*value + (1-alpha)*e.value.Unwrap())

		return e.value
	}

	e.count++
	e.seed += value

	if e.count == e.period {
		e.value = optional.Some(e.seed / float64(e.period))
	}

	return e.value
}

func (e *EMA) Value() optional.Option[float64] {
	return e.value
}

func (e *EMA) Reset() {
	e.count = 0
	e.seed = 0
	e.value = optional.None[float64]()
}
