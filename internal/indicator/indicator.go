package indicator

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// Indicator is a streaming technical indicator fed one value per bar.
type Indicator interface {
	// Name returns the name of the indicator
	Name() types.IndicatorType
	// Config applies indicator specific parameters, usually the period
	Config(params ...any) error
	// Update consumes the next value and returns the indicator value, None until seeded
	Update(value float64) optional.Option[float64]
	// Value returns the last computed value without consuming input
	Value() optional.Option[float64]
	// Period returns the configured look back period
	Period() int
	// Reset forgets all consumed values
	Reset()
}

// parsePeriod accepts the period as an int or a float64 and checks it is positive.
func parsePeriod(param any) (int, error) {
	period, ok := param.(int)
	if !ok {
		periodFloat, ok := param.(float64)
		if !ok {
			return 0, errors.New(errors.ErrCodeInvalidPeriod, "invalid type for period parameter, expected int or float")
		}

		period = int(periodFloat)
	}

	if period <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidPeriod, "period must be a positive integer, got %d", period)
	}

	return period, nil
}
