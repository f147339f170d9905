package indicator

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// MA indicator implements Simple Moving Average calculation.
type MA struct {
	period int
	window []float64
	next   int
	count  int
	sum    float64
	value  optional.Option[float64]
}

// NewMA creates a new MA indicator with default configuration.
func NewMA() Indicator {
	m := &MA{}
	m.setPeriod(20) // Default period

	return m
}

// Name returns the name of the indicator.
func (m *MA) Name() types.IndicatorType {
	return types.IndicatorTypeMA
}

// Config configures the MA indicator. Expected parameters: period (int).
func (m *MA) Config(params ...any) error {
	if len(params) != 1 {
		return errors.New(errors.ErrCodeInvalidParameter, "Config expects 1 parameter: period (int)")
	}

	period, err := parsePeriod(params[0])
	if err != nil {
		return err
	}

	m.setPeriod(period)

	return nil
}

func (m *MA) setPeriod(period int) {
	m.period = period
	m.Reset()
}

func (m *MA) Period() int {
	return m.period
}

// Update adds a value to the window. The average is available once period values were seen.
func (m *MA) Update(value float64) optional.Option[float64] {
	if m.count == m.period {
		m.sum -= m.window[m.next]
	} else {
		m.count++
	}

	m.window[m.next] = value
	m.sum += value
	m.next = (m.next + 1) % m.period

	if m.count < m.period {
		return m.value
	}

	m.value = optional.Some(m.sum / float64(m.period))

	return m.value
}

func (m *MA) Value() optional.Option[float64] {
	return m.value
}

func (m *MA) Reset() {
	m.window = make([]float64, m.period)
	m.next = 0
	m.count = 0
	m.sum = 0
	m.value = optional.None[float64]()
}
