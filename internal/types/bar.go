package types

import (
	"math"
	"time"

	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// Bar is one OHLCV observation of an instrument. Bars are immutable values.
type Bar struct {
	Time         time.Time `yaml:"time" json:"time" csv:"time"`
	Symbol       string    `yaml:"symbol" json:"symbol" csv:"symbol"`
	Open         float64   `yaml:"open" json:"open" csv:"open"`
	High         float64   `yaml:"high" json:"high" csv:"high"`
	Low          float64   `yaml:"low" json:"low" csv:"low"`
	Close        float64   `yaml:"close" json:"close" csv:"close"`
	Volume       float64   `yaml:"volume" json:"volume" csv:"volume"`
	OpenInterest float64   `yaml:"open_interest" json:"open_interest" csv:"open_interest"`
}

// Validate checks the prices of a single bar. It does not know about the bar's
// neighbours; ordering is checked by the engine.
func (b Bar) Validate() error {
	prices := []struct {
		field string
		value float64
	}{
		{"open", b.Open},
		{"high", b.High},
		{"low", b.Low},
		{"close", b.Close},
	}

	for _, p := range prices {
		if math.IsNaN(p.value) || math.IsInf(p.value, 0) {
			return errors.Newf(errors.ErrCodeInvalidBarSequence, "field %s is not finite", p.field)
		}

		if p.value <= 0 {
			return errors.Newf(errors.ErrCodeInvalidBarSequence, "field %s must be positive, got %v", p.field, p.value)
		}
	}

	if b.Low > math.Min(b.Open, b.Close) {
		return errors.Newf(errors.ErrCodeInvalidBarSequence, "field low %v is above min(open, close)", b.Low)
	}

	if b.High < math.Max(b.Open, b.Close) {
		return errors.Newf(errors.ErrCodeInvalidBarSequence, "field high %v is below max(open, close)", b.High)
	}

	if b.Volume < 0 || math.IsNaN(b.Volume) {
		return errors.Newf(errors.ErrCodeInvalidBarSequence, "field volume %v is invalid", b.Volume)
	}

	return nil
}
