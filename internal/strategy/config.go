package strategy

import (
	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// Config holds the dual moving average strategy parameters.
type Config struct {
	// MAType selects the average used for both the fast and the slow line.
	MAType     types.IndicatorType `yaml:"ma_type" json:"ma_type" jsonschema:"title=Moving average type,enum=ma,enum=ema,default=ma" validate:"required,oneof=ma ema"`
	FastPeriod int                 `yaml:"fast_period" json:"fast_period" jsonschema:"title=Fast period,minimum=1,default=10" validate:"gt=0,ltfield=SlowPeriod"`
	SlowPeriod int                 `yaml:"slow_period" json:"slow_period" jsonschema:"title=Slow period,minimum=2,default=30" validate:"gt=0"`
	RSIPeriod  int                 `yaml:"rsi_period" json:"rsi_period" jsonschema:"title=RSI period,minimum=1,default=14" validate:"gt=0"`
	// RSIUpper blocks long entries and forces long exits when the RSI is above it.
	// Short strategies use 100 - RSIUpper as the mirrored threshold.
	RSIUpper float64 `yaml:"rsi_upper" json:"rsi_upper" jsonschema:"title=RSI upper threshold,exclusiveMinimum=0,exclusiveMaximum=100,default=70" validate:"gt=0,lt=100"`
	// StopLossDistance is the distance in price units between the entry and the protective stop.
	StopLossDistance float64         `yaml:"stop_loss_distance" json:"stop_loss_distance" jsonschema:"title=Stop loss distance,exclusiveMinimum=0" validate:"gt=0"`
	Direction        types.Direction `yaml:"direction" json:"direction" jsonschema:"title=Direction,enum=long,enum=short,default=long" validate:"required,oneof=long short"`
}

// DefaultConfig returns the defaults. StopLossDistance has no sensible default and must be set.
func DefaultConfig() Config {
	return Config{
		MAType:     types.IndicatorTypeMA,
		FastPeriod: 10,
		SlowPeriod: 30,
		RSIPeriod:  14,
		RSIUpper:   70,
		Direction:  types.DirectionLong,
	}
}

// Validate validates the Config struct.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid strategy config", err)
	}

	return nil
}
