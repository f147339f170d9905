package types

type IndicatorType string

const (
	IndicatorTypeMA  IndicatorType = "ma"
	IndicatorTypeEMA IndicatorType = "ema"
	IndicatorTypeRSI IndicatorType = "rsi"
)
