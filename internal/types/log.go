package types

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// EventType names what happened during a run.
type EventType string

const (
	EventTypeOrderSubmitted     EventType = "order_submitted"
	EventTypeOrderFilled        EventType = "order_filled"
	EventTypeOrderCanceled      EventType = "order_canceled"
	EventTypeOrderRejected      EventType = "order_rejected"
	EventTypeMarginInsufficient EventType = "margin_insufficient"
	EventTypeSizingDegenerate   EventType = "sizing_degenerate"
	EventTypeSignal             EventType = "signal"
	EventTypeTradeClosed        EventType = "trade_closed"
	EventTypeStrategyError      EventType = "strategy_error"
)
