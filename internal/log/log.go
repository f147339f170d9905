package log

import (
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// LogEntry represents a single event recorded during a run.
type LogEntry struct {
	// Timestamp is the market data time when this log was created.
	Timestamp time.Time
	// Symbol is the trading symbol associated with this log.
	Symbol string
	// Level is the severity level of the log.
	Level types.LogLevel
	// Type names the event, for example order_filled.
	Type types.EventType
	// OrderID is set for order events.
	OrderID string
	// Message is the log message content.
	Message string
	// Fields contains optional structured key-value data.
	Fields map[string]string
}

// Log is the interface for storing strategy logs.
type Log interface {
	// Log stores a log entry.
	Log(entry LogEntry) error
	// GetLogs retrieves all stored log entries.
	GetLogs() ([]LogEntry, error)
}
