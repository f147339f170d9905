package log

import (
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"go.uber.org/zap"
)

// ZapLog forwards entries to a zap logger. It does not keep them.
type ZapLog struct {
	logger *logger.Logger
}

func NewZapLog(logger *logger.Logger) *ZapLog {
	return &ZapLog{logger: logger}
}

func (z *ZapLog) Log(entry LogEntry) error {
	fields := make([]zap.Field, 0, len(entry.Fields)+4)
	fields = append(fields,
		zap.Time("time", entry.Timestamp),
		zap.String("symbol", entry.Symbol),
		zap.String("event", string(entry.Type)),
	)

	if entry.OrderID != "" {
		fields = append(fields, zap.String("order_id", entry.OrderID))
	}

	for k, v := range entry.Fields {
		fields = append(fields, zap.String(k, v))
	}

	switch entry.Level {
	case types.LogLevelDebug:
		z.logger.Debug(entry.Message, fields...)
	case types.LogLevelWarn:
		z.logger.Warn(entry.Message, fields...)
	case types.LogLevelError:
		z.logger.Error(entry.Message, fields...)
	default:
		z.logger.Info(entry.Message, fields...)
	}

	return nil
}

// GetLogs always returns nothing.
func (z *ZapLog) GetLogs() ([]LogEntry, error) {
	return nil, nil
}
