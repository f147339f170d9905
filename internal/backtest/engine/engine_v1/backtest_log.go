package engine

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-backtest/internal/log"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"go.uber.org/zap"
)

// EventsFileName is the parquet file BacktestLog.Write produces.
const EventsFileName = "events.parquet"

// BacktestLog implements the Log interface for a backtest run.
// It records every run event in an in-memory DuckDB table.
type BacktestLog struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewBacktestLog creates a new instance of BacktestLog.
func NewBacktestLog(logger *logger.Logger) (*BacktestLog, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		logger.Error("Failed to open database", zap.Error(err))

		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		logger.Error("Failed to connect to database", zap.Error(err))
		db.Close()

		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	eventLog := &BacktestLog{
		logger: logger,
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}

	if err := eventLog.initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return eventLog, nil
}

// Log implements the Log interface. It records an event.
func (l *BacktestLog) Log(entry log.LogEntry) error {
	if l == nil || l.db == nil {
		return fmt.Errorf("backtest log or database is nil")
	}

	var fieldsJSON string

	if len(entry.Fields) > 0 {
		fieldsBytes, err := json.Marshal(entry.Fields)
		if err != nil {
			return fmt.Errorf("failed to marshal fields to JSON: %w", err)
		}

		fieldsJSON = string(fieldsBytes)
	}

	_, err := l.sq.
		Insert("events").
		Columns("id", "timestamp", "symbol", "level", "type", "order_id", "message", "fields").
		Values(squirrel.Expr("nextval('event_id_seq')"), entry.Timestamp, entry.Symbol, string(entry.Level),
			string(entry.Type), entry.OrderID, entry.Message, fieldsJSON).
		RunWith(l.db).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	return nil
}

// GetLogs implements the Log interface. It returns all recorded events in insertion order.
func (l *BacktestLog) GetLogs() ([]log.LogEntry, error) {
	if l == nil || l.db == nil {
		return nil, fmt.Errorf("backtest log or database is nil")
	}

	rows, err := l.sq.Select("timestamp", "symbol", "level", "type", "order_id", "message", "fields").
		From("events").
		OrderBy("id ASC").
		RunWith(l.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Write saves the events to a Parquet file in the specified directory.
func (l *BacktestLog) Write(path string) error {
	if l == nil || l.db == nil || l.logger == nil {
		return fmt.Errorf("backtest log, database, or logger is nil")
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	eventsPath := filepath.Join(path, EventsFileName)

	_, err := l.db.Exec(fmt.Sprintf(`COPY (SELECT * FROM events ORDER BY id) TO '%s' (FORMAT PARQUET)`,
		strings.ReplaceAll(eventsPath, "'", "''")))
	if err != nil {
		return fmt.Errorf("failed to export events to Parquet: %w", err)
	}

	l.logger.Info("Successfully exported events to Parquet file",
		zap.String("events", eventsPath),
	)

	return nil
}

// Close closes the database connection.
func (l *BacktestLog) Close() error {
	if l == nil || l.db == nil {
		return nil
	}

	return l.db.Close()
}

func scanEntries(rows *sql.Rows) ([]log.LogEntry, error) {
	var entries []log.LogEntry

	for rows.Next() {
		var (
			entry      log.LogEntry
			level      string
			eventType  string
			fieldsJSON sql.NullString
		)

		err := rows.Scan(&entry.Timestamp, &entry.Symbol, &level, &eventType, &entry.OrderID, &entry.Message, &fieldsJSON)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		entry.Level = types.LogLevel(level)
		entry.Type = types.EventType(eventType)

		if fieldsJSON.Valid && fieldsJSON.String != "" {
			var fields map[string]string
			if err := json.Unmarshal([]byte(fieldsJSON.String), &fields); err != nil {
				return nil, fmt.Errorf("failed to unmarshal fields from JSON: %w", err)
			}

			entry.Fields = fields
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return entries, nil
}

func (l *BacktestLog) initialize() error {
	if l == nil || l.db == nil {
		return fmt.Errorf("backtest log or database is nil")
	}

	_, err := l.db.Exec(`CREATE SEQUENCE IF NOT EXISTS event_id_seq`)
	if err != nil {
		return fmt.Errorf("failed to create sequence: %w", err)
	}

	_, err = l.db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY,
			timestamp TIMESTAMP,
			symbol TEXT,
			level TEXT,
			type TEXT,
			order_id TEXT,
			message TEXT,
			fields TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create events table: %w", err)
	}

	return nil
}
