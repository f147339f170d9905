package report

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"go.uber.org/zap"
)

// insertBatchSize bounds the number of rows of one INSERT statement.
const insertBatchSize = 500

var tableSchemas = map[string]string{
	"trades": `
		CREATE TABLE trades (
			symbol TEXT,
			direction TEXT,
			entry_time TIMESTAMP,
			exit_time TIMESTAMP,
			entry_price DOUBLE,
			exit_price DOUBLE,
			size BIGINT,
			gross_pnl DOUBLE,
			commission DOUBLE,
			net_pnl DOUBLE,
			exit_reason TEXT,
			bars_held INTEGER,
			entry_order_id TEXT,
			exit_order_id TEXT
		)`,
	"equity": `
		CREATE TABLE equity (
			time TIMESTAMP,
			bar_index INTEGER,
			close DOUBLE,
			cash DOUBLE,
			margin_locked DOUBLE,
			unrealized_pnl DOUBLE,
			portfolio_value DOUBLE,
			position BIGINT
		)`,
	"orders": `
		CREATE TABLE orders (
			id TEXT,
			symbol TEXT,
			side TEXT,
			kind TEXT,
			size BIGINT,
			stop_price DOUBLE,
			status TEXT,
			tag TEXT,
			created_at TIMESTAMP,
			updated_at TIMESTAMP,
			executed_at TIMESTAMP,
			executed_price DOUBLE,
			executed_size BIGINT,
			commission DOUBLE,
			reject_reason TEXT
		)`,
}

// tableOrder is the order tables are created and exported in.
var tableOrder = []string{"trades", "equity", "orders"}

// ParquetWriter collects the records of a run in an in-memory DuckDB and exports
// one parquet file per table.
type ParquetWriter struct {
	db     *sql.DB
	sq     squirrel.StatementBuilderType
	logger *logger.Logger
}

func NewParquetWriter(logger *logger.Logger) (*ParquetWriter, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB connection: %w", err)
	}

	for _, name := range tableOrder {
		if _, err := db.Exec(tableSchemas[name]); err != nil {
			db.Close()

			return nil, fmt.Errorf("failed to create %s table: %w", name, err)
		}
	}

	return &ParquetWriter{
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		logger: logger,
	}, nil
}

func (w *ParquetWriter) WriteTrades(trades []types.TradeRecord) error {
	rows := make([][]any, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, []any{
			t.Symbol, string(t.Direction), t.EntryTime, t.ExitTime, t.EntryPrice, t.ExitPrice,
			t.Size, t.GrossPnL, t.Commission, t.NetPnL, string(t.ExitReason), t.BarsHeld,
			t.EntryOrderID, t.ExitOrderID,
		})
	}

	return w.insert("trades", []string{
		"symbol", "direction", "entry_time", "exit_time", "entry_price", "exit_price",
		"size", "gross_pnl", "commission", "net_pnl", "exit_reason", "bars_held",
		"entry_order_id", "exit_order_id",
	}, rows)
}

func (w *ParquetWriter) WriteEquity(samples []types.EquitySample) error {
	rows := make([][]any, 0, len(samples))
	for _, s := range samples {
		rows = append(rows, []any{
			s.Time, s.BarIndex, s.Close, s.Cash, s.MarginLocked, s.UnrealizedPnL, s.PortfolioValue, s.Position,
		})
	}

	return w.insert("equity", []string{
		"time", "bar_index", "close", "cash", "margin_locked", "unrealized_pnl", "portfolio_value", "position",
	}, rows)
}

func (w *ParquetWriter) WriteOrders(orders []types.Order) error {
	rows := make([][]any, 0, len(orders))
	for _, o := range orders {
		var stopPrice sql.NullFloat64
		if o.StopPrice.IsSome() {
			stopPrice = sql.NullFloat64{Float64: o.StopPrice.Unwrap(), Valid: true}
		}

		rows = append(rows, []any{
			o.ID, o.Symbol, string(o.Side), string(o.Kind), o.Size, stopPrice, string(o.Status), string(o.Tag),
			nullTime(o.CreatedAt), nullTime(o.UpdatedAt), nullTime(o.ExecutedAt),
			o.ExecutedPrice, o.ExecutedSize, o.Commission, o.RejectReason,
		})
	}

	return w.insert("orders", []string{
		"id", "symbol", "side", "kind", "size", "stop_price", "status", "tag",
		"created_at", "updated_at", "executed_at",
		"executed_price", "executed_size", "commission", "reject_reason",
	}, rows)
}

// Export writes <table>.parquet for every table into folder.
func (w *ParquetWriter) Export(folder string) error {
	if err := os.MkdirAll(folder, 0755); err != nil {
		return fmt.Errorf("failed to create results folder: %w", err)
	}

	for _, name := range tableOrder {
		path := filepath.Join(folder, name+".parquet")

		_, err := w.db.Exec(fmt.Sprintf(`COPY %s TO '%s' (FORMAT PARQUET)`, name, strings.ReplaceAll(path, "'", "''")))
		if err != nil {
			return fmt.Errorf("failed to export %s to parquet: %w", name, err)
		}

		w.logger.Debug("Exported table", zap.String("table", name), zap.String("path", path))
	}

	return nil
}

// Count returns the number of rows in a table.
func (w *ParquetWriter) Count(table string) (int, error) {
	var count int

	err := w.sq.Select("COUNT(*)").From(table).RunWith(w.db).QueryRow().Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}

	return count, nil
}

func (w *ParquetWriter) Close() error {
	if w.db == nil {
		return nil
	}

	return w.db.Close()
}

func (w *ParquetWriter) insert(table string, columns []string, rows [][]any) error {
	for start := 0; start < len(rows); start += insertBatchSize {
		end := min(start+insertBatchSize, len(rows))

		builder := w.sq.Insert(table).Columns(columns...)
		for _, row := range rows[start:end] {
			builder = builder.Values(row...)
		}

		if _, err := builder.RunWith(w.db).Exec(); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}

	return nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
