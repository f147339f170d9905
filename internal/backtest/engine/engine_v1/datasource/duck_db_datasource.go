package datasource

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"go.uber.org/zap"
)

const (
	rawView    = "raw_market_data"
	marketView = "market_data"
)

// Accepted spellings of each column, first match wins.
var (
	timeColumns         = []string{"time", "datetime", "timestamp", "date"}
	symbolColumns       = []string{"symbol", "instrument"}
	volumeColumns       = []string{"volume", "vol"}
	openInterestColumns = []string{"open_interest", "openinterest", "hold"}
)

type DuckDBDataSource struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewDataSource creates a new DuckDB data source instance with the specified database path.
// An empty path opens an in-memory database.
// This is distinct from Initialize() which loads market data into the database.
func NewDataSource(path string, logger *logger.Logger) (DataSource, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		SET memory_limit='2GB';
		SET threads=4;
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to set DuckDB options: %w", err)
	}

	return &DuckDBDataSource{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Initialize implements DataSource.
// The file is exposed as a raw view, then normalized into the market_data view with
// the columns time, symbol, open, high, low, close, volume and open_interest.
func (d *DuckDBDataSource) Initialize(path string) error {
	d.logger.Debug("Initializing DuckDB data source", zap.String("path", path))

	_, err := d.db.Exec(fmt.Sprintf("DROP VIEW IF EXISTS %s; DROP VIEW IF EXISTS %s;", marketView, rawView))
	if err != nil {
		return fmt.Errorf("failed to drop existing views: %w", err)
	}

	// CREATE VIEW is not supported by squirrel
	_, err = d.db.Exec(fmt.Sprintf("CREATE VIEW %s AS SELECT * FROM %s;", rawView, readFunction(path)))
	if err != nil {
		return errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to read market data from %s", path)
	}

	columns, err := d.columns()
	if err != nil {
		return err
	}

	selectList, err := normalizedColumns(columns)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "market data at %s", path)
	}

	_, err = d.db.Exec(fmt.Sprintf("CREATE VIEW %s AS SELECT %s FROM %s;", marketView, strings.Join(selectList, ", "), rawView))
	if err != nil {
		return fmt.Errorf("failed to create market data view: %w", err)
	}

	return nil
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	query, args, err := withWindow(d.sq.Select("COUNT(*)").From(marketView), start, end).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var count int

	err = d.db.QueryRow(query, args...).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count market data", err)
	}

	return count, nil
}

// ReadAll implements DataSource with batch processing.
func (d *DuckDBDataSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Bar, error) bool) {
	const batchSize = 1000

	return func(yield func(types.Bar, error) bool) {
		d.logger.Debug("Reading all data from DuckDB with batch processing")

		query, args, err := withWindow(
			d.sq.Select("time", "symbol", "open", "high", "low", "close", "volume", "open_interest").From(marketView),
			start, end,
		).OrderBy("time ASC").ToSql()
		if err != nil {
			yield(types.Bar{}, fmt.Errorf("failed to build read query: %w", err))

			return
		}

		stmt, err := d.db.Prepare(query)
		if err != nil {
			yield(types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to prepare read query", err))

			return
		}
		defer stmt.Close()

		rows, err := stmt.Query(args...)
		if err != nil {
			yield(types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query market data", err))

			return
		}
		defer rows.Close()

		batch := make([]types.Bar, 0, batchSize)

		for rows.Next() {
			var bar types.Bar

			err := rows.Scan(&bar.Time, &bar.Symbol, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume, &bar.OpenInterest)
			if err != nil {
				yield(types.Bar{}, fmt.Errorf("failed to scan row: %w", err))

				return
			}

			batch = append(batch, bar)

			if len(batch) >= batchSize {
				for _, b := range batch {
					if !yield(b, nil) {
						return
					}
				}

				batch = batch[:0]
			}
		}

		if err := rows.Err(); err != nil {
			yield(types.Bar{}, fmt.Errorf("error iterating rows: %w", err))

			return
		}

		for _, b := range batch {
			if !yield(b, nil) {
				return
			}
		}
	}
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	return d.db.Close()
}

func (d *DuckDBDataSource) columns() (map[string]string, error) {
	query, args, err := d.sq.Select("column_name").
		From("information_schema.columns").
		Where(squirrel.Eq{"table_name": rawView}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build column query: %w", err)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to list market data columns", err)
	}
	defer rows.Close()

	// lower-cased name -> name as written in the file
	columns := make(map[string]string)

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan column name: %w", err)
		}

		columns[strings.ToLower(name)] = name
	}

	return columns, rows.Err()
}

func normalizedColumns(columns map[string]string) ([]string, error) {
	timeColumn, ok := pickColumn(columns, timeColumns)
	if !ok {
		return nil, fmt.Errorf("no time column (expected one of %s)", strings.Join(timeColumns, ", "))
	}

	selectList := []string{fmt.Sprintf("CAST(%s AS TIMESTAMP) AS time", quote(timeColumn))}

	if symbol, ok := pickColumn(columns, symbolColumns); ok {
		selectList = append(selectList, fmt.Sprintf("CAST(%s AS VARCHAR) AS symbol", quote(symbol)))
	} else {
		selectList = append(selectList, "'' AS symbol")
	}

	for _, name := range []string{"open", "high", "low", "close"} {
		column, ok := columns[name]
		if !ok {
			return nil, fmt.Errorf("no %s column", name)
		}

		selectList = append(selectList, fmt.Sprintf("CAST(%s AS DOUBLE) AS %s", quote(column), name))
	}

	selectList = append(selectList, optionalDouble(columns, volumeColumns, "volume"))
	selectList = append(selectList, optionalDouble(columns, openInterestColumns, "open_interest"))

	return selectList, nil
}

func optionalDouble(columns map[string]string, candidates []string, alias string) string {
	if column, ok := pickColumn(columns, candidates); ok {
		return fmt.Sprintf("COALESCE(CAST(%s AS DOUBLE), 0) AS %s", quote(column), alias)
	}

	return fmt.Sprintf("CAST(0 AS DOUBLE) AS %s", alias)
}

func pickColumn(columns map[string]string, candidates []string) (string, bool) {
	for _, candidate := range candidates {
		if column, ok := columns[candidate]; ok {
			return column, true
		}
	}

	return "", false
}

func withWindow(builder squirrel.SelectBuilder, start optional.Option[time.Time], end optional.Option[time.Time]) squirrel.SelectBuilder {
	if start.IsSome() {
		builder = builder.Where(squirrel.GtOrEq{"time": start.Unwrap()})
	}

	if end.IsSome() {
		builder = builder.Where(squirrel.LtOrEq{"time": end.Unwrap()})
	}

	return builder
}

func readFunction(path string) string {
	escaped := strings.ReplaceAll(path, "'", "''")

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return fmt.Sprintf("read_csv_auto('%s', header=true)", escaped)
	default:
		return fmt.Sprintf("read_parquet('%s')", escaped)
	}
}

func quote(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}
