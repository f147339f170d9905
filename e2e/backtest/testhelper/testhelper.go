package testhelper

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine"
	v1 "github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-backtest/internal/report"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/mocks"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ContractFile trades RB with a fixed fee and IF with a percentage commission.
const ContractFile = `
RB:
  commission_kind: fixed
  commission: 0.0001
  fixed_fee: 2
  multiplier: 10
  margin: 0.1
IF:
  commission_kind: percentage
  commission: 0.000023
  multiplier: 300
  margin: 0.15
  percentage_mode: percent
`

// E2ETestSuite is a base test suite for E2E tests
type E2ETestSuite struct {
	suite.Suite
	Backtest engine.Engine
	Folder   string
}

// SetupTest initializes the backtest engine and writes the contract file.
func (s *E2ETestSuite) SetupTest(engineConfig string) {
	backtest := v1.NewBacktestEngineV1()
	s.Require().NoError(backtest.Initialize(engineConfig))

	s.Folder = s.T().TempDir()

	contractPath := filepath.Join(s.Folder, "contracts.yaml")
	s.Require().NoError(os.WriteFile(contractPath, []byte(ContractFile), 0644))
	s.Require().NoError(backtest.SetContractPath(contractPath))

	s.Backtest = backtest
}

// RunOnGeneratedData writes a generated bar series to parquet and runs the engine on it.
func RunOnGeneratedData(s *E2ETestSuite, config mocks.GeneratorConfig, seed int64) engine.BacktestResult {
	dataPath := filepath.Join(s.Folder, "data", fmt.Sprintf("%s.parquet", config.Symbol))
	err := WriteBarsParquet(mocks.NewDataGenerator(seed).Generate(config), dataPath)
	require.NoError(s.T(), err)

	require.NoError(s.T(), s.Backtest.SetDataPath(dataPath))
	require.NoError(s.T(), s.Backtest.SetResultsFolder(filepath.Join(s.Folder, "results")))

	result, err := s.Backtest.Run(context.Background(), engine.LifecycleCallbacks{})
	require.NoError(s.T(), err)

	return result
}

// WriteBarsParquet stores bars in a parquet file with the feed's column names.
func WriteBarsParquet(bars []types.Bar, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return fmt.Errorf("failed to open DuckDB connection: %w", err)
	}
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE market_data (
			time TIMESTAMP,
			symbol TEXT,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			volume DOUBLE,
			open_interest DOUBLE
		)`)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	sq := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	for start := 0; start < len(bars); start += 500 {
		end := min(start+500, len(bars))

		insert := sq.Insert("market_data").
			Columns("time", "symbol", "open", "high", "low", "close", "volume", "open_interest")
		for _, bar := range bars[start:end] {
			insert = insert.Values(bar.Time, bar.Symbol, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume, bar.OpenInterest)
		}

		query, args, err := insert.ToSql()
		if err != nil {
			return fmt.Errorf("failed to build insert: %w", err)
		}

		if _, err := db.Exec(query, args...); err != nil {
			return fmt.Errorf("failed to insert bars: %w", err)
		}
	}

	if _, err := db.Exec(fmt.Sprintf(`COPY market_data TO '%s' (FORMAT PARQUET)`, outputPath)); err != nil {
		return fmt.Errorf("failed to export to Parquet: %w", err)
	}

	return nil
}

// ReadTrades reads the trades.parquet of a results folder.
func ReadTrades(s *E2ETestSuite, resultFolder string) ([]types.TradeRecord, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB connection: %w", err)
	}
	defer db.Close()

	tradesPath := filepath.Join(resultFolder, report.TradesFileName)
	require.FileExists(s.T(), tradesPath)

	// Squirrel doesn't support CREATE VIEW
	_, err = db.Exec(fmt.Sprintf(`CREATE VIEW trades_view AS SELECT * FROM read_parquet('%s')`, tradesPath))
	if err != nil {
		return nil, fmt.Errorf("failed to create view from parquet file: %w", err)
	}

	query, args, err := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select("symbol", "direction", "entry_time", "exit_time", "entry_price", "exit_price", "size",
			"gross_pnl", "commission", "net_pnl", "exit_reason", "bars_held", "entry_order_id", "exit_order_id").
		From("trades_view").
		OrderBy("exit_time").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL query: %w", err)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	trades := []types.TradeRecord{}

	for rows.Next() {
		var (
			trade     types.TradeRecord
			direction string
			reason    string
			entryTime time.Time
			exitTime  time.Time
		)

		err := rows.Scan(&trade.Symbol, &direction, &entryTime, &exitTime, &trade.EntryPrice, &trade.ExitPrice,
			&trade.Size, &trade.GrossPnL, &trade.Commission, &trade.NetPnL, &reason, &trade.BarsHeld,
			&trade.EntryOrderID, &trade.ExitOrderID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade row: %w", err)
		}

		trade.Direction = types.Direction(direction)
		trade.ExitReason = types.OrderTag(reason)
		trade.EntryTime = entryTime.UTC()
		trade.ExitTime = exitTime.UTC()
		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade rows: %w", err)
	}

	return trades, nil
}

// CountRows counts the rows of a parquet file.
func CountRows(s *E2ETestSuite, path string) int {
	db, err := sql.Open("duckdb", "")
	require.NoError(s.T(), err)
	defer db.Close()

	var count int
	require.NoError(s.T(), db.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM read_parquet('%s')`, path)).Scan(&count))

	return count
}
