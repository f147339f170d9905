package report

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type ReportTestSuite struct {
	suite.Suite
	start time.Time
}

func TestReportSuite(t *testing.T) {
	suite.Run(t, new(ReportTestSuite))
}

func (suite *ReportTestSuite) SetupTest() {
	suite.start = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
}

func (suite *ReportTestSuite) run() Run {
	entry := suite.start.AddDate(0, 0, 1)
	exit := suite.start.AddDate(0, 0, 2)

	return Run{
		Strategy: "dual_ma_1_2_rsi_14",
		Statistics: types.RunStatistics{
			ID:               "run-1",
			Timestamp:        suite.start,
			Symbol:           "RB",
			Bars:             3,
			InitialValue:     1000,
			FinalValue:       984,
			CumulativeReturn: -0.016,
			AnnualizedReturn: optional.Some(-0.7),
			MaxDrawdown:      0.016,
			MaxDrawdownValue: 16,
			SharpeRatio:      optional.None[float64](),
			TradeCount:       1,
			LosingTrades:     1,
			WinRate:          optional.Some(0.0),
			AverageWin:       optional.None[float64](),
			AverageLoss:      optional.Some(-16.0),
			WinLossRatio:     optional.None[float64](),
			RealizedPnL:      -16,
		},
		Trades: []types.TradeRecord{
			{
				Symbol:       "RB",
				Direction:    types.DirectionLong,
				EntryTime:    entry,
				ExitTime:     exit,
				EntryPrice:   12,
				ExitPrice:    8,
				Size:         4,
				GrossPnL:     -16,
				NetPnL:       -16,
				ExitReason:   types.OrderTagManualClose,
				BarsHeld:     1,
				EntryOrderID: "entry",
				ExitOrderID:  "close",
			},
		},
		EquityCurve: []types.EquitySample{
			{Time: suite.start, BarIndex: 0, Close: 10, Cash: 1000, PortfolioValue: 1000},
			{Time: entry, BarIndex: 1, Close: 12, Cash: 995.2, MarginLocked: 4.8, PortfolioValue: 1000, Position: 4},
			{Time: exit, BarIndex: 2, Close: 8, Cash: 984, PortfolioValue: 984},
		},
		Orders: []types.Order{
			{ID: "entry", Symbol: "RB", Side: types.OrderSideBuy, Kind: types.OrderKindMarket, Size: 4, Status: types.OrderStatusFilled, Tag: types.OrderTagEntry, CreatedAt: entry, ExecutedAt: entry, ExecutedPrice: 12, ExecutedSize: 4},
			{ID: "stop", Symbol: "RB", Side: types.OrderSideSell, Kind: types.OrderKindStop, Size: 4, StopPrice: optional.Some(7.0), Status: types.OrderStatusCanceled, Tag: types.OrderTagStopLoss, CreatedAt: entry, RejectReason: "position closed by manual_close"},
			{ID: "close", Symbol: "RB", Side: types.OrderSideSell, Kind: types.OrderKindMarket, Size: 4, Status: types.OrderStatusFilled, Tag: types.OrderTagManualClose, CreatedAt: exit, ExecutedAt: exit, ExecutedPrice: 8, ExecutedSize: 4},
		},
	}
}

func (suite *ReportTestSuite) countRows(path string) int {
	db, err := sql.Open("duckdb", "")
	suite.Require().NoError(err)
	defer db.Close()

	var count int
	suite.Require().NoError(db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM read_parquet('%s')", path)).Scan(&count))

	return count
}

func (suite *ReportTestSuite) TestWrite() {
	folder := filepath.Join(suite.T().TempDir(), ResultFolderName("RB", "dual", "run-1"))
	writer := NewWriter(logger.NewNopLogger())

	suite.Require().NoError(writer.Write(folder, suite.run()))

	for _, name := range []string{StatsFileName, TradesFileName, EquityFileName, OrdersFileName} {
		_, err := os.Stat(filepath.Join(folder, name))
		suite.NoError(err, name)
	}

	suite.Equal(1, suite.countRows(filepath.Join(folder, TradesFileName)))
	suite.Equal(3, suite.countRows(filepath.Join(folder, EquityFileName)))
	suite.Equal(3, suite.countRows(filepath.Join(folder, OrdersFileName)))
}

func (suite *ReportTestSuite) TestWriteEmptyRun() {
	folder := filepath.Join(suite.T().TempDir(), "empty")
	writer := NewWriter(logger.NewNopLogger())

	suite.Require().NoError(writer.Write(folder, Run{Strategy: "dual"}))
	suite.Equal(0, suite.countRows(filepath.Join(folder, TradesFileName)))
}

func (suite *ReportTestSuite) TestWriteWithoutFolder() {
	err := NewWriter(logger.NewNopLogger()).Write("", suite.run())
	suite.True(errors.HasCode(err, errors.ErrCodeReportWriteFailed))
}

func (suite *ReportTestSuite) TestStatsRoundTripKeepsSentinels() {
	path := filepath.Join(suite.T().TempDir(), StatsFileName)
	run := suite.run()

	suite.Require().NoError(WriteStats(path, run.Strategy, run.Statistics))

	content, err := os.ReadFile(path)
	suite.Require().NoError(err)
	suite.Contains(string(content), "sharpe_ratio: null")
	suite.Contains(string(content), "average_win: null")

	stats, strategy, err := ReadStats(path)
	suite.Require().NoError(err)
	suite.Equal(run.Strategy, strategy)
	suite.True(stats.SharpeRatio.IsNone())
	suite.True(stats.AverageWin.IsNone())
	suite.Equal(-16.0, stats.AverageLoss.Unwrap())
	suite.Equal(0.0, stats.WinRate.Unwrap())
	suite.Equal(1, stats.TradeCount)
	suite.True(stats.Timestamp.Equal(run.Statistics.Timestamp))
}

func (suite *ReportTestSuite) TestParquetWriterBatches() {
	writer, err := NewParquetWriter(logger.NewNopLogger())
	suite.Require().NoError(err)
	defer writer.Close()

	samples := make([]types.EquitySample, insertBatchSize*2+7)
	for i := range samples {
		samples[i] = types.EquitySample{Time: suite.start.Add(time.Duration(i) * time.Minute), BarIndex: i, PortfolioValue: 1000}
	}

	suite.Require().NoError(writer.WriteEquity(samples))

	count, err := writer.Count("equity")
	suite.Require().NoError(err)
	suite.Equal(len(samples), count)
}

func (suite *ReportTestSuite) TestReadStatsMissingFile() {
	_, _, err := ReadStats(filepath.Join(suite.T().TempDir(), "missing.yaml"))
	suite.Error(err)
}
