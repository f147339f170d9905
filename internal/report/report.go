// Package report persists the outcome of a backtest run.
//
// A results folder holds:
//   - stats.yaml: run statistics, undefined ratios are null
//   - trades.parquet, equity.parquet, orders.parquet: the run's records
package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"go.uber.org/zap"
)

const (
	StatsFileName  = "stats.yaml"
	TradesFileName = "trades.parquet"
	EquityFileName = "equity.parquet"
	OrdersFileName = "orders.parquet"
)

// Run is what gets written for one backtest run.
type Run struct {
	Strategy    string
	Statistics  types.RunStatistics
	Trades      []types.TradeRecord
	EquityCurve []types.EquitySample
	Orders      []types.Order
}

type Writer struct {
	logger *logger.Logger
}

func NewWriter(logger *logger.Logger) *Writer {
	return &Writer{logger: logger}
}

// Write writes the run into folder, creating it if needed.
func (w *Writer) Write(folder string, run Run) error {
	if folder == "" {
		return errors.New(errors.ErrCodeReportWriteFailed, "results folder is empty")
	}

	if err := os.MkdirAll(folder, 0755); err != nil {
		return errors.Wrapf(errors.ErrCodeReportWriteFailed, err, "failed to create results folder %s", folder)
	}

	if err := WriteStats(filepath.Join(folder, StatsFileName), run.Strategy, run.Statistics); err != nil {
		return errors.Wrap(errors.ErrCodeReportWriteFailed, "failed to write stats", err)
	}

	parquet, err := NewParquetWriter(w.logger)
	if err != nil {
		return errors.Wrap(errors.ErrCodeReportWriteFailed, "failed to open parquet writer", err)
	}
	defer parquet.Close()

	if err := parquet.WriteTrades(run.Trades); err != nil {
		return errors.Wrap(errors.ErrCodeReportWriteFailed, "failed to write trades", err)
	}

	if err := parquet.WriteEquity(run.EquityCurve); err != nil {
		return errors.Wrap(errors.ErrCodeReportWriteFailed, "failed to write equity curve", err)
	}

	if err := parquet.WriteOrders(run.Orders); err != nil {
		return errors.Wrap(errors.ErrCodeReportWriteFailed, "failed to write orders", err)
	}

	if err := parquet.Export(folder); err != nil {
		return errors.Wrap(errors.ErrCodeReportWriteFailed, "failed to export records", err)
	}

	w.logger.Info("Results written",
		zap.String("folder", folder),
		zap.Int("trades", len(run.Trades)),
		zap.Int("bars", len(run.EquityCurve)),
		zap.Int("orders", len(run.Orders)),
	)

	return nil
}

// ResultFolderName names the folder of one run.
func ResultFolderName(symbol string, strategy string, runID string) string {
	return fmt.Sprintf("%s_%s_%s", symbol, strategy, runID)
}
