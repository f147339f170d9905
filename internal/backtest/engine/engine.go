package engine

import (
	"context"

	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-backtest/internal/log"
	"github.com/rxtech-lab/argo-backtest/internal/runtime"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// Lifecycle callback types for backtest phases
// All callbacks with error return can abort execution if they return an error

// OnRunStartCallback is called once the bars are loaded, before the first bar is simulated.
// runID is a unique identifier for this run, generated before processing starts.
type OnRunStartCallback func(runID string, symbol string, totalBars int) error

// OnProcessDataCallback is called for each bar processed.
type OnProcessDataCallback func(current int, total int) error

// OnRunEndCallback is called after the results were written.
type OnRunEndCallback func(runID string, resultFolderPath string)

// OnBacktestEndCallback is called when the run completes (always called via defer).
type OnBacktestEndCallback func(err error)

// LifecycleCallbacks holds all lifecycle callback functions for the backtest engine.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnRunStart    *OnRunStartCallback
	OnProcessData *OnProcessDataCallback
	OnRunEnd      *OnRunEndCallback
	OnBacktestEnd *OnBacktestEndCallback
}

// BacktestResult is everything a run produced. All slices are copies owned by the caller.
type BacktestResult struct {
	RunID       string
	Strategy    string
	Statistics  types.RunStatistics
	Trades      []types.TradeRecord
	EquityCurve []types.EquitySample
	Orders      []types.Order
	Events      []log.LogEntry
	// Account is the ledger after the last bar. An open position is valued at the last close.
	Account types.AccountInfo
	// ResultFolder is empty when no results folder was configured.
	ResultFolder string
}

//nolint:interfacebloat // Engine is a core interface that naturally requires multiple methods
type Engine interface {
	// Initialize the engine with the given YAML configuration.
	Initialize(config string) error
	// SetContractPath loads the contract file (YAML or JSON) the traded instrument is looked up in.
	SetContractPath(path string) error
	// SetContract sets the traded contract directly.
	SetContract(spec types.ContractSpec) error
	// SetDataPath sets the path to the market data file (parquet or csv).
	SetDataPath(path string) error
	// SetDataSource sets the data source for the engine.
	SetDataSource(dataSource datasource.DataSource) error
	// SetResultsFolder sets the output directory for saving backtest results.
	// Results are written to <folder>/<symbol>_<strategy>_<run id>.
	SetResultsFolder(folder string) error
	// SetEventLog adds a sink that receives every run event next to the engine's own record.
	SetEventLog(sink log.Log) error
	// LoadStrategy replaces the strategy built from the configuration.
	LoadStrategy(strategy runtime.StrategyRuntime) error
	// Run runs the engine and executes the trading strategy.
	// The context can be used to cancel the backtest operation.
	Run(ctx context.Context, callbacks LifecycleCallbacks) (BacktestResult, error)
	// GetConfigSchema returns the JSON schema of the engine configuration
	GetConfigSchema() (string, error)
}
