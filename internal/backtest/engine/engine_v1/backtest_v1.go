package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-backtest/internal/contract"
	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/log"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/report"
	"github.com/rxtech-lab/argo-backtest/internal/runtime"
	go_runtime "github.com/rxtech-lab/argo-backtest/internal/runtime/go"
	"github.com/rxtech-lab/argo-backtest/internal/stats"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// maxDispatchDepth bounds how deep order events may trigger further intents within one bar.
	maxDispatchDepth = 8
	// maxExecutionRounds bounds how often market orders submitted during execution are picked up again.
	maxExecutionRounds = 16
)

type BacktestEngineV1 struct {
	config            BacktestEngineV1Config
	initialized       bool
	strategy          runtime.StrategyRuntime
	contract          optional.Option[types.ContractSpec]
	contracts         *contract.Registry
	dataPath          string
	datasource        datasource.DataSource
	resultsFolder     string
	sinks             []log.Log
	log               *logger.Logger
	indicatorRegistry indicator.IndicatorRegistry
}

func NewBacktestEngineV1() engine.Engine {
	return &BacktestEngineV1{
		config:            DefaultConfig(),
		initialized:       false,
		strategy:          nil,
		contract:          optional.None[types.ContractSpec](),
		contracts:         nil,
		dataPath:          "",
		datasource:        nil,
		resultsFolder:     "",
		sinks:             nil,
		log:               logger.NewNopLogger(),
		indicatorRegistry: indicator.NewDefaultIndicatorRegistry(),
	}
}

// Initialize implements engine.Engine.
func (b *BacktestEngineV1) Initialize(config string) error {
	parsed, err := ParseConfig(config)
	if err != nil {
		return err
	}

	level, err := zapcore.ParseLevel(parsed.LogLevel)
	if err != nil {
		level = zapcore.WarnLevel
	}

	zapLogger, err := logger.NewLoggerWithLevel(level)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to create logger", err)
	}

	b.config = parsed
	b.log = zapLogger
	b.initialized = true

	b.log.Debug("Backtest engine initialized",
		zap.String("symbol", parsed.Symbol),
		zap.Float64("initial_capital", parsed.InitialCapital),
	)

	return nil
}

// SetContractPath implements engine.Engine.
func (b *BacktestEngineV1) SetContractPath(path string) error {
	registry, err := contract.LoadFile(path)
	if err != nil {
		b.log.Error("Failed to load contract file", zap.String("path", path), zap.Error(err))

		return err
	}

	b.contracts = registry
	b.contract = optional.None[types.ContractSpec]()

	b.log.Debug("Contract file loaded",
		zap.String("path", path),
		zap.Strings("symbols", registry.Symbols()),
	)

	return nil
}

// SetContract implements engine.Engine.
func (b *BacktestEngineV1) SetContract(spec types.ContractSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	b.contract = optional.Some(spec)

	return nil
}

// SetDataPath implements engine.Engine.
func (b *BacktestEngineV1) SetDataPath(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to resolve data path %s", path)
	}

	b.dataPath = absPath

	b.log.Debug("Data path set", zap.String("path", absPath))

	return nil
}

// SetDataSource implements engine.Engine.
func (b *BacktestEngineV1) SetDataSource(dataSource datasource.DataSource) error {
	b.datasource = dataSource

	return nil
}

// SetResultsFolder implements engine.Engine.
func (b *BacktestEngineV1) SetResultsFolder(folder string) error {
	b.resultsFolder = folder

	b.log.Debug("Results folder set", zap.String("folder", folder))

	return nil
}

// SetEventLog implements engine.Engine.
func (b *BacktestEngineV1) SetEventLog(sink log.Log) error {
	if sink == nil {
		return errors.New(errors.ErrCodeMissingParameter, "event log is nil")
	}

	b.sinks = append(b.sinks, sink)

	return nil
}

// LoadStrategy implements engine.Engine.
func (b *BacktestEngineV1) LoadStrategy(strategy runtime.StrategyRuntime) error {
	if strategy == nil {
		return errors.New(errors.ErrCodeStrategyNotLoaded, "strategy is nil")
	}

	b.strategy = strategy

	b.log.Debug("Strategy loaded", zap.String("strategy", strategy.Name()))

	return nil
}

// GetConfigSchema implements engine.Engine.
func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	config := b.config

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return "", fmt.Errorf("failed to generate schema: %w", err)
	}

	return schema, nil
}

// Run implements engine.Engine.
func (b *BacktestEngineV1) Run(ctx context.Context, callbacks engine.LifecycleCallbacks) (result engine.BacktestResult, err error) {
	defer func() {
		if callbacks.OnBacktestEnd != nil {
			(*callbacks.OnBacktestEnd)(err)
		}
	}()

	if err := b.preRunCheck(); err != nil {
		return engine.BacktestResult{}, err
	}

	spec, err := b.resolveContract()
	if err != nil {
		return engine.BacktestResult{}, err
	}

	bars, err := b.loadBars()
	if err != nil {
		return engine.BacktestResult{}, err
	}

	if err := validateBars(bars); err != nil {
		return engine.BacktestResult{}, err
	}

	run, err := b.newRun(spec)
	if err != nil {
		return engine.BacktestResult{}, err
	}
	defer run.close()

	b.log.Info("Starting backtest",
		zap.String("run_id", run.runID),
		zap.String("symbol", spec.Symbol),
		zap.String("strategy", run.strategy.Name()),
		zap.Int("bars", len(bars)),
	)

	if callbacks.OnRunStart != nil {
		if err := (*callbacks.OnRunStart)(run.runID, spec.Symbol, len(bars)); err != nil {
			return engine.BacktestResult{}, errors.Wrap(errors.ErrCodeCallbackFailed, "run start callback failed", err)
		}
	}

	for i, bar := range bars {
		if err := ctx.Err(); err != nil {
			b.log.Info("Backtest cancelled", zap.String("run_id", run.runID), zap.Int("bar", i))

			return engine.BacktestResult{}, err
		}

		if err := run.processBar(i, bar); err != nil {
			return engine.BacktestResult{}, err
		}

		if callbacks.OnProcessData != nil {
			if err := (*callbacks.OnProcessData)(i+1, len(bars)); err != nil {
				return engine.BacktestResult{}, errors.Wrap(errors.ErrCodeCallbackFailed, "process data callback failed", err)
			}
		}
	}

	result, err = run.result()
	if err != nil {
		return engine.BacktestResult{}, err
	}

	if b.resultsFolder != "" {
		result.ResultFolder = getResultFolder(b.resultsFolder, spec.Symbol, result.Strategy, result.RunID)

		if err := b.writeResults(result, run.eventLog); err != nil {
			return engine.BacktestResult{}, err
		}
	}

	if callbacks.OnRunEnd != nil {
		(*callbacks.OnRunEnd)(result.RunID, result.ResultFolder)
	}

	b.log.Info("Backtest finished",
		zap.String("run_id", result.RunID),
		zap.Int("trades", result.Statistics.TradeCount),
		zap.Float64("final_value", result.Statistics.FinalValue),
	)

	return result, nil
}

func (b *BacktestEngineV1) preRunCheck() error {
	if !b.initialized {
		return errors.New(errors.ErrCodeBacktestInitFailed, "engine is not initialized")
	}

	if b.contract.IsNone() && b.contracts == nil {
		return errors.New(errors.ErrCodeBacktestNoContract, "no contract set")
	}

	if b.datasource == nil && b.dataPath == "" {
		return errors.New(errors.ErrCodeBacktestNoDatasource, "no data source or data path set")
	}

	return nil
}

func (b *BacktestEngineV1) resolveContract() (types.ContractSpec, error) {
	if b.contract.IsSome() {
		spec := b.contract.Unwrap()
		if spec.Symbol != b.config.Symbol {
			return types.ContractSpec{}, errors.Newf(errors.ErrCodeContractNotFound,
				"contract %s does not match configured symbol %s", spec.Symbol, b.config.Symbol)
		}

		return spec, nil
	}

	return b.contracts.Get(b.config.Symbol)
}

// loadBars preloads the whole window so the loop never touches IO.
func (b *BacktestEngineV1) loadBars() ([]types.Bar, error) {
	source := b.datasource
	if source == nil {
		duckdb, err := datasource.NewDataSource("", b.log)
		if err != nil {
			return nil, err
		}

		source = duckdb
		defer source.Close()
	}

	if b.dataPath != "" {
		if err := source.Initialize(b.dataPath); err != nil {
			return nil, err
		}
	}

	preloaded := datasource.NewInMemoryDataSource(source)
	if err := preloaded.Preload(b.config.StartTime, b.config.EndTime); err != nil {
		return nil, err
	}

	return preloaded.Bars(), nil
}

func (b *BacktestEngineV1) newRun(spec types.ContractSpec) (*backtestRun, error) {
	fee, err := commission_fee.NewCommissionFee(spec)
	if err != nil {
		return nil, err
	}

	state, err := NewBacktestState(b.config.InitialCapital, spec, fee, b.log)
	if err != nil {
		return nil, err
	}

	eventLog, err := NewBacktestLog(b.log)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to create event log", err)
	}

	sinks := append([]log.Log{eventLog, log.NewZapLog(b.log)}, b.sinks...)
	events := log.NewMultiLog(sinks...)

	strategyRuntime := b.strategy
	if strategyRuntime == nil {
		strategyRuntime = go_runtime.NewGoRuntime(strategy.NewDualMAStrategy(b.config.Strategy, b.config.Sizing))
	}

	err = strategyRuntime.Initialize(runtime.RuntimeContext{
		IndicatorRegistry: b.indicatorRegistry,
		Log:               events,
		Contract:          spec,
		CommissionFee:     fee,
	})
	if err != nil {
		eventLog.Close()

		if errors.GetCode(err) == errors.ErrCodeUnknown {
			return nil, errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to initialize strategy", err)
		}

		return nil, err
	}

	runID := uuid.NewString()

	tracker := stats.NewStatsTracker(b.log)
	tracker.Initialize(runID, spec.Symbol, time.Now().UTC(), b.config.InitialCapital, b.config.RiskFreeRate, b.config.PeriodsPerYear)

	return &backtestRun{
		runID:    runID,
		spec:     spec,
		strategy: strategyRuntime,
		state:    state,
		broker:   NewBacktestTrading(spec.Symbol, state, events, b.log),
		eventLog: eventLog,
		events:   events,
		tracker:  tracker,
		log:      b.log,
	}, nil
}

func (b *BacktestEngineV1) writeResults(result engine.BacktestResult, eventLog *BacktestLog) error {
	err := report.NewWriter(b.log).Write(result.ResultFolder, report.Run{
		Strategy:    result.Strategy,
		Statistics:  result.Statistics,
		Trades:      result.Trades,
		EquityCurve: result.EquityCurve,
		Orders:      result.Orders,
	})
	if err != nil {
		return err
	}

	if err := eventLog.Write(result.ResultFolder); err != nil {
		return errors.Wrap(errors.ErrCodeReportWriteFailed, "failed to write events", err)
	}

	return nil
}

// openTrade tracks the round trip between the entry fill and the fill that flattens it.
type openTrade struct {
	direction   types.Direction
	entryTime   time.Time
	entryPrice  float64
	entryBar    int
	entryID     string
	size        int64
	commission  float64
	realizedPnL float64
}

// backtestRun holds the mutable state of one run.
type backtestRun struct {
	runID    string
	spec     types.ContractSpec
	strategy runtime.StrategyRuntime
	state    *BacktestState
	broker   *BacktestTrading
	eventLog *BacktestLog
	events   log.Log
	tracker  *stats.StatsTracker
	log      *logger.Logger

	bar      types.Bar
	barIndex int
	open     *openTrade
	trades   []types.TradeRecord
	equity   []types.EquitySample
}

func (r *backtestRun) processBar(index int, bar types.Bar) error {
	r.bar = bar
	r.barIndex = index

	r.broker.UpdateCurrentBar(bar, index)
	r.state.Mark(bar.Close)

	intents, err := r.strategy.OnBar(bar, r.state.Account())
	if err != nil {
		if errors.IsFatal(err) {
			return err
		}

		r.emit(types.LogLevelError, types.EventTypeStrategyError, "", err.Error(), nil)
	}

	r.dispatch(intents, 0)
	r.executePending()

	r.state.Mark(bar.Close)

	account := r.state.Account()
	sample := types.EquitySample{
		Time:           bar.Time,
		BarIndex:       index,
		Close:          bar.Close,
		Cash:           account.Cash,
		MarginLocked:   account.MarginLocked,
		UnrealizedPnL:  account.UnrealizedPnL,
		PortfolioValue: account.PortfolioValue,
		Position:       account.Position,
	}
	r.equity = append(r.equity, sample)
	r.tracker.RecordEquity(sample.PortfolioValue)

	return nil
}

// dispatch hands intents to the broker and feeds the resulting events back to the strategy.
func (r *backtestRun) dispatch(intents []types.OrderIntent, depth int) {
	for _, intent := range intents {
		switch intent.Type {
		case types.OrderIntentSubmit:
			r.notify(r.broker.Submit(intent.Order), depth)
		case types.OrderIntentCancel:
			if event, ok := r.broker.Cancel(intent.OrderID, intent.Reason); ok {
				r.notify(event, depth)
			}
		default:
			r.emit(types.LogLevelWarn, types.EventTypeStrategyError, intent.OrderID,
				fmt.Sprintf("unknown order intent %q", intent.Type), nil)
		}
	}
}

func (r *backtestRun) notify(event types.OrderEvent, depth int) {
	followUps := r.strategy.OnOrderEvent(event)
	if len(followUps) == 0 {
		return
	}

	if depth >= maxDispatchDepth {
		r.emit(types.LogLevelError, types.EventTypeStrategyError, event.OrderID,
			fmt.Sprintf("dropped %d order intents: event chain too deep", len(followUps)), nil)

		return
	}

	r.dispatch(followUps, depth+1)
}

// executePending fills stops before market orders, so a stop and a signal exit
// eligible on the same bar resolve in favour of the stop.
func (r *backtestRun) executePending() {
	for _, id := range r.broker.PendingStops() {
		r.execute(id)
	}

	for round := 0; round < maxExecutionRounds; round++ {
		ids := r.broker.PendingMarkets()
		if len(ids) == 0 {
			return
		}

		for _, id := range ids {
			r.execute(id)
		}
	}

	if remaining := r.broker.PendingMarkets(); len(remaining) > 0 {
		r.log.Warn("Market orders left for the next bar",
			zap.Int("bar", r.barIndex),
			zap.Strings("order_ids", remaining),
		)
	}
}

func (r *backtestRun) execute(orderID string) {
	before := r.state.Account()

	event, ok := r.broker.Execute(orderID)
	if !ok {
		return
	}

	if event.Status == types.OrderStatusFilled {
		r.recordFill(event, before, r.state.Account())
	}

	r.notify(event, 0)
}

func (r *backtestRun) recordFill(event types.OrderEvent, before types.AccountInfo, after types.AccountInfo) {
	if before.Position == 0 {
		direction := types.DirectionLong
		if after.Position < 0 {
			direction = types.DirectionShort
		}

		r.open = &openTrade{
			direction:  direction,
			entryTime:  event.Time,
			entryPrice: event.Price,
			entryBar:   r.barIndex,
			entryID:    event.OrderID,
			size:       abs(after.Position),
			commission: event.Commission,
		}

		return
	}

	if r.open == nil {
		return
	}

	r.open.commission += event.Commission

	if abs(after.Position) > abs(before.Position) {
		r.open.size = abs(after.Position)
		r.open.entryPrice = after.AverageEntryPrice

		return
	}

	r.open.realizedPnL += after.RealizedPnL - before.RealizedPnL

	if after.Position != 0 {
		return
	}

	trade := types.TradeRecord{
		Symbol:       r.spec.Symbol,
		Direction:    r.open.direction,
		EntryTime:    r.open.entryTime,
		ExitTime:     event.Time,
		EntryPrice:   r.open.entryPrice,
		ExitPrice:    event.Price,
		Size:         r.open.size,
		GrossPnL:     r.open.realizedPnL,
		Commission:   r.open.commission,
		NetPnL:       r.open.realizedPnL - r.open.commission,
		ExitReason:   event.Tag,
		BarsHeld:     r.barIndex - r.open.entryBar,
		EntryOrderID: r.open.entryID,
		ExitOrderID:  event.OrderID,
	}

	r.open = nil
	r.trades = append(r.trades, trade)
	r.tracker.RecordTrade(trade)

	r.emit(types.LogLevelInfo, types.EventTypeTradeClosed, event.OrderID,
		fmt.Sprintf("%s trade closed by %s", trade.Direction, trade.ExitReason), map[string]string{
			"entry_price": strconv.FormatFloat(trade.EntryPrice, 'f', -1, 64),
			"exit_price":  strconv.FormatFloat(trade.ExitPrice, 'f', -1, 64),
			"size":        strconv.FormatInt(trade.Size, 10),
			"net_pnl":     strconv.FormatFloat(trade.NetPnL, 'f', -1, 64),
			"bars_held":   strconv.Itoa(trade.BarsHeld),
		})
}

func (r *backtestRun) result() (engine.BacktestResult, error) {
	account := r.state.Account()
	r.tracker.SetLedgerTotals(account.TotalCommission, account.RealizedPnL)

	events, err := r.eventLog.GetLogs()
	if err != nil {
		return engine.BacktestResult{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read run events", err)
	}

	trades := make([]types.TradeRecord, len(r.trades))
	copy(trades, r.trades)

	equity := make([]types.EquitySample, len(r.equity))
	copy(equity, r.equity)

	return engine.BacktestResult{
		RunID:       r.runID,
		Strategy:    r.strategy.Name(),
		Statistics:  r.tracker.Statistics(),
		Trades:      trades,
		EquityCurve: equity,
		Orders:      r.broker.GetOrders(),
		Events:      events,
		Account:     account,
	}, nil
}

func (r *backtestRun) emit(level types.LogLevel, eventType types.EventType, orderID string, message string, fields map[string]string) {
	if err := r.events.Log(log.LogEntry{
		Timestamp: r.bar.Time,
		Symbol:    r.spec.Symbol,
		Level:     level,
		Type:      eventType,
		OrderID:   orderID,
		Message:   message,
		Fields:    fields,
	}); err != nil {
		r.log.Warn("Failed to record event", zap.String("type", string(eventType)), zap.Error(err))
	}
}

func (r *backtestRun) close() {
	if err := r.eventLog.Close(); err != nil {
		r.log.Warn("Failed to close event log", zap.Error(err))
	}
}
