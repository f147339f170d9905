package stats

import (
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"go.uber.org/zap"
)

// StatsAccumulator holds running statistics for closed trades.
type StatsAccumulator struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	GrossWin      float64
	GrossLoss     float64
}

// StatsTracker collects the equity curve and closed trades of one run
// and turns them into RunStatistics.
type StatsTracker struct {
	runID          string
	symbol         string
	startedAt      time.Time
	initialValue   float64
	riskFreeRate   float64
	periodsPerYear int

	equity []float64
	trades *StatsAccumulator

	totalCommission float64
	realizedPnL     float64

	mu     sync.Mutex
	logger *logger.Logger
}

// NewStatsTracker creates a new StatsTracker instance.
func NewStatsTracker(log *logger.Logger) *StatsTracker {
	return &StatsTracker{
		equity: make([]float64, 0),
		trades: &StatsAccumulator{},
		mu:     sync.Mutex{},
		logger: log,
	}
}

// Initialize resets the tracker for a new run.
func (s *StatsTracker) Initialize(runID string, symbol string, startedAt time.Time, initialValue float64, riskFreeRate float64, periodsPerYear int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runID = runID
	s.symbol = symbol
	s.startedAt = startedAt
	s.initialValue = initialValue
	s.riskFreeRate = riskFreeRate
	s.periodsPerYear = periodsPerYear
	s.equity = make([]float64, 0)
	s.trades = &StatsAccumulator{}
	s.totalCommission = 0
	s.realizedPnL = 0

	s.logger.Debug("Stats tracker initialized",
		zap.String("run_id", runID),
		zap.String("symbol", symbol),
		zap.Float64("initial_value", initialValue),
	)
}

// RecordEquity appends the portfolio value at the end of a bar.
func (s *StatsTracker) RecordEquity(value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.equity = append(s.equity, value)
}

// RecordTrade records a closed round trip.
func (s *StatsTracker) RecordTrade(trade types.TradeRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.trades
	acc.TotalTrades++

	if trade.NetPnL > 0 {
		acc.WinningTrades++
		acc.GrossWin += trade.NetPnL
	} else if trade.NetPnL < 0 {
		acc.LosingTrades++
		acc.GrossLoss += trade.NetPnL
	}

	s.logger.Debug("Trade recorded",
		zap.String("exit_order_id", trade.ExitOrderID),
		zap.String("exit_reason", string(trade.ExitReason)),
		zap.Float64("net_pnl", trade.NetPnL),
		zap.Int("total_trades", acc.TotalTrades),
	)
}

// SetLedgerTotals records the ledger's totals, which include the commission of a position still open.
func (s *StatsTracker) SetLedgerTotals(totalCommission float64, realizedPnL float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalCommission = totalCommission
	s.realizedPnL = realizedPnL
}

// Statistics builds the run statistics from everything recorded so far.
func (s *StatsTracker) Statistics() types.RunStatistics {
	s.mu.Lock()
	defer s.mu.Unlock()

	finalValue := s.initialValue
	if len(s.equity) > 0 {
		finalValue = s.equity[len(s.equity)-1]
	}

	drawdown := MaxDrawdown(s.initialValue, s.equity)
	acc := s.trades

	result := types.RunStatistics{
		ID:                  s.runID,
		Timestamp:           s.startedAt,
		Symbol:              s.symbol,
		Bars:                len(s.equity),
		InitialValue:        s.initialValue,
		FinalValue:          finalValue,
		CumulativeReturn:    CumulativeReturn(s.initialValue, finalValue).TakeOr(0),
		AnnualizedReturn:    AnnualizedReturn(s.initialValue, finalValue, len(s.equity), s.periodsPerYear),
		MaxDrawdown:         drawdown.Fraction,
		MaxDrawdownValue:    drawdown.Value,
		MaxDrawdownDuration: drawdown.Duration,
		SharpeRatio:         SharpeRatio(Returns(s.initialValue, s.equity), s.riskFreeRate, s.periodsPerYear),
		TradeCount:          acc.TotalTrades,
		WinningTrades:       acc.WinningTrades,
		LosingTrades:        acc.LosingTrades,
		WinRate:             ratio(float64(acc.WinningTrades), float64(acc.TotalTrades)),
		AverageWin:          ratio(acc.GrossWin, float64(acc.WinningTrades)),
		AverageLoss:         ratio(acc.GrossLoss, float64(acc.LosingTrades)),
		WinLossRatio:        optional.None[float64](),
		TotalCommission:     s.totalCommission,
		RealizedPnL:         s.realizedPnL,
	}

	if result.AverageWin.IsSome() && result.AverageLoss.IsSome() {
		result.WinLossRatio = ratio(result.AverageWin.Unwrap(), -result.AverageLoss.Unwrap())
	}

	return result
}

func ratio(numerator float64, denominator float64) optional.Option[float64] {
	if denominator == 0 {
		return optional.None[float64]()
	}

	return optional.Some(numerator / denominator)
}
