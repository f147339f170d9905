package stats

import (
	"math"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/stretchr/testify/suite"
)

type StatsTrackerTestSuite struct {
	suite.Suite
	logger *logger.Logger
}

func (s *StatsTrackerTestSuite) SetupSuite() {
	s.logger = logger.NewNopLogger()
}

func TestStatsTrackerTestSuite(t *testing.T) {
	suite.Run(t, new(StatsTrackerTestSuite))
}

func (s *StatsTrackerTestSuite) newTracker(initial float64) *StatsTracker {
	st := NewStatsTracker(s.logger)
	st.Initialize("run_1", "RB", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), initial, 0, 252)

	return st
}

func (s *StatsTrackerTestSuite) TestInitialize() {
	st := s.newTracker(1000)

	result := st.Statistics()
	s.Equal("run_1", result.ID)
	s.Equal("RB", result.Symbol)
	s.Equal(0, result.Bars)
	s.Equal(1000.0, result.FinalValue)
	s.True(result.AnnualizedReturn.IsNone())
}

func (s *StatsTrackerTestSuite) TestZeroTradesUseSentinels() {
	st := s.newTracker(1000)
	st.RecordEquity(1000)
	st.RecordEquity(1000)
	st.RecordEquity(1000)

	result := st.Statistics()
	s.Equal(0, result.TradeCount)
	s.True(result.WinRate.IsNone())
	s.True(result.AverageWin.IsNone())
	s.True(result.AverageLoss.IsNone())
	s.True(result.WinLossRatio.IsNone())
	s.True(result.SharpeRatio.IsNone())
	s.Equal(0.0, result.CumulativeReturn)
	s.Require().True(result.AnnualizedReturn.IsSome())
	s.InDelta(0.0, result.AnnualizedReturn.Unwrap(), 1e-12)
	s.Equal(0.0, result.MaxDrawdown)
}

func (s *StatsTrackerTestSuite) TestRecordTrades() {
	st := s.newTracker(1000)

	st.RecordTrade(types.TradeRecord{NetPnL: 30, Commission: 2, ExitReason: types.OrderTagManualClose})
	st.RecordTrade(types.TradeRecord{NetPnL: 10, Commission: 2, ExitReason: types.OrderTagManualClose})
	st.RecordTrade(types.TradeRecord{NetPnL: -20, Commission: 2, ExitReason: types.OrderTagStopLoss})
	st.RecordTrade(types.TradeRecord{NetPnL: 0, Commission: 2, ExitReason: types.OrderTagStopLoss})
	st.SetLedgerTotals(9, 20)

	result := st.Statistics()
	s.Equal(4, result.TradeCount)
	s.Equal(2, result.WinningTrades)
	s.Equal(1, result.LosingTrades)
	s.InDelta(0.5, result.WinRate.Unwrap(), 1e-12)
	s.InDelta(20.0, result.AverageWin.Unwrap(), 1e-12)
	s.InDelta(-20.0, result.AverageLoss.Unwrap(), 1e-12)
	s.InDelta(1.0, result.WinLossRatio.Unwrap(), 1e-12)
	s.Equal(9.0, result.TotalCommission)
	s.Equal(20.0, result.RealizedPnL)
}

func (s *StatsTrackerTestSuite) TestOnlyWinnersHaveNoRatio() {
	st := s.newTracker(1000)
	st.RecordTrade(types.TradeRecord{NetPnL: 5})

	result := st.Statistics()
	s.InDelta(1.0, result.WinRate.Unwrap(), 1e-12)
	s.True(result.AverageLoss.IsNone())
	s.True(result.WinLossRatio.IsNone())
}

func (s *StatsTrackerTestSuite) TestEquityStatistics() {
	st := s.newTracker(100)

	for _, v := range []float64{110, 99, 121} {
		st.RecordEquity(v)
	}

	result := st.Statistics()
	s.Equal(3, result.Bars)
	s.Equal(121.0, result.FinalValue)
	s.InDelta(0.21, result.CumulativeReturn, 1e-12)
	s.InDelta(math.Pow(1.21, 252.0/3.0)-1, result.AnnualizedReturn.Unwrap(), 1e-6)
	s.InDelta(0.1, result.MaxDrawdown, 1e-12)
	s.InDelta(11.0, result.MaxDrawdownValue, 1e-12)
	s.Equal(1, result.MaxDrawdownDuration)
	s.True(result.SharpeRatio.IsSome())
}

func (s *StatsTrackerTestSuite) TestInitializeResets() {
	st := s.newTracker(100)
	st.RecordEquity(90)
	st.RecordTrade(types.TradeRecord{NetPnL: -10})

	st.Initialize("run_2", "RB", time.Time{}, 100, 0, 252)

	result := st.Statistics()
	s.Equal("run_2", result.ID)
	s.Equal(0, result.Bars)
	s.Equal(0, result.TradeCount)
}

type MetricsTestSuite struct {
	suite.Suite
}

func TestMetricsSuite(t *testing.T) {
	suite.Run(t, new(MetricsTestSuite))
}

func (s *MetricsTestSuite) TestCumulativeReturn() {
	s.InDelta(0.5, CumulativeReturn(100, 150).Unwrap(), 1e-12)
	s.True(CumulativeReturn(0, 150).IsNone())
}

func (s *MetricsTestSuite) TestAnnualizedReturn() {
	tests := []struct {
		name     string
		initial  float64
		final    float64
		bars     int
		ppy      int
		expected float64
		defined  bool
	}{
		{name: "one year of bars", initial: 100, final: 110, bars: 252, ppy: 252, expected: 0.1, defined: true},
		{name: "half a year compounds", initial: 100, final: 110, bars: 126, ppy: 252, expected: 0.21, defined: true},
		{name: "wiped out", initial: 100, final: 0, bars: 10, ppy: 252, expected: -1, defined: true},
		{name: "no bars", initial: 100, final: 110, bars: 0, ppy: 252, defined: false},
		{name: "zero initial", initial: 0, final: 110, bars: 10, ppy: 252, defined: false},
		{name: "negative equity", initial: 100, final: -5, bars: 10, ppy: 252, defined: false},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			result := AnnualizedReturn(tc.initial, tc.final, tc.bars, tc.ppy)
			s.Equal(tc.defined, result.IsSome())

			if tc.defined {
				s.InDelta(tc.expected, result.Unwrap(), 1e-9)
			}
		})
	}
}

func (s *MetricsTestSuite) TestReturns() {
	returns := Returns(100, []float64{110, 99})
	s.Require().Len(returns, 2)
	s.InDelta(0.1, returns[0], 1e-12)
	s.InDelta(-0.1, returns[1], 1e-12)
}

func (s *MetricsTestSuite) TestSharpeRatio() {
	// returns 0.02 and 0.00: mean 0.01, population std 0.01
	result := SharpeRatio([]float64{0.02, 0}, 0, 252)
	s.Require().True(result.IsSome())
	s.InDelta(math.Sqrt(252), result.Unwrap(), 1e-9)

	// a risk free rate of 2.52 per year is 0.01 per bar
	result = SharpeRatio([]float64{0.02, 0}, 2.52, 252)
	s.Require().True(result.IsSome())
	s.InDelta(0.0, result.Unwrap(), 1e-9)
}

func (s *MetricsTestSuite) TestSharpeRatioUndefined() {
	s.True(SharpeRatio(nil, 0, 252).IsNone())
	s.True(SharpeRatio([]float64{0.01}, 0, 252).IsNone())
	s.True(SharpeRatio([]float64{0.01, 0.01, 0.01}, 0, 252).IsNone())
	s.True(SharpeRatio([]float64{0.01, 0.02}, 0, 0).IsNone())
}

func (s *MetricsTestSuite) TestMaxDrawdown() {
	drawdown := MaxDrawdown(100, []float64{120, 90, 100, 110, 130, 117})

	s.InDelta(0.25, drawdown.Fraction, 1e-12)
	s.InDelta(30.0, drawdown.Value, 1e-12)
	s.Equal(3, drawdown.Duration)
}

func (s *MetricsTestSuite) TestMaxDrawdownFromInitialValue() {
	drawdown := MaxDrawdown(100, []float64{80, 100})

	s.InDelta(0.2, drawdown.Fraction, 1e-12)
	s.Equal(1, drawdown.Duration)
}

func (s *MetricsTestSuite) TestMaxDrawdownDepthAndDurationAreIndependent() {
	// A one-bar 20% dip, then four bars slightly under a new peak.
	drawdown := MaxDrawdown(100, []float64{80, 100, 110, 109, 108, 109, 109, 110})

	s.InDelta(0.2, drawdown.Fraction, 1e-12)
	s.InDelta(20.0, drawdown.Value, 1e-12)
	s.Equal(4, drawdown.Duration)
}

func (s *MetricsTestSuite) TestMaxDrawdownMonotonic() {
	drawdown := MaxDrawdown(100, []float64{101, 102, 103})

	s.Equal(Drawdown{}, drawdown)
}
