package engine

import (
	"math"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type BacktestStateTestSuite struct {
	suite.Suite
	spec types.ContractSpec
	fee  commission_fee.CommissionFee
}

func TestBacktestStateSuite(t *testing.T) {
	suite.Run(t, new(BacktestStateTestSuite))
}

func (suite *BacktestStateTestSuite) SetupTest() {
	suite.spec = types.ContractSpec{
		Symbol:         "RB",
		CommissionKind: types.CommissionKindFixed,
		Commission:     0,
		FixedFee:       1,
		Multiplier:     10,
		Margin:         0.1,
		UnitValue:      1,
	}

	fee, err := commission_fee.NewCommissionFee(suite.spec)
	suite.Require().NoError(err)
	suite.fee = fee
}

func (suite *BacktestStateTestSuite) newState(capital float64) *BacktestState {
	state, err := NewBacktestState(capital, suite.spec, suite.fee, logger.NewNopLogger())
	suite.Require().NoError(err)

	return state
}

func (suite *BacktestStateTestSuite) fill(side types.OrderSide, size int64, price float64) Fill {
	return Fill{
		OrderID: "order",
		Side:    side,
		Size:    size,
		Price:   price,
		Time:    time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}
}

func (suite *BacktestStateTestSuite) assertIdentity(state *BacktestState) {
	account := state.Account()
	suite.InDelta(account.PortfolioValue, account.Cash+account.MarginLocked+account.UnrealizedPnL, 1e-9)
	suite.InDelta(account.PortfolioValue, state.PortfolioValue(), 1e-9)
}

func (suite *BacktestStateTestSuite) TestNewBacktestState() {
	tests := []struct {
		name    string
		capital float64
		code    errors.ErrorCode
	}{
		{name: "zero capital", capital: 0, code: errors.ErrCodeInvalidConfiguration},
		{name: "negative capital", capital: -1, code: errors.ErrCodeInvalidConfiguration},
		{name: "NaN capital", capital: math.NaN(), code: errors.ErrCodeInvalidConfiguration},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			_, err := NewBacktestState(tc.capital, suite.spec, suite.fee, logger.NewNopLogger())
			suite.Require().Error(err)
			suite.True(errors.HasCode(err, tc.code))
		})
	}

	_, err := NewBacktestState(1000, suite.spec, nil, logger.NewNopLogger())
	suite.True(errors.HasCode(err, errors.ErrCodeBacktestNoContract))

	state := suite.newState(1000)
	account := state.Account()
	suite.Equal(1000.0, account.Cash)
	suite.Equal(1000.0, account.PortfolioValue)
	suite.Zero(account.Position)
}

func (suite *BacktestStateTestSuite) TestLongRoundTrip() {
	state := suite.newState(100000)

	result, err := state.Update(suite.fill(types.OrderSideBuy, 2, 100))
	suite.Require().NoError(err)
	suite.Zero(result.PositionBefore)
	suite.Equal(int64(2), result.PositionAfter)
	suite.InDelta(2.0, result.Commission, 1e-9)
	suite.InDelta(200.0, result.Margin, 1e-9)

	account := state.Account()
	suite.InDelta(99798.0, account.Cash, 1e-9)
	suite.InDelta(200.0, account.MarginLocked, 1e-9)
	suite.Equal(int64(2), account.Position)
	suite.InDelta(100.0, account.AverageEntryPrice, 1e-9)

	state.Mark(110)
	account = state.Account()
	suite.InDelta(200.0, account.UnrealizedPnL, 1e-9)
	suite.InDelta(100198.0, account.PortfolioValue, 1e-9)
	suite.assertIdentity(state)

	result, err = state.Update(suite.fill(types.OrderSideSell, 2, 110))
	suite.Require().NoError(err)
	suite.Equal(int64(2), result.PositionBefore)
	suite.Zero(result.PositionAfter)
	suite.InDelta(200.0, result.RealizedPnL, 1e-9)
	suite.InDelta(100.0, result.AverageEntryPrice, 1e-9)

	account = state.Account()
	suite.InDelta(100196.0, account.Cash, 1e-9)
	suite.Zero(account.MarginLocked)
	suite.Zero(account.Position)
	suite.Zero(account.AverageEntryPrice)
	suite.InDelta(200.0, account.RealizedPnL, 1e-9)
	suite.InDelta(4.0, account.TotalCommission, 1e-9)
	suite.assertIdentity(state)
}

func (suite *BacktestStateTestSuite) TestShortRoundTrip() {
	state := suite.newState(100000)

	_, err := state.Update(suite.fill(types.OrderSideSell, 1, 100))
	suite.Require().NoError(err)
	suite.Equal(int64(-1), state.Position())

	state.Mark(95)
	suite.InDelta(50.0, state.Account().UnrealizedPnL, 1e-9)
	suite.assertIdentity(state)

	result, err := state.Update(suite.fill(types.OrderSideBuy, 1, 90))
	suite.Require().NoError(err)
	suite.InDelta(100.0, result.RealizedPnL, 1e-9)
	suite.InDelta(100098.0, state.Account().Cash, 1e-9)
	suite.assertIdentity(state)
}

func (suite *BacktestStateTestSuite) TestPartialReduceReleasesProportionalMargin() {
	state := suite.newState(100000)

	_, err := state.Update(suite.fill(types.OrderSideBuy, 2, 100))
	suite.Require().NoError(err)

	result, err := state.Update(suite.fill(types.OrderSideSell, 1, 105))
	suite.Require().NoError(err)
	suite.Equal(int64(1), result.PositionAfter)
	suite.InDelta(100.0, result.Margin, 1e-9)
	suite.InDelta(50.0, result.RealizedPnL, 1e-9)

	account := state.Account()
	suite.Equal(int64(1), account.Position)
	suite.InDelta(100.0, account.MarginLocked, 1e-9)
	suite.InDelta(100.0, account.AverageEntryPrice, 1e-9)
}

func (suite *BacktestStateTestSuite) TestAveragePriceOnIncrease() {
	state := suite.newState(100000)

	_, err := state.Update(suite.fill(types.OrderSideBuy, 1, 100))
	suite.Require().NoError(err)
	_, err = state.Update(suite.fill(types.OrderSideBuy, 3, 120))
	suite.Require().NoError(err)

	suite.InDelta(115.0, state.Account().AverageEntryPrice, 1e-9)
}

func (suite *BacktestStateTestSuite) TestInsufficientMarginLeavesLedgerUntouched() {
	state := suite.newState(150)
	before := state.Account()

	suite.True(errors.HasCode(state.CheckMargin(2, 100), errors.ErrCodeInsufficientMargin))
	suite.NoError(state.CheckMargin(1, 100))

	_, err := state.Update(suite.fill(types.OrderSideBuy, 2, 100))
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInsufficientMargin))
	suite.Equal(before, state.Account())
}

func (suite *BacktestStateTestSuite) TestRejectsFlipAndInvalidFills() {
	state := suite.newState(100000)

	_, err := state.Update(suite.fill(types.OrderSideBuy, 1, 100))
	suite.Require().NoError(err)

	before := state.Account()

	tests := []struct {
		name string
		fill Fill
	}{
		{name: "flip", fill: suite.fill(types.OrderSideSell, 2, 100)},
		{name: "zero size", fill: suite.fill(types.OrderSideSell, 0, 100)},
		{name: "zero price", fill: suite.fill(types.OrderSideSell, 1, 0)},
		{name: "NaN price", fill: suite.fill(types.OrderSideSell, 1, math.NaN())},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			_, err := state.Update(tc.fill)
			suite.Require().Error(err)
			suite.True(errors.HasCode(err, errors.ErrCodeInvalidFill))
			suite.Equal(before, state.Account())
		})
	}
}

func (suite *BacktestStateTestSuite) TestIdentityHoldsAcrossMarks() {
	state := suite.newState(50000)
	closes := []float64{100, 101.5, 99.25, 103, 97.75}

	for i, price := range closes {
		state.Mark(price)

		if i == 1 {
			_, err := state.Update(suite.fill(types.OrderSideBuy, 3, price))
			suite.Require().NoError(err)
		}

		if i == 4 {
			_, err := state.Update(suite.fill(types.OrderSideSell, 3, price))
			suite.Require().NoError(err)
		}

		suite.assertIdentity(state)
	}

	suite.InDelta(50000+(97.75-101.5)*3*10-6, state.PortfolioValue(), 1e-6)
}
