package indicator

import (
	"testing"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/stretchr/testify/suite"
)

type RSITestSuite struct {
	suite.Suite
}

func TestRSITestSuite(t *testing.T) {
	suite.Run(t, new(RSITestSuite))
}

func (suite *RSITestSuite) TestName() {
	rsi := NewRSI()
	suite.Equal(types.IndicatorTypeRSI, rsi.Name())
	suite.Equal(14, rsi.Period())
}

func (suite *RSITestSuite) TestNeedsPeriodPlusOneValues() {
	rsi := NewRSI()
	suite.Require().NoError(rsi.Config(3))

	suite.True(rsi.Update(1).IsNone())
	suite.True(rsi.Update(2).IsNone())
	suite.True(rsi.Update(3).IsNone())

	// Only gains, so the average loss is zero
	value := rsi.Update(4)
	suite.Require().True(value.IsSome())
	suite.Equal(100.0, value.Unwrap())
}

func (suite *RSITestSuite) TestWilderSmoothing() {
	rsi := NewRSI()
	suite.Require().NoError(rsi.Config(2))

	rsi.Update(10)
	rsi.Update(12)

	// gains [2, 0] losses [0, 1] -> rs = 1 / 0.5 = 2
	suite.InDelta(200.0/3.0, rsi.Update(11).Unwrap(), 1e-9)

	// gain 1.5 loss 0.25 -> rs = 6
	suite.InDelta(100.0-100.0/7.0, rsi.Update(13).Unwrap(), 1e-9)
}

func (suite *RSITestSuite) TestFallingSeries() {
	rsi := NewRSI()
	suite.Require().NoError(rsi.Config(2))

	rsi.Update(10)
	rsi.Update(9)
	suite.Equal(0.0, rsi.Update(8).Unwrap())
}

func (suite *RSITestSuite) TestReset() {
	rsi := NewRSI()
	suite.Require().NoError(rsi.Config(1))

	rsi.Update(1)
	suite.True(rsi.Update(2).IsSome())

	rsi.Reset()
	suite.True(rsi.Value().IsNone())
	suite.True(rsi.Update(5).IsNone())
}

func (suite *RSITestSuite) TestConfigErrors() {
	rsi := NewRSI()
	suite.Error(rsi.Config())
	suite.Error(rsi.Config(0))
	suite.Error(rsi.Config("fourteen"))
}
