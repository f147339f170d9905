package sizing

import (
	"math"
	"testing"

	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type SizingTestSuite struct {
	suite.Suite
	spec types.ContractSpec
	fee  commission_fee.CommissionFee
}

func TestSizingSuite(t *testing.T) {
	suite.Run(t, new(SizingTestSuite))
}

func (suite *SizingTestSuite) SetupTest() {
	suite.spec = types.ContractSpec{
		Symbol:         "RB",
		CommissionKind: types.CommissionKindFixed,
		Commission:     0,
		FixedFee:       0,
		Multiplier:     10,
		Margin:         0.1,
		UnitValue:      1,
	}

	fee, err := commission_fee.NewCommissionFee(suite.spec)
	suite.Require().NoError(err)
	suite.fee = fee
}

func (suite *SizingTestSuite) newSizer(cfg Config) Sizer {
	sizer, err := NewSizer(cfg, suite.spec, suite.fee)
	suite.Require().NoError(err)

	return sizer
}

func (suite *SizingTestSuite) TestFixedNotional() {
	cfg := DefaultConfig()
	cfg.Policy = PolicyFixedNotional
	cfg.FixedCashAmount = 1000
	sizer := suite.newSizer(cfg)

	tests := []struct {
		name     string
		price    float64
		expected int64
	}{
		{"exact division", 100, 10},
		{"rounds down", 300, 3},
		{"price above amount", 1500, 0},
		{"zero price", 0, 0},
		{"negative price", -10, 0},
		{"NaN price", math.NaN(), 0},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.Equal(tc.expected, sizer.Size(Input{Price: tc.price, AccountValue: 100000, Cash: 100000}))
		})
	}
}

func (suite *SizingTestSuite) TestRiskBased() {
	sizer := suite.newSizer(DefaultConfig())

	tests := []struct {
		name     string
		input    Input
		expected int64
	}{
		{
			// target 2000, per unit risk 1 * 50 * 10 = 500
			name:     "limited by risk",
			input:    Input{Price: 3000, AccountValue: 100000, Cash: 100000, StopLossDistance: 50},
			expected: 4,
		},
		{
			// margin 3000 per contract, 10000 * 0.9 / 3000 = 3
			name:     "limited by margin",
			input:    Input{Price: 3000, AccountValue: 100000, Cash: 10000, StopLossDistance: 50},
			expected: 3,
		},
		{
			name:     "fractional risk rounds down",
			input:    Input{Price: 3000, AccountValue: 100000, Cash: 100000, StopLossDistance: 70},
			expected: 2,
		},
		{
			name:     "zero stop distance",
			input:    Input{Price: 3000, AccountValue: 100000, Cash: 100000, StopLossDistance: 0},
			expected: 0,
		},
		{
			name:     "negative stop distance",
			input:    Input{Price: 3000, AccountValue: 100000, Cash: 100000, StopLossDistance: -5},
			expected: 0,
		},
		{
			name:     "zero price",
			input:    Input{Price: 0, AccountValue: 100000, Cash: 100000, StopLossDistance: 50},
			expected: 0,
		},
		{
			name:     "negative account value",
			input:    Input{Price: 3000, AccountValue: -100, Cash: 100000, StopLossDistance: 50},
			expected: 0,
		},
		{
			name:     "no cash",
			input:    Input{Price: 3000, AccountValue: 100000, Cash: 0, StopLossDistance: 50},
			expected: 0,
		},
		{
			name:     "infinite stop distance",
			input:    Input{Price: 3000, AccountValue: 100000, Cash: 100000, StopLossDistance: math.Inf(1)},
			expected: 0,
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.Equal(tc.expected, sizer.Size(tc.input))
		})
	}
}

func (suite *SizingTestSuite) TestRiskBasedWithoutMargin() {
	suite.spec.Margin = 0
	fee, err := commission_fee.NewCommissionFee(suite.spec)
	suite.Require().NoError(err)

	sizer, err := NewSizer(DefaultConfig(), suite.spec, fee)
	suite.Require().NoError(err)

	// Nothing caps the theoretical size when a contract needs no margin.
	suite.Equal(int64(4), sizer.Size(Input{Price: 3000, AccountValue: 100000, Cash: 1, StopLossDistance: 50}))
}

func (suite *SizingTestSuite) TestPercentEquity() {
	cfg := DefaultConfig()
	cfg.Policy = PolicyPercentEquity
	cfg.EquityPercent = 0.5
	sizer := suite.newSizer(cfg)

	// 100000 * 0.5 / (100 * 10) = 50 contracts, margin 100 each is well covered
	suite.Equal(int64(50), sizer.Size(Input{Price: 100, AccountValue: 100000, Cash: 100000}))
	// margin cap: 1000 * 0.9 / 100 = 9
	suite.Equal(int64(9), sizer.Size(Input{Price: 100, AccountValue: 100000, Cash: 1000}))
	suite.Equal(int64(0), sizer.Size(Input{Price: 0, AccountValue: 100000, Cash: 1000}))
}

func (suite *SizingTestSuite) TestPercentEquityLeavesRoomForCommission() {
	suite.spec.FixedFee = 25
	fee, err := commission_fee.NewCommissionFee(suite.spec)
	suite.Require().NoError(err)
	suite.fee = fee

	cfg := DefaultConfig()
	cfg.Policy = PolicyPercentEquity
	cfg.EquityPercent = 0.5
	sizer := suite.newSizer(cfg)

	// margin alone allows 9, but 100 margin + 25 fee per contract fits 7 times into 900
	suite.Equal(int64(7), sizer.Size(Input{Price: 100, AccountValue: 100000, Cash: 1000}))
}

func (suite *SizingTestSuite) TestNeverNegative() {
	policies := []Policy{PolicyFixedNotional, PolicyRiskBased, PolicyPercentEquity}
	inputs := []Input{
		{Price: -1, AccountValue: -1, Cash: -1, StopLossDistance: -1},
		{Price: 1, AccountValue: -1e9, Cash: -1e9, StopLossDistance: 1},
		{Price: math.Inf(-1), AccountValue: math.NaN(), Cash: 0, StopLossDistance: 0},
	}

	for _, policy := range policies {
		cfg := DefaultConfig()
		cfg.Policy = policy
		sizer := suite.newSizer(cfg)

		for _, in := range inputs {
			suite.GreaterOrEqual(sizer.Size(in), int64(0), "policy %s", policy)
		}
	}
}

func (suite *SizingTestSuite) TestConfigValidate() {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{name: "default config", mutate: func(c *Config) {}},
		{name: "unknown policy", mutate: func(c *Config) { c.Policy = "kelly" }, expectError: true},
		{name: "risk above one", mutate: func(c *Config) { c.RiskPerTrade = 1.5 }, expectError: true},
		{name: "buffer of one", mutate: func(c *Config) { c.MarginBuffer = 1 }, expectError: true},
		{
			name: "fixed notional without amount",
			mutate: func(c *Config) {
				c.Policy = PolicyFixedNotional
				c.FixedCashAmount = 0
			},
			expectError: true,
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			cfg := DefaultConfig()
			tc.mutate(&cfg)

			err := cfg.Validate()
			if tc.expectError {
				suite.Error(err)
				suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
			} else {
				suite.NoError(err)
			}

			_, err = NewSizer(cfg, suite.spec, suite.fee)
			suite.Equal(tc.expectError, err != nil)
		})
	}
}
