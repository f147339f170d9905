package contract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type RegistryTestSuite struct {
	suite.Suite
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistryTestSuite))
}

func (suite *RegistryTestSuite) TestParseYAML() {
	registry, err := Parse([]byte(`
RB:
  commission_kind: fixed
  commission: 0.0001
  fixed_fee: 3
  multiplier: 10
  margin: 0.12
IF:
  commission_kind: percentage
  commission: 0.000023
  multiplier: 300
  margin: 0.15
  percentage_mode: percent
`))
	suite.Require().NoError(err)
	suite.Equal([]string{"IF", "RB"}, registry.Symbols())

	rb, err := registry.Get("RB")
	suite.Require().NoError(err)
	suite.Equal(types.ContractSpec{
		Symbol:         "RB",
		CommissionKind: types.CommissionKindFixed,
		Commission:     0.0001,
		FixedFee:       3,
		Multiplier:     10,
		Margin:         0.12,
		UnitValue:      1,
	}, rb)

	index, err := registry.Get("IF")
	suite.Require().NoError(err)
	suite.Equal(types.CommissionKindPercentage, index.CommissionKind)
	suite.Equal(types.PercentageModePercent, index.PercentageMode)
	suite.Equal(300.0, index.Multiplier)
}

func (suite *RegistryTestSuite) TestParseLegacyJSON() {
	registry, err := Parse([]byte(`{
		"RB2505": {"commission": 0.0001, "mult": 10, "margin": 0.1, "commtype": "COMM_FIXED", "fixed_tax": 1.5},
		"AU": {"commission": 10, "mult": 1000, "margin": 12000, "commtype": "COMM_PERC"}
	}`))
	suite.Require().NoError(err)

	rb, err := registry.Get("RB2505")
	suite.Require().NoError(err)
	suite.Equal(types.CommissionKindFixed, rb.CommissionKind)
	suite.Equal(1.5, rb.FixedFee)
	suite.Equal(10.0, rb.Multiplier)

	au, err := registry.Get("AU")
	suite.Require().NoError(err)
	suite.Equal(types.CommissionKindPercentage, au.CommissionKind)
	suite.Equal(12000.0, au.Margin)
	suite.Equal(0.0, au.FixedFee)
}

func (suite *RegistryTestSuite) TestFixedDefaults() {
	registry, err := Parse([]byte("RB:\n  commission: 0.0001\n"))
	suite.Require().NoError(err)

	spec, err := registry.Get("RB")
	suite.Require().NoError(err)
	suite.Equal(types.CommissionKindFixed, spec.CommissionKind)
	suite.Equal(DefaultFixedFee, spec.FixedFee)
	suite.Equal(DefaultMargin, spec.Margin)
	suite.Equal(DefaultMultiplier, spec.Multiplier)
	suite.Equal(DefaultUnitValue, spec.UnitValue)
}

func (suite *RegistryTestSuite) TestExplicitZeroIsKept() {
	registry, err := Parse([]byte("RB:\n  fixed_fee: 0\n  margin: 0\n"))
	suite.Require().NoError(err)

	spec, err := registry.Get("RB")
	suite.Require().NoError(err)
	suite.Equal(0.0, spec.FixedFee)
	suite.Equal(0.0, spec.Margin)
}

func (suite *RegistryTestSuite) TestInvalidSpecs() {
	tests := []struct {
		name    string
		content string
	}{
		{name: "negative commission", content: "RB:\n  commission: -1\n"},
		{name: "zero multiplier", content: "RB:\n  multiplier: 0\n"},
		{name: "unknown kind", content: "RB:\n  commission_kind: tiered\n"},
		{name: "unknown commtype", content: "RB:\n  commtype: COMM_TIERED\n"},
		{name: "unknown percentage mode", content: "RB:\n  commission_kind: percentage\n  percentage_mode: bps\n"},
		{name: "not a mapping", content: "- RB\n"},
		{name: "truncated json", content: `{"RB": {"commission": 0.0001,`},
		{name: "json string for a number", content: `{"RB": {"commission": "cheap"}}`},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			_, err := Parse([]byte(tc.content))
			suite.Require().Error(err)
			suite.True(errors.HasCode(err, errors.ErrCodeInvalidContractSpec))
		})
	}
}

func (suite *RegistryTestSuite) TestGetUnknown() {
	registry := NewRegistry()

	_, err := registry.Get("RB")
	suite.True(errors.HasCode(err, errors.ErrCodeContractNotFound))
	suite.True(errors.IsFatal(err))
}

func (suite *RegistryTestSuite) TestLoadFile() {
	path := filepath.Join(suite.T().TempDir(), "contracts.yaml")
	suite.Require().NoError(os.WriteFile(path, []byte("RB:\n  multiplier: 10\n"), 0o644))

	registry, err := LoadFile(path)
	suite.Require().NoError(err)

	spec, err := registry.Get("RB")
	suite.Require().NoError(err)
	suite.Equal(10.0, spec.Multiplier)

	_, err = LoadFile(filepath.Join(suite.T().TempDir(), "missing.yaml"))
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *RegistryTestSuite) TestRegisterReplaces() {
	registry := NewRegistry()
	spec := types.ContractSpec{Symbol: "RB", CommissionKind: types.CommissionKindFixed, Multiplier: 10, UnitValue: 1}

	suite.Require().NoError(registry.Register(spec))

	spec.Multiplier = 20
	suite.Require().NoError(registry.Register(spec))

	got, err := registry.Get("RB")
	suite.Require().NoError(err)
	suite.Equal(20.0, got.Multiplier)
	suite.Equal([]string{"RB"}, registry.Symbols())
}
