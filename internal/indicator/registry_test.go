package indicator

import (
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

func (suite *RegistryTestSuite) TestNewIndicatorRegistry() {
	registry := NewIndicatorRegistry()
	suite.NotNil(registry)
	suite.Empty(registry.ListIndicators())
}

func (suite *RegistryTestSuite) TestDefaultRegistry() {
	registry := NewDefaultIndicatorRegistry()

	indicators := registry.ListIndicators()
	suite.Len(indicators, 3)
	suite.Contains(indicators, types.IndicatorTypeMA)
	suite.Contains(indicators, types.IndicatorTypeEMA)
	suite.Contains(indicators, types.IndicatorTypeRSI)
}

func (suite *RegistryTestSuite) TestNewIndicator() {
	registry := NewDefaultIndicatorRegistry()

	ma, err := registry.NewIndicator(types.IndicatorTypeMA, 5)
	suite.Require().NoError(err)
	suite.Equal(types.IndicatorTypeMA, ma.Name())
	suite.Equal(5, ma.Period())

	// Each call returns an independent instance
	other, err := registry.NewIndicator(types.IndicatorTypeMA, 5)
	suite.Require().NoError(err)
	ma.Update(1)
	suite.NotSame(ma, other)

	rsi, err := registry.NewIndicator(types.IndicatorTypeRSI)
	suite.Require().NoError(err)
	suite.Equal(14, rsi.Period())
}

func (suite *RegistryTestSuite) TestNewIndicatorInvalidParams() {
	registry := NewDefaultIndicatorRegistry()

	_, err := registry.NewIndicator(types.IndicatorTypeEMA, -1)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidPeriod))
}

func (suite *RegistryTestSuite) TestRegisterIndicatorDuplicate() {
	registry := NewIndicatorRegistry()

	err := registry.RegisterIndicator(types.IndicatorTypeRSI, NewRSI)
	suite.NoError(err)

	// Trying to register another indicator with the same name should fail
	err = registry.RegisterIndicator(types.IndicatorTypeRSI, NewRSI)
	suite.Error(err)
	suite.Contains(err.Error(), "already registered")
	suite.True(errors.HasCode(err, errors.ErrCodeIndicatorAlreadyExists))
}

func (suite *RegistryTestSuite) TestNewIndicatorNotFound() {
	registry := NewIndicatorRegistry()

	_, err := registry.NewIndicator(types.IndicatorTypeRSI)
	suite.Error(err)
	suite.Contains(err.Error(), "not found")
	suite.True(errors.HasCode(err, errors.ErrCodeIndicatorNotFound))
}

func (suite *RegistryTestSuite) TestRemoveIndicator() {
	registry := NewDefaultIndicatorRegistry()

	err := registry.RemoveIndicator(types.IndicatorTypeRSI)
	suite.NoError(err)

	// Should no longer be found
	_, err = registry.NewIndicator(types.IndicatorTypeRSI)
	suite.Error(err)

	// Trying to remove it again should fail
	err = registry.RemoveIndicator(types.IndicatorTypeRSI)
	suite.Error(err)
	suite.Contains(err.Error(), "not found")
}

func (suite *RegistryTestSuite) TestConcurrentAccess() {
	registry := NewIndicatorRegistry()

	// Test concurrent registration
	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(idx int) {
			indicatorType := types.IndicatorType(string(rune('A' + idx)))
			_ = registry.RegisterIndicator(indicatorType, NewMA)
			done <- true
		}(i)
	}

	// Wait for all goroutines
	for i := 0; i < 10; i++ {
		<-done
	}

	// Should have 10 indicators
	suite.Len(registry.ListIndicators(), 10)
}
