package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

type EngineTestSuite struct {
	suite.Suite
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (suite *EngineTestSuite) TestOnProcessDataCallbackWithProgress() {
	var progress []int
	callback := OnProcessDataCallback(func(current int, total int) error {
		progress = append(progress, current)

		return nil
	})

	for i := 1; i <= 5; i++ {
		err := callback(i, 5)
		suite.NoError(err)
	}

	suite.Equal([]int{1, 2, 3, 4, 5}, progress)
}

func (suite *EngineTestSuite) TestCallbacksAreOptional() {
	callbacks := LifecycleCallbacks{}

	suite.Nil(callbacks.OnRunStart)
	suite.Nil(callbacks.OnProcessData)
	suite.Nil(callbacks.OnRunEnd)
	suite.Nil(callbacks.OnBacktestEnd)
}

func (suite *EngineTestSuite) TestOnRunStartCanAbort() {
	stop := errors.New("not today")
	onStart := OnRunStartCallback(func(runID string, symbol string, totalBars int) error {
		if totalBars == 0 {
			return stop
		}

		return nil
	})

	callbacks := LifecycleCallbacks{OnRunStart: &onStart}

	suite.ErrorIs((*callbacks.OnRunStart)("run", "RB", 0), stop)
	suite.NoError((*callbacks.OnRunStart)("run", "RB", 3))
}
