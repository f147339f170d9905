package sizing

import (
	"math"

	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-backtest/internal/utils"
)

// PercentEquitySizer commits a fraction of account value as notional.
type PercentEquitySizer struct {
	EquityPercent float64
	MarginBuffer  float64
	Multiplier    float64
	Fee           commission_fee.CommissionFee
}

func (s *PercentEquitySizer) Size(in Input) int64 {
	if !finite(in.Price, in.AccountValue, in.Cash) || in.Price <= 0 || s.Multiplier <= 0 {
		return 0
	}

	wanted := in.AccountValue * s.EquityPercent / (in.Price * s.Multiplier)
	size := utils.FloorContracts(math.Min(wanted, marginCap(s.Fee, in.Price, in.Cash, s.MarginBuffer)))

	if s.Fee != nil && size > 0 {
		// Commission is paid from the same cash, so keep what is actually affordable.
		affordable := utils.CalculateOrderQuantityByPercentage(in.Cash, in.Price, s.Fee, 1-s.MarginBuffer)
		size = min(size, affordable)
	}

	return size
}
