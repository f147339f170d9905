package sizing

import (
	"math"

	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-backtest/internal/utils"
)

// RiskBasedSizer risks a fixed fraction of account value between entry and stop,
// capped by the margin the free cash can carry.
type RiskBasedSizer struct {
	RiskPerTrade float64
	MarginBuffer float64
	UnitValue    float64
	Multiplier   float64
	Fee          commission_fee.CommissionFee
}

func (s *RiskBasedSizer) Size(in Input) int64 {
	if !finite(in.Price, in.AccountValue, in.Cash, in.StopLossDistance) || in.Price <= 0 {
		return 0
	}

	perUnitRisk := s.UnitValue * in.StopLossDistance * s.Multiplier
	if perUnitRisk <= 0 || !finite(perUnitRisk) {
		return 0
	}

	target := in.AccountValue * s.RiskPerTrade
	theoretical := target / perUnitRisk

	return utils.FloorContracts(math.Min(theoretical, s.maxByMargin(in)))
}

// maxByMargin is +Inf when a contract needs no margin.
func (s *RiskBasedSizer) maxByMargin(in Input) float64 {
	return marginCap(s.Fee, in.Price, in.Cash, s.MarginBuffer)
}

func marginCap(fee commission_fee.CommissionFee, price, cash, buffer float64) float64 {
	if fee == nil {
		return math.Inf(1)
	}

	marginPerUnit, err := fee.MarginPerUnit(price)
	if err != nil || marginPerUnit <= 0 {
		return math.Inf(1)
	}

	return math.Floor(cash * (1 - buffer) / marginPerUnit)
}
