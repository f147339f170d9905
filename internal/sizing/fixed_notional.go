package sizing

import "github.com/rxtech-lab/argo-backtest/internal/utils"

// FixedNotionalSizer spends the same cash amount on every entry.
type FixedNotionalSizer struct {
	CashAmount float64
}

func (s *FixedNotionalSizer) Size(in Input) int64 {
	if !finite(in.Price, s.CashAmount) || in.Price <= 0 {
		return 0
	}

	return utils.FloorContracts(s.CashAmount / in.Price)
}
