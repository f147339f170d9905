package utils

import (
	"math"

	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/commission_fee"
)

// FloorContracts converts a fractional quantity to whole contracts. Negative and
// non-finite quantities become 0.
func FloorContracts(quantity float64) int64 {
	if math.IsNaN(quantity) || quantity <= 0 {
		return 0
	}

	if math.IsInf(quantity, 1) || quantity >= math.MaxInt64 {
		return math.MaxInt64
	}

	return int64(math.Floor(quantity))
}

// CalculateMaxQuantity calculates how many whole contracts can be opened with the given balance
// once commission and margin are both paid out of it.
// It returns math.MaxInt64 when a contract costs nothing to open.
func CalculateMaxQuantity(balance float64, price float64, commissionFee commission_fee.CommissionFee) int64 {
	// Handle edge cases
	if price <= 0 || balance <= 0 {
		return 0
	}

	commission, margin, err := commissionFee.Calculate(1, price)
	if err != nil {
		return 0
	}

	perUnit := commission + margin
	if perUnit <= 0 {
		return math.MaxInt64
	}

	maxQty := FloorContracts(balance / perUnit)

	// Rounding can leave the estimate one contract too high.
	for i := 0; i < 10 && maxQty > 0; i++ {
		commission, margin, err := commissionFee.Calculate(maxQty, price)
		if err != nil {
			return 0
		}

		if commission+margin <= balance {
			break
		}

		maxQty--
	}

	return maxQty
}

// CalculateOrderQuantityByPercentage calculates how many contracts the given percentage of the balance can open.
func CalculateOrderQuantityByPercentage(balance float64, price float64, commissionFee commission_fee.CommissionFee, percentage float64) int64 {
	quantity := balance * percentage

	return CalculateMaxQuantity(quantity, price, commissionFee)
}
