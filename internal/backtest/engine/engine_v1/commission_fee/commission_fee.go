package commission_fee

import (
	"math"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// CommissionFee prices a trade of one instrument. Implementations are pure.
type CommissionFee interface {
	// Calculate returns the commission charged for trading |size| contracts at price
	// and the margin those contracts require.
	Calculate(size int64, price float64) (commission float64, margin float64, err error)
	// MarginPerUnit returns the margin required for a single contract at price.
	MarginPerUnit(price float64) (float64, error)
}

// AllCommissionKinds lists the kinds accepted in a contract file.
var AllCommissionKinds = []any{
	types.CommissionKindFixed,
	types.CommissionKindPercentage,
}

// NewCommissionFee picks the model for the contract's commission kind.
func NewCommissionFee(spec types.ContractSpec) (CommissionFee, error) {
	switch spec.CommissionKind {
	case types.CommissionKindFixed:
		return NewFixedCommissionFee(spec.Commission, spec.FixedFee, spec.Multiplier, spec.Margin)
	case types.CommissionKindPercentage:
		mode := spec.PercentageMode
		if mode == "" {
			mode = types.PercentageModePercent
		}

		return NewPercentageCommissionFee(spec.Commission, spec.Multiplier, spec.Margin, mode)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidContractSpec, "unknown commission kind %q", spec.CommissionKind)
	}
}

func checkPrice(price float64) error {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return errors.Newf(errors.ErrCodeInvalidPrice, "price %v is not finite", price)
	}

	if price < 0 {
		return errors.Newf(errors.ErrCodeInvalidPrice, "price %v is negative", price)
	}

	return nil
}

func checkParameter(name string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return errors.Newf(errors.ErrCodeInvalidParameter, "%s %v is not finite", name, value)
	}

	if value < 0 {
		return errors.Newf(errors.ErrCodeInvalidParameter, "%s %v is negative", name, value)
	}

	return nil
}

func absSize(size int64) float64 {
	return math.Abs(float64(size))
}
