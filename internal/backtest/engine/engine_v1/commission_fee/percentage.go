package commission_fee

import (
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// PercentageCommissionFee charges a rate on the notional (percent mode) or a flat
// amount per contract (flat mode).
type PercentageCommissionFee struct {
	Rate       float64
	Multiplier float64
	// Margin in (0, 1) is a fraction of the notional, anything else an amount per contract.
	Margin float64
	Mode   types.PercentageMode
}

func NewPercentageCommissionFee(rate, multiplier, margin float64, mode types.PercentageMode) (CommissionFee, error) {
	c := &PercentageCommissionFee{
		Rate:       rate,
		Multiplier: multiplier,
		Margin:     margin,
		Mode:       mode,
	}
	if err := c.validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *PercentageCommissionFee) validate() error {
	if err := checkParameter("commission", c.Rate); err != nil {
		return err
	}

	if err := checkParameter("multiplier", c.Multiplier); err != nil {
		return err
	}

	if c.Multiplier == 0 {
		return errors.New(errors.ErrCodeInvalidParameter, "multiplier must be positive")
	}

	if err := checkParameter("margin", c.Margin); err != nil {
		return err
	}

	if c.Mode != types.PercentageModePercent && c.Mode != types.PercentageModeFlat {
		return errors.Newf(errors.ErrCodeInvalidParameter, "unknown percentage mode %q", c.Mode)
	}

	return nil
}

func (c *PercentageCommissionFee) Calculate(size int64, price float64) (float64, float64, error) {
	marginPerUnit, err := c.MarginPerUnit(price)
	if err != nil {
		return 0, 0, err
	}

	units := absSize(size)

	var commission float64
	if c.Mode == types.PercentageModeFlat {
		commission = units * c.Rate
	} else {
		commission = units * price * c.Multiplier * c.Rate
	}

	return commission, units * marginPerUnit, nil
}

func (c *PercentageCommissionFee) MarginPerUnit(price float64) (float64, error) {
	if err := c.validate(); err != nil {
		return 0, err
	}

	if err := checkPrice(price); err != nil {
		return 0, err
	}

	if c.Margin > 0 && c.Margin < 1 {
		return price * c.Multiplier * c.Margin, nil
	}

	return c.Margin, nil
}
