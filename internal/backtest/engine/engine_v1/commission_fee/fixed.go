package commission_fee

import "github.com/rxtech-lab/argo-backtest/pkg/errors"

// FixedCommissionFee charges a fixed fee per contract plus a rate on the traded price.
// Margin is always a fraction of the notional.
type FixedCommissionFee struct {
	Rate       float64
	FixedFee   float64
	Multiplier float64
	Margin     float64
}

func NewFixedCommissionFee(rate, fixedFee, multiplier, margin float64) (CommissionFee, error) {
	c := &FixedCommissionFee{
		Rate:       rate,
		FixedFee:   fixedFee,
		Multiplier: multiplier,
		Margin:     margin,
	}
	if err := c.validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *FixedCommissionFee) validate() error {
	if err := checkParameter("commission", c.Rate); err != nil {
		return err
	}

	if err := checkParameter("fixed_fee", c.FixedFee); err != nil {
		return err
	}

	if err := checkParameter("multiplier", c.Multiplier); err != nil {
		return err
	}

	if c.Multiplier == 0 {
		return errors.New(errors.ErrCodeInvalidParameter, "multiplier must be positive")
	}

	return checkParameter("margin", c.Margin)
}

func (c *FixedCommissionFee) Calculate(size int64, price float64) (float64, float64, error) {
	marginPerUnit, err := c.MarginPerUnit(price)
	if err != nil {
		return 0, 0, err
	}

	units := absSize(size)
	commission := units*c.FixedFee + units*price*c.Rate

	return commission, units * marginPerUnit, nil
}

func (c *FixedCommissionFee) MarginPerUnit(price float64) (float64, error) {
	if err := c.validate(); err != nil {
		return 0, err
	}

	if err := checkPrice(price); err != nil {
		return 0, err
	}

	return price * c.Multiplier * c.Margin, nil
}
