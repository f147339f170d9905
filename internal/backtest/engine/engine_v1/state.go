package engine

import (
	"math"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Fill is an execution reported by the broker.
type Fill struct {
	OrderID string
	Side    types.OrderSide
	Size    int64
	Price   float64
	Time    time.Time
}

// UpdateResult describes what one fill did to the account.
type UpdateResult struct {
	Commission float64
	// Margin is the margin locked by an opening fill or released by a closing fill.
	Margin float64
	// RealizedPnL is the gross P&L realized by a closing fill.
	RealizedPnL    float64
	PositionBefore int64
	PositionAfter  int64
	// AverageEntryPrice is the average entry price of the position the fill traded against.
	AverageEntryPrice float64
}

// BacktestState is the account ledger of one run.
// Money is held in decimals; the identity cash + margin_locked + unrealized_pnl == portfolio_value
// holds after every call. A failing call leaves the ledger untouched.
type BacktestState struct {
	fee        commission_fee.CommissionFee
	multiplier decimal.Decimal

	cash            decimal.Decimal
	marginLocked    decimal.Decimal
	realizedPnL     decimal.Decimal
	totalCommission decimal.Decimal
	position        int64
	averagePrice    decimal.Decimal
	markPrice       decimal.Decimal

	logger *logger.Logger
}

func NewBacktestState(initialCapital float64, spec types.ContractSpec, fee commission_fee.CommissionFee, logger *logger.Logger) (*BacktestState, error) {
	if math.IsNaN(initialCapital) || math.IsInf(initialCapital, 0) || initialCapital <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "initial capital must be positive, got %v", initialCapital)
	}

	if fee == nil {
		return nil, errors.New(errors.ErrCodeBacktestNoContract, "commission model is required")
	}

	if spec.Multiplier <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidContractSpec, "multiplier must be positive, got %v", spec.Multiplier)
	}

	return &BacktestState{
		fee:             fee,
		multiplier:      decimal.NewFromFloat(spec.Multiplier),
		cash:            decimal.NewFromFloat(initialCapital),
		marginLocked:    decimal.Zero,
		realizedPnL:     decimal.Zero,
		totalCommission: decimal.Zero,
		position:        0,
		averagePrice:    decimal.Zero,
		markPrice:       decimal.Zero,
		logger:          logger,
	}, nil
}

// Mark values the open position at price.
func (b *BacktestState) Mark(price float64) {
	b.markPrice = decimal.NewFromFloat(price)
}

// Position returns the signed position.
func (b *BacktestState) Position() int64 {
	return b.position
}

// CheckMargin reports whether opening size contracts at price is affordable from free cash.
func (b *BacktestState) CheckMargin(size int64, price float64) error {
	commission, margin, err := b.fee.Calculate(size, price)
	if err != nil {
		return err
	}

	need := decimal.NewFromFloat(commission).Add(decimal.NewFromFloat(margin))
	if need.GreaterThan(b.cash) {
		return errors.Newf(errors.ErrCodeInsufficientMargin,
			"%d contracts at %.4f need %s for margin and commission, cash is %s",
			size, price, need.StringFixed(2), b.cash.StringFixed(2))
	}

	return nil
}

// Update applies a fill. Fills either open/increase the position or reduce it;
// a fill larger than the open position is refused instead of flipping it.
func (b *BacktestState) Update(fill Fill) (UpdateResult, error) {
	if fill.Size <= 0 {
		return UpdateResult{}, errors.Newf(errors.ErrCodeInvalidFill, "fill size must be positive, got %d", fill.Size)
	}

	if math.IsNaN(fill.Price) || math.IsInf(fill.Price, 0) || fill.Price <= 0 {
		return UpdateResult{}, errors.Newf(errors.ErrCodeInvalidFill, "fill price must be positive, got %v", fill.Price)
	}

	signed := fill.Side.Sign() * fill.Size
	result := UpdateResult{
		PositionBefore:    b.position,
		PositionAfter:     b.position + signed,
		AverageEntryPrice: b.averagePrice.InexactFloat64(),
	}

	if b.position == 0 || sameSign(b.position, signed) {
		return b.open(fill, result)
	}

	return b.reduce(fill, result)
}

func (b *BacktestState) open(fill Fill, result UpdateResult) (UpdateResult, error) {
	commission, margin, err := b.fee.Calculate(fill.Size, fill.Price)
	if err != nil {
		return UpdateResult{}, err
	}

	commissionDec := decimal.NewFromFloat(commission)
	marginDec := decimal.NewFromFloat(margin)

	need := commissionDec.Add(marginDec)
	if need.GreaterThan(b.cash) {
		return UpdateResult{}, errors.Newf(errors.ErrCodeInsufficientMargin,
			"fill of %d at %.4f needs %s, cash is %s", fill.Size, fill.Price, need.StringFixed(2), b.cash.StringFixed(2))
	}

	held := decimal.NewFromInt(abs(b.position))
	size := decimal.NewFromInt(fill.Size)
	price := decimal.NewFromFloat(fill.Price)

	b.averagePrice = b.averagePrice.Mul(held).Add(price.Mul(size)).Div(held.Add(size))
	b.cash = b.cash.Sub(need)
	b.marginLocked = b.marginLocked.Add(marginDec)
	b.totalCommission = b.totalCommission.Add(commissionDec)
	b.position = result.PositionAfter

	result.Commission = commission
	result.Margin = margin
	result.AverageEntryPrice = b.averagePrice.InexactFloat64()

	b.logger.Debug("Position opened",
		zap.String("order_id", fill.OrderID),
		zap.Int64("position", b.position),
		zap.Float64("price", fill.Price),
		zap.Float64("commission", commission),
		zap.Float64("margin", margin),
	)

	return result, nil
}

func (b *BacktestState) reduce(fill Fill, result UpdateResult) (UpdateResult, error) {
	held := abs(b.position)
	if fill.Size > held {
		return UpdateResult{}, errors.Newf(errors.ErrCodeInvalidFill,
			"fill of %d %s would flip position %d", fill.Size, fill.Side, b.position)
	}

	commission, _, err := b.fee.Calculate(fill.Size, fill.Price)
	if err != nil {
		return UpdateResult{}, err
	}

	commissionDec := decimal.NewFromFloat(commission)
	size := decimal.NewFromInt(fill.Size)
	direction := decimal.NewFromInt(sign(b.position))

	realized := decimal.NewFromFloat(fill.Price).Sub(b.averagePrice).Mul(size).Mul(b.multiplier).Mul(direction)

	released := b.marginLocked
	if fill.Size < held {
		released = b.marginLocked.Mul(size).Div(decimal.NewFromInt(held))
	}

	b.cash = b.cash.Add(released).Add(realized).Sub(commissionDec)
	b.marginLocked = b.marginLocked.Sub(released)
	b.realizedPnL = b.realizedPnL.Add(realized)
	b.totalCommission = b.totalCommission.Add(commissionDec)
	b.position = result.PositionAfter

	if b.position == 0 {
		b.averagePrice = decimal.Zero
		b.marginLocked = decimal.Zero
	}

	result.Commission = commission
	result.Margin = released.InexactFloat64()
	result.RealizedPnL = realized.InexactFloat64()

	b.logger.Debug("Position reduced",
		zap.String("order_id", fill.OrderID),
		zap.Int64("position", b.position),
		zap.Float64("price", fill.Price),
		zap.Float64("realized_pnl", result.RealizedPnL),
		zap.Float64("commission", commission),
	)

	return result, nil
}

func (b *BacktestState) unrealizedPnL() decimal.Decimal {
	if b.position == 0 {
		return decimal.Zero
	}

	return b.markPrice.Sub(b.averagePrice).Mul(decimal.NewFromInt(b.position)).Mul(b.multiplier)
}

// PortfolioValue is cash + margin_locked + unrealized_pnl.
func (b *BacktestState) PortfolioValue() float64 {
	return b.cash.Add(b.marginLocked).Add(b.unrealizedPnL()).InexactFloat64()
}

// Account returns a snapshot of the ledger.
func (b *BacktestState) Account() types.AccountInfo {
	unrealized := b.unrealizedPnL()

	return types.AccountInfo{
		Cash:              b.cash.InexactFloat64(),
		MarginLocked:      b.marginLocked.InexactFloat64(),
		Position:          b.position,
		AverageEntryPrice: b.averagePrice.InexactFloat64(),
		MarkPrice:         b.markPrice.InexactFloat64(),
		RealizedPnL:       b.realizedPnL.InexactFloat64(),
		UnrealizedPnL:     unrealized.InexactFloat64(),
		TotalCommission:   b.totalCommission.InexactFloat64(),
		PortfolioValue:    b.cash.Add(b.marginLocked).Add(unrealized).InexactFloat64(),
	}
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}

	return v
}

func sign(v int64) int64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func sameSign(a, b int64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}
