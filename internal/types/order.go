package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

type OrderSide string

type OrderKind string

type OrderStatus string

type OrderTag string

type Direction string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

const (
	OrderKindMarket OrderKind = "MARKET"
	OrderKindStop   OrderKind = "STOP"
)

const (
	// OrderStatusPending is an order the strategy created but the broker has not accepted yet.
	OrderStatusPending OrderStatus = "PENDING"
	// OrderStatusSubmitted is an order accepted by the broker and waiting for a fill.
	OrderStatusSubmitted OrderStatus = "SUBMITTED"
	OrderStatusFilled    OrderStatus = "FILLED"
	OrderStatusCanceled  OrderStatus = "CANCELED"
	OrderStatusRejected  OrderStatus = "REJECTED"
)

const (
	OrderTagEntry       OrderTag = "entry"
	OrderTagStopLoss    OrderTag = "stop_loss"
	OrderTagManualClose OrderTag = "manual_close"
)

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// Sign returns +1 for buys and -1 for sells.
func (s OrderSide) Sign() int64 {
	if s == OrderSideSell {
		return -1
	}

	return 1
}

// Sign returns +1 for long and -1 for short.
func (d Direction) Sign() int64 {
	if d == DirectionShort {
		return -1
	}

	return 1
}

// EntrySide is the side that opens a position in this direction.
func (d Direction) EntrySide() OrderSide {
	if d == DirectionShort {
		return OrderSideSell
	}

	return OrderSideBuy
}

// ExitSide is the side that flattens a position in this direction.
func (d Direction) ExitSide() OrderSide {
	if d == DirectionShort {
		return OrderSideBuy
	}

	return OrderSideSell
}

// IsTerminal reports whether no further transition is possible.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusFilled || s == OrderStatusCanceled || s == OrderStatusRejected
}

// IsActive reports whether the order can still fill.
func (s OrderStatus) IsActive() bool {
	return s == OrderStatusPending || s == OrderStatusSubmitted
}

type Order struct {
	ID     string    `yaml:"id" json:"id" csv:"id" validate:"required"`
	Symbol string    `yaml:"symbol" json:"symbol" csv:"symbol" validate:"required"`
	Side   OrderSide `yaml:"side" json:"side" csv:"side" validate:"required,oneof=BUY SELL"`
	Kind   OrderKind `yaml:"kind" json:"kind" csv:"kind" validate:"required,oneof=MARKET STOP"`
	Size   int64     `yaml:"size" json:"size" csv:"size" validate:"gt=0"`
	// StopPrice is set for STOP orders only.
	StopPrice optional.Option[float64] `yaml:"stop_price" json:"stop_price" csv:"stop_price"`
	Status    OrderStatus              `yaml:"status" json:"status" csv:"status" validate:"required,oneof=PENDING SUBMITTED FILLED CANCELED REJECTED"`
	Tag       OrderTag                 `yaml:"tag" json:"tag" csv:"tag" validate:"required,oneof=entry stop_loss manual_close"`
	CreatedAt time.Time                `yaml:"created_at" json:"created_at" csv:"created_at"`
	UpdatedAt time.Time                `yaml:"updated_at" json:"updated_at" csv:"updated_at"`

	ExecutedAt    time.Time `yaml:"executed_at" json:"executed_at" csv:"executed_at"`
	ExecutedPrice float64   `yaml:"executed_price" json:"executed_price" csv:"executed_price"`
	ExecutedSize  int64     `yaml:"executed_size" json:"executed_size" csv:"executed_size"`
	Commission    float64   `yaml:"commission" json:"commission" csv:"commission"`
	// RejectReason explains a REJECTED or CANCELED status.
	RejectReason string `yaml:"reject_reason" json:"reject_reason" csv:"reject_reason"`
}

// Validate validates the Order struct.
func (o *Order) Validate() error {
	validate := validator.New()
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid order", err)
	}

	if o.Kind == OrderKindStop {
		if o.StopPrice.IsNone() {
			return errors.New(errors.ErrCodeInvalidStopLoss, "stop order requires a stop price")
		}

		if price := o.StopPrice.Unwrap(); price <= 0 {
			return errors.Newf(errors.ErrCodeInvalidStopLoss, "stop price must be positive, got %v", price)
		}
	}

	return nil
}

type OrderIntentType string

const (
	OrderIntentSubmit OrderIntentType = "submit"
	OrderIntentCancel OrderIntentType = "cancel"
)

// OrderIntent is what a strategy asks the broker to do.
type OrderIntent struct {
	Type OrderIntentType
	// Order is set for submit intents.
	Order Order
	// OrderID is set for cancel intents.
	OrderID string
	// Reason is recorded on the canceled order.
	Reason string
}

func SubmitIntent(order Order) OrderIntent {
	return OrderIntent{Type: OrderIntentSubmit, Order: order, OrderID: order.ID}
}

func CancelIntent(orderID string, reason string) OrderIntent {
	return OrderIntent{Type: OrderIntentCancel, OrderID: orderID, Reason: reason}
}

// OrderEvent reports a status change of an order back to the strategy.
type OrderEvent struct {
	OrderID string
	Tag     OrderTag
	Status  OrderStatus
	Time    time.Time
	// Price and Size are the fill price and size for FILLED events.
	Price      float64
	Size       int64
	Commission float64
	Reason     string
}
