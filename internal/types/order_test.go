package types

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func validOrder() Order {
	return Order{
		ID:        uuid.New().String(),
		Symbol:    "RB",
		Side:      OrderSideBuy,
		Kind:      OrderKindMarket,
		Size:      2,
		StopPrice: optional.None[float64](),
		Status:    OrderStatusPending,
		Tag:       OrderTagEntry,
		CreatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestOrderValidate(t *testing.T) {
	tests := []struct {
		name         string
		mutate       func(o *Order)
		expectedCode errors.ErrorCode
	}{
		{name: "valid market order", mutate: func(o *Order) {}},
		{
			name: "valid stop order",
			mutate: func(o *Order) {
				o.Kind = OrderKindStop
				o.Side = OrderSideSell
				o.Tag = OrderTagStopLoss
				o.StopPrice = optional.Some(95.0)
			},
		},
		{name: "empty id", mutate: func(o *Order) { o.ID = "" }, expectedCode: errors.ErrCodeInvalidOrder},
		{name: "empty symbol", mutate: func(o *Order) { o.Symbol = "" }, expectedCode: errors.ErrCodeInvalidOrder},
		{name: "invalid side", mutate: func(o *Order) { o.Side = "HOLD" }, expectedCode: errors.ErrCodeInvalidOrder},
		{name: "zero size", mutate: func(o *Order) { o.Size = 0 }, expectedCode: errors.ErrCodeInvalidOrder},
		{name: "negative size", mutate: func(o *Order) { o.Size = -1 }, expectedCode: errors.ErrCodeInvalidOrder},
		{name: "unknown tag", mutate: func(o *Order) { o.Tag = "take_profit" }, expectedCode: errors.ErrCodeInvalidOrder},
		{
			name: "stop order without price",
			mutate: func(o *Order) {
				o.Kind = OrderKindStop
				o.Tag = OrderTagStopLoss
			},
			expectedCode: errors.ErrCodeInvalidStopLoss,
		},
		{
			name: "stop order with negative price",
			mutate: func(o *Order) {
				o.Kind = OrderKindStop
				o.Tag = OrderTagStopLoss
				o.StopPrice = optional.Some(-3.0)
			},
			expectedCode: errors.ErrCodeInvalidStopLoss,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := validOrder()
			tt.mutate(&order)

			err := order.Validate()
			if tt.expectedCode == 0 {
				assert.NoError(t, err)

				return
			}

			assert.Error(t, err)
			assert.Equal(t, tt.expectedCode, errors.GetCode(err))
		})
	}
}

func TestDirectionSides(t *testing.T) {
	assert.Equal(t, OrderSideBuy, DirectionLong.EntrySide())
	assert.Equal(t, OrderSideSell, DirectionLong.ExitSide())
	assert.Equal(t, OrderSideSell, DirectionShort.EntrySide())
	assert.Equal(t, OrderSideBuy, DirectionShort.ExitSide())
	assert.Equal(t, int64(1), DirectionLong.Sign())
	assert.Equal(t, int64(-1), DirectionShort.Sign())
	assert.Equal(t, int64(1), OrderSideBuy.Sign())
	assert.Equal(t, int64(-1), OrderSideSell.Sign())
}

func TestOrderStatusTransitions(t *testing.T) {
	assert.True(t, OrderStatusPending.IsActive())
	assert.True(t, OrderStatusSubmitted.IsActive())
	assert.False(t, OrderStatusFilled.IsActive())

	for _, status := range []OrderStatus{OrderStatusFilled, OrderStatusCanceled, OrderStatusRejected} {
		assert.True(t, status.IsTerminal(), status)
		assert.False(t, status.IsActive(), status)
	}
}

func TestIntents(t *testing.T) {
	order := validOrder()

	submit := SubmitIntent(order)
	assert.Equal(t, OrderIntentSubmit, submit.Type)
	assert.Equal(t, order.ID, submit.OrderID)

	cancel := CancelIntent(order.ID, "sibling filled")
	assert.Equal(t, OrderIntentCancel, cancel.Type)
	assert.Equal(t, order.ID, cancel.OrderID)
	assert.Equal(t, "sibling filled", cancel.Reason)
}
