package trading

import "github.com/rxtech-lab/argo-backtest/internal/types"

// Broker accepts orders of a single instrument and fills them against bars.
type Broker interface {
	// Submit accepts or rejects an order. The returned event carries the new status.
	Submit(order types.Order) types.OrderEvent
	// Cancel cancels an active order. Canceling a terminal order is a no-op and reports false.
	Cancel(orderID string, reason string) (types.OrderEvent, bool)
	// Execute tries to fill an active order on the current bar.
	// It reports false when the order is not eligible for a fill on this bar.
	Execute(orderID string) (types.OrderEvent, bool)
	// PendingStops returns the ids of the active stop orders that may trigger on the current bar.
	PendingStops() []string
	// PendingMarkets returns the ids of the active market orders.
	PendingMarkets() []string
	// GetOrder returns a snapshot of an order.
	GetOrder(orderID string) (types.Order, error)
	// GetOrders returns snapshots of all orders in submission order.
	GetOrders() []types.Order
	// GetAccountInfo returns the current account state.
	GetAccountInfo() types.AccountInfo
}
