package engine

import (
	"fmt"
	"math"
	"strconv"

	"github.com/rxtech-lab/argo-backtest/internal/log"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/trading"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"go.uber.org/zap"
)

// BacktestTrading is the simulated broker of a backtest run.
//
// Market orders fill at the close of the bar they are executed on. Stop orders
// placed on an earlier bar trigger when the bar trades through the stop price and
// fill at the stop, or at the open when the bar gapped through it.
// Orders are never modified once terminal.
type BacktestTrading struct {
	symbol string
	state  *BacktestState
	log    log.Log
	logger *logger.Logger

	bar      types.Bar
	barIndex int

	orders map[string]*types.Order
	// submission order of the ids in orders
	sequence     []string
	submittedBar map[string]int
}

func NewBacktestTrading(symbol string, state *BacktestState, eventLog log.Log, logger *logger.Logger) *BacktestTrading {
	return &BacktestTrading{
		symbol:       symbol,
		state:        state,
		log:          eventLog,
		logger:       logger,
		barIndex:     -1,
		orders:       make(map[string]*types.Order),
		sequence:     []string{},
		submittedBar: make(map[string]int),
	}
}

var _ trading.Broker = (*BacktestTrading)(nil)

// UpdateCurrentBar moves the broker to the next bar.
func (b *BacktestTrading) UpdateCurrentBar(bar types.Bar, index int) {
	b.bar = bar
	b.barIndex = index
}

// Submit implements trading.Broker.
func (b *BacktestTrading) Submit(order types.Order) types.OrderEvent {
	if _, exists := b.orders[order.ID]; exists {
		event := types.OrderEvent{
			OrderID: order.ID,
			Tag:     order.Tag,
			Status:  types.OrderStatusRejected,
			Time:    b.bar.Time,
			Reason:  "duplicate order id",
		}
		b.emit(types.LogLevelWarn, types.EventTypeOrderRejected, order.ID, event.Reason, nil)

		return event
	}

	order.CreatedAt = b.bar.Time
	order.UpdatedAt = b.bar.Time
	order.Status = types.OrderStatusSubmitted

	b.orders[order.ID] = &order
	b.sequence = append(b.sequence, order.ID)
	b.submittedBar[order.ID] = b.barIndex

	if err := order.Validate(); err != nil {
		return b.reject(&order, types.EventTypeOrderRejected, err.Error())
	}

	if order.Symbol != b.symbol {
		return b.reject(&order, types.EventTypeOrderRejected, fmt.Sprintf("symbol %s is not traded in this run", order.Symbol))
	}

	if order.Tag == types.OrderTagEntry {
		if err := b.state.CheckMargin(order.Size, b.referencePrice(&order)); err != nil {
			eventType := types.EventTypeOrderRejected
			if errors.HasCode(err, errors.ErrCodeInsufficientMargin) {
				eventType = types.EventTypeMarginInsufficient
			}

			return b.reject(&order, eventType, err.Error())
		}
	}

	fields := map[string]string{
		"tag":  string(order.Tag),
		"side": string(order.Side),
		"kind": string(order.Kind),
		"size": strconv.FormatInt(order.Size, 10),
	}
	if order.StopPrice.IsSome() {
		fields["stop_price"] = strconv.FormatFloat(order.StopPrice.Unwrap(), 'f', -1, 64)
	}

	b.emit(types.LogLevelInfo, types.EventTypeOrderSubmitted, order.ID, fmt.Sprintf("%s order submitted", order.Tag), fields)

	return b.event(&order)
}

// Cancel implements trading.Broker.
func (b *BacktestTrading) Cancel(orderID string, reason string) (types.OrderEvent, bool) {
	order, ok := b.orders[orderID]
	if !ok || !order.Status.IsActive() {
		return types.OrderEvent{}, false
	}

	order.Status = types.OrderStatusCanceled
	order.RejectReason = reason
	order.UpdatedAt = b.bar.Time

	b.emit(types.LogLevelInfo, types.EventTypeOrderCanceled, order.ID, reason, map[string]string{"tag": string(order.Tag)})

	return b.event(order), true
}

// PendingStops implements trading.Broker. Stops submitted on the current bar are left for the next one.
func (b *BacktestTrading) PendingStops() []string {
	ids := []string{}

	for _, id := range b.sequence {
		order := b.orders[id]
		if order.Kind == types.OrderKindStop && order.Status.IsActive() && b.submittedBar[id] < b.barIndex {
			ids = append(ids, id)
		}
	}

	return ids
}

// PendingMarkets implements trading.Broker.
func (b *BacktestTrading) PendingMarkets() []string {
	ids := []string{}

	for _, id := range b.sequence {
		order := b.orders[id]
		if order.Kind == types.OrderKindMarket && order.Status.IsActive() {
			ids = append(ids, id)
		}
	}

	return ids
}

// Execute implements trading.Broker. A fill the ledger refuses rejects the order.
func (b *BacktestTrading) Execute(orderID string) (types.OrderEvent, bool) {
	order, ok := b.orders[orderID]
	if !ok || !order.Status.IsActive() {
		return types.OrderEvent{}, false
	}

	price, triggered := b.fillPrice(order)
	if !triggered {
		return types.OrderEvent{}, false
	}

	if order.Tag != types.OrderTagEntry {
		position := b.state.Position()
		if position == 0 || sameSign(position, order.Side.Sign()) {
			return b.reject(order, types.EventTypeOrderRejected, fmt.Sprintf("%s order has no position to close", order.Tag)), true
		}
	}

	result, err := b.state.Update(Fill{
		OrderID: order.ID,
		Side:    order.Side,
		Size:    order.Size,
		Price:   price,
		Time:    b.bar.Time,
	})
	if err != nil {
		eventType := types.EventTypeOrderRejected
		if errors.HasCode(err, errors.ErrCodeInsufficientMargin) {
			eventType = types.EventTypeMarginInsufficient
		}

		return b.reject(order, eventType, err.Error()), true
	}

	order.Status = types.OrderStatusFilled
	order.ExecutedAt = b.bar.Time
	order.ExecutedPrice = price
	order.ExecutedSize = order.Size
	order.Commission = result.Commission
	order.UpdatedAt = b.bar.Time

	b.emit(types.LogLevelInfo, types.EventTypeOrderFilled, order.ID, fmt.Sprintf("%s order filled", order.Tag), map[string]string{
		"tag":        string(order.Tag),
		"side":       string(order.Side),
		"size":       strconv.FormatInt(order.Size, 10),
		"price":      strconv.FormatFloat(price, 'f', -1, 64),
		"commission": strconv.FormatFloat(result.Commission, 'f', -1, 64),
		"position":   strconv.FormatInt(result.PositionAfter, 10),
	})

	return b.event(order), true
}

// GetOrder implements trading.Broker.
func (b *BacktestTrading) GetOrder(orderID string) (types.Order, error) {
	order, ok := b.orders[orderID]
	if !ok {
		return types.Order{}, errors.Newf(errors.ErrCodeOrderNotFound, "order %s not found", orderID)
	}

	return *order, nil
}

// GetOrders implements trading.Broker.
func (b *BacktestTrading) GetOrders() []types.Order {
	orders := make([]types.Order, 0, len(b.sequence))
	for _, id := range b.sequence {
		orders = append(orders, *b.orders[id])
	}

	return orders
}

// GetAccountInfo implements trading.Broker.
func (b *BacktestTrading) GetAccountInfo() types.AccountInfo {
	return b.state.Account()
}

// fillPrice returns the execution price on the current bar and whether the order fills at all.
func (b *BacktestTrading) fillPrice(order *types.Order) (float64, bool) {
	if order.Kind == types.OrderKindMarket {
		return b.bar.Close, true
	}

	if b.submittedBar[order.ID] >= b.barIndex {
		return 0, false
	}

	stop := order.StopPrice.Unwrap()

	if order.Side == types.OrderSideSell {
		if b.bar.Low > stop {
			return 0, false
		}

		return math.Min(b.bar.Open, stop), true
	}

	if b.bar.High < stop {
		return 0, false
	}

	return math.Max(b.bar.Open, stop), true
}

// referencePrice is the price margin is checked against when an order is accepted.
func (b *BacktestTrading) referencePrice(order *types.Order) float64 {
	if order.Kind == types.OrderKindStop && order.StopPrice.IsSome() {
		return order.StopPrice.Unwrap()
	}

	return b.bar.Close
}

func (b *BacktestTrading) reject(order *types.Order, eventType types.EventType, reason string) types.OrderEvent {
	order.Status = types.OrderStatusRejected
	order.RejectReason = reason
	order.UpdatedAt = b.bar.Time

	b.logger.Debug("Order rejected",
		zap.String("order_id", order.ID),
		zap.String("tag", string(order.Tag)),
		zap.String("reason", reason),
	)

	b.emit(types.LogLevelWarn, eventType, order.ID, reason, map[string]string{"tag": string(order.Tag)})

	return b.event(order)
}

func (b *BacktestTrading) event(order *types.Order) types.OrderEvent {
	event := types.OrderEvent{
		OrderID: order.ID,
		Tag:     order.Tag,
		Status:  order.Status,
		Time:    b.bar.Time,
	}

	switch order.Status {
	case types.OrderStatusFilled:
		event.Price = order.ExecutedPrice
		event.Size = order.ExecutedSize
		event.Commission = order.Commission
	case types.OrderStatusRejected, types.OrderStatusCanceled:
		event.Reason = order.RejectReason
	}

	return event
}

func (b *BacktestTrading) emit(level types.LogLevel, eventType types.EventType, orderID string, message string, fields map[string]string) {
	if b.log == nil {
		return
	}

	if err := b.log.Log(log.LogEntry{
		Timestamp: b.bar.Time,
		Symbol:    b.symbol,
		Level:     level,
		Type:      eventType,
		OrderID:   orderID,
		Message:   message,
		Fields:    fields,
	}); err != nil {
		b.logger.Warn("Failed to record order event", zap.String("order_id", orderID), zap.Error(err))
	}
}
