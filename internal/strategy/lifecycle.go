package strategy

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/log"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

type LifecycleState string

const (
	StateIdle         LifecycleState = "idle"
	StatePendingEntry LifecycleState = "pending_entry"
	StateOpen         LifecycleState = "open"
	StatePendingExit  LifecycleState = "pending_exit"
	StateClosed       LifecycleState = "closed"
)

// Lifecycle drives a single position through entry, protective stop and exit.
// Orders are referred to by id only. At most one protective stop is outstanding.
type Lifecycle struct {
	symbol           string
	direction        types.Direction
	stopLossDistance float64
	log              log.Log
	newID            func() string

	state  LifecycleState
	orders map[string]types.Order
	// ids of the orders of the current round trip, empty when not placed
	entryID string
	stopID  string
	closeID string

	entryPrice float64
	entrySize  int64
	exitReason optional.Option[types.OrderTag]
}

func NewLifecycle(symbol string, direction types.Direction, stopLossDistance float64, sink log.Log) *Lifecycle {
	return &Lifecycle{
		symbol:           symbol,
		direction:        direction,
		stopLossDistance: stopLossDistance,
		log:              sink,
		newID:            uuid.NewString,
		state:            StateIdle,
		orders:           make(map[string]types.Order),
		exitReason:       optional.None[types.OrderTag](),
	}
}

func (l *Lifecycle) State() LifecycleState {
	return l.state
}

// EntryPrice and EntrySize describe the open position. Both are zero before the entry fill.
func (l *Lifecycle) EntryPrice() float64 {
	return l.entryPrice
}

func (l *Lifecycle) EntrySize() int64 {
	return l.entrySize
}

// ExitReason is the tag of the order that closed the last round trip.
func (l *Lifecycle) ExitReason() optional.Option[types.OrderTag] {
	return l.exitReason
}

// StopOrderID returns the id of the outstanding protective stop, if any.
func (l *Lifecycle) StopOrderID() optional.Option[string] {
	if l.stopID == "" {
		return optional.None[string]()
	}

	if order, ok := l.orders[l.stopID]; ok && order.Status.IsActive() {
		return optional.Some(l.stopID)
	}

	return optional.None[string]()
}

// NeedsProtection reports an open position whose stop is gone, which happens when
// both the stop and the close that replaced it were refused.
func (l *Lifecycle) NeedsProtection() bool {
	return l.state == StateOpen && l.StopOrderID().IsNone()
}

// Order returns a snapshot of a tracked order.
func (l *Lifecycle) Order(id string) (types.Order, bool) {
	order, ok := l.orders[id]

	return order, ok
}

// BeginBar moves a closed round trip back to idle.
func (l *Lifecycle) BeginBar(_ time.Time) {
	if l.state != StateClosed {
		return
	}

	l.state = StateIdle
	l.entryID, l.stopID, l.closeID = "", "", ""
	l.entryPrice, l.entrySize = 0, 0
}

// Enter opens a position of size contracts with a market order.
// A size of zero is a degenerate sizing: nothing is submitted and the state stays idle.
func (l *Lifecycle) Enter(at time.Time, size int64) ([]types.OrderIntent, error) {
	if l.state != StateIdle {
		return nil, errors.Newf(errors.ErrCodeInvalidOrder, "cannot enter while %s", l.state)
	}

	if size <= 0 {
		err := errors.Newf(errors.ErrCodeSizingDegenerate, "position sizer returned %d contracts", size)
		l.emit(at, types.LogLevelWarn, types.EventTypeSizingDegenerate, "", err.Error())

		return nil, err
	}

	order := l.newOrder(at, l.direction.EntrySide(), types.OrderKindMarket, size, types.OrderTagEntry, optional.None[float64]())
	l.entryID = order.ID
	l.exitReason = optional.None[types.OrderTag]()
	l.state = StatePendingEntry

	return []types.OrderIntent{types.SubmitIntent(order)}, nil
}

// RequestClose flattens the open position with a market order tagged manual_close.
func (l *Lifecycle) RequestClose(at time.Time, reason string) ([]types.OrderIntent, error) {
	if l.state != StateOpen {
		return nil, errors.Newf(errors.ErrCodeInvalidOrder, "cannot close while %s", l.state)
	}

	order := l.newOrder(at, l.direction.ExitSide(), types.OrderKindMarket, l.entrySize, types.OrderTagManualClose, optional.None[float64]())
	l.closeID = order.ID
	l.state = StatePendingExit

	l.emit(at, types.LogLevelInfo, types.EventTypeSignal, order.ID, fmt.Sprintf("closing position: %s", reason))

	return []types.OrderIntent{types.SubmitIntent(order)}, nil
}

// OnOrderEvent applies a broker report and returns the follow-up intents.
func (l *Lifecycle) OnOrderEvent(event types.OrderEvent) []types.OrderIntent {
	order, ok := l.orders[event.OrderID]
	if !ok {
		l.emit(event.Time, types.LogLevelWarn, types.EventTypeStrategyError, event.OrderID, "event for unknown order")

		return nil
	}

	order.Status = event.Status
	order.UpdatedAt = event.Time

	if event.Status == types.OrderStatusFilled {
		order.ExecutedAt = event.Time
		order.ExecutedPrice = event.Price
		order.ExecutedSize = event.Size
		order.Commission = event.Commission
	}

	if event.Status == types.OrderStatusRejected || event.Status == types.OrderStatusCanceled {
		order.RejectReason = event.Reason
	}

	l.orders[order.ID] = order

	switch order.ID {
	case l.entryID:
		return l.onEntryEvent(event)
	case l.stopID:
		return l.onStopEvent(event)
	case l.closeID:
		return l.onCloseEvent(event)
	default:
		// An order of an earlier round trip, nothing to do.
		return nil
	}
}

func (l *Lifecycle) onEntryEvent(event types.OrderEvent) []types.OrderIntent {
	switch event.Status {
	case types.OrderStatusFilled:
		if l.state != StatePendingEntry {
			return nil
		}

		l.state = StateOpen
		l.entryPrice = event.Price
		l.entrySize = event.Size

		stopPrice := event.Price - float64(l.direction.Sign())*l.stopLossDistance
		if stopPrice <= 0 {
			l.emit(event.Time, types.LogLevelWarn, types.EventTypeOrderRejected, event.OrderID,
				fmt.Sprintf("stop price %.4f is not positive, closing at market", stopPrice))

			intents, _ := l.RequestClose(event.Time, "no valid stop price")

			return intents
		}

		stop := l.newOrder(event.Time, l.direction.ExitSide(), types.OrderKindStop, l.entrySize, types.OrderTagStopLoss, optional.Some(stopPrice))
		l.stopID = stop.ID

		return []types.OrderIntent{types.SubmitIntent(stop)}
	case types.OrderStatusRejected, types.OrderStatusCanceled:
		if l.state == StatePendingEntry {
			l.state = StateIdle
			l.entryID = ""
			l.emit(event.Time, types.LogLevelWarn, types.EventTypeOrderRejected, event.OrderID,
				fmt.Sprintf("entry order %s: %s", event.Status, event.Reason))
		}
	}

	return nil
}

func (l *Lifecycle) onStopEvent(event types.OrderEvent) []types.OrderIntent {
	switch event.Status {
	case types.OrderStatusFilled:
		return l.closeWith(event, types.OrderTagStopLoss, l.closeID)
	case types.OrderStatusRejected, types.OrderStatusCanceled:
		if l.state != StateOpen {
			return nil
		}

		// An open position never stays without its stop.
		intents, _ := l.RequestClose(event.Time, fmt.Sprintf("protective stop %s: %s", event.Status, event.Reason))

		return intents
	}

	return nil
}

func (l *Lifecycle) onCloseEvent(event types.OrderEvent) []types.OrderIntent {
	switch event.Status {
	case types.OrderStatusFilled:
		return l.closeWith(event, types.OrderTagManualClose, l.stopID)
	case types.OrderStatusRejected, types.OrderStatusCanceled:
		if l.state == StatePendingExit {
			l.state = StateOpen
			l.closeID = ""
			l.emit(event.Time, types.LogLevelWarn, types.EventTypeOrderRejected, event.OrderID,
				fmt.Sprintf("close order %s: %s", event.Status, event.Reason))
		}
	}

	return nil
}

// closeWith finishes the round trip and cancels the sibling exit order if it is still live.
func (l *Lifecycle) closeWith(event types.OrderEvent, reason types.OrderTag, siblingID string) []types.OrderIntent {
	if l.state != StateOpen && l.state != StatePendingExit {
		return nil
	}

	l.state = StateClosed
	l.exitReason = optional.Some(reason)

	if siblingID == "" {
		return nil
	}

	sibling, ok := l.orders[siblingID]
	if !ok || !sibling.Status.IsActive() {
		return nil
	}

	return []types.OrderIntent{types.CancelIntent(siblingID, fmt.Sprintf("position closed by %s", reason))}
}

func (l *Lifecycle) newOrder(at time.Time, side types.OrderSide, kind types.OrderKind, size int64, tag types.OrderTag, stopPrice optional.Option[float64]) types.Order {
	order := types.Order{
		ID:        l.newID(),
		Symbol:    l.symbol,
		Side:      side,
		Kind:      kind,
		Size:      size,
		StopPrice: stopPrice,
		Status:    types.OrderStatusPending,
		Tag:       tag,
		CreatedAt: at,
		UpdatedAt: at,
	}
	l.orders[order.ID] = order

	return order
}

func (l *Lifecycle) emit(at time.Time, level types.LogLevel, eventType types.EventType, orderID string, message string) {
	if l.log == nil {
		return
	}

	_ = l.log.Log(log.LogEntry{
		Timestamp: at,
		Symbol:    l.symbol,
		Level:     level,
		Type:      eventType,
		OrderID:   orderID,
		Message:   message,
	})
}
