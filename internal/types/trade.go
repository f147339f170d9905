package types

import "time"

// TradeRecord is one round trip: an entry fill followed by the fill that flattened it.
type TradeRecord struct {
	Symbol     string    `yaml:"symbol" json:"symbol" csv:"symbol"`
	Direction  Direction `yaml:"direction" json:"direction" csv:"direction"`
	EntryTime  time.Time `yaml:"entry_time" json:"entry_time" csv:"entry_time"`
	ExitTime   time.Time `yaml:"exit_time" json:"exit_time" csv:"exit_time"`
	EntryPrice float64   `yaml:"entry_price" json:"entry_price" csv:"entry_price"`
	ExitPrice  float64   `yaml:"exit_price" json:"exit_price" csv:"exit_price"`
	Size       int64     `yaml:"size" json:"size" csv:"size"`
	// GrossPnL is the price move times size and multiplier, before commission.
	GrossPnL float64 `yaml:"gross_pnl" json:"gross_pnl" csv:"gross_pnl"`
	// Commission is the sum of entry and exit commission.
	Commission   float64  `yaml:"commission" json:"commission" csv:"commission"`
	NetPnL       float64  `yaml:"net_pnl" json:"net_pnl" csv:"net_pnl"`
	ExitReason   OrderTag `yaml:"exit_reason" json:"exit_reason" csv:"exit_reason"`
	BarsHeld     int      `yaml:"bars_held" json:"bars_held" csv:"bars_held"`
	EntryOrderID string   `yaml:"entry_order_id" json:"entry_order_id" csv:"entry_order_id"`
	ExitOrderID  string   `yaml:"exit_order_id" json:"exit_order_id" csv:"exit_order_id"`
}

// IsWin reports whether the trade made money after commission.
func (t TradeRecord) IsWin() bool {
	return t.NetPnL > 0
}

// EquitySample is the account marked to one bar's close.
type EquitySample struct {
	Time           time.Time `yaml:"time" json:"time" csv:"time"`
	BarIndex       int       `yaml:"bar_index" json:"bar_index" csv:"bar_index"`
	Close          float64   `yaml:"close" json:"close" csv:"close"`
	Cash           float64   `yaml:"cash" json:"cash" csv:"cash"`
	MarginLocked   float64   `yaml:"margin_locked" json:"margin_locked" csv:"margin_locked"`
	UnrealizedPnL  float64   `yaml:"unrealized_pnl" json:"unrealized_pnl" csv:"unrealized_pnl"`
	PortfolioValue float64   `yaml:"portfolio_value" json:"portfolio_value" csv:"portfolio_value"`
	Position       int64     `yaml:"position" json:"position" csv:"position"`
}
