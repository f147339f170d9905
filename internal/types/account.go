package types

// AccountInfo is a read-only snapshot of the simulated account.
type AccountInfo struct {
	// Cash excludes locked margin and unrealized P&L.
	Cash float64 `json:"cash" yaml:"cash"`
	// MarginLocked is the margin held against the open position.
	MarginLocked float64 `json:"margin_locked" yaml:"margin_locked"`
	// Position is signed: positive long, negative short.
	Position int64 `json:"position" yaml:"position"`
	// AverageEntryPrice is zero when flat.
	AverageEntryPrice float64 `json:"average_entry_price" yaml:"average_entry_price"`
	// MarkPrice is the last price the account was marked to.
	MarkPrice       float64 `json:"mark_price" yaml:"mark_price"`
	RealizedPnL     float64 `json:"realized_pnl" yaml:"realized_pnl"`
	UnrealizedPnL   float64 `json:"unrealized_pnl" yaml:"unrealized_pnl"`
	TotalCommission float64 `json:"total_commission" yaml:"total_commission"`
	// PortfolioValue equals Cash + MarginLocked + UnrealizedPnL.
	PortfolioValue float64 `json:"portfolio_value" yaml:"portfolio_value"`
}
