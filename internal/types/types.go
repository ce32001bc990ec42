package types

import "time"

// TradeAction is the direction of a recorded bot trade.
type TradeAction string

const (
	ActionBuy  TradeAction = "BUY"
	ActionSell TradeAction = "SELL"
)

// Trade is one entry from a bot's action history. ProfitLossPct is only set
// on closed round-trips; open entries leave it nil and are treated as zero
// by the analytics layer.
type Trade struct {
	ID            string      `json:"id"`
	Symbol        string      `json:"symbol"`
	Action        TradeAction `json:"action"`
	Price         float64     `json:"price,omitempty"`
	Quantity      float64     `json:"quantity,omitempty"`
	ProfitLossPct *float64    `json:"profit_loss_pct,omitempty"`
	ExecutedAt    time.Time   `json:"executed_at,omitempty"`
}

// Position is a currently held (unrealized) holding reported by a bot.
type Position struct {
	ID             string    `json:"id"`
	Symbol         string    `json:"symbol"`
	Quantity       float64   `json:"quantity,omitempty"`
	EntryPrice     float64   `json:"entry_price,omitempty"`
	CurrentPrice   float64   `json:"current_price,omitempty"`
	TotalReturnPct float64   `json:"total_return_pct"`
	IsLive         bool      `json:"is_live"`
	OpenedAt       time.Time `json:"opened_at,omitempty"`
}

// Performance is the aggregate snapshot served by the dashboard. Extra holds
// upstream fields the enrichment does not recompute, so a partial performance
// object from the backend passes through untouched.
type Performance struct {
	WinRate     float64 `json:"win_rate"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	AvgWinPct   float64 `json:"avg_win_pct"`
	AvgLossPct  float64 `json:"avg_loss_pct"`
	RiskReward  float64 `json:"risk_reward"`
	TotalTrades int     `json:"total_trades"`

	Extra map[string]any `json:"extra,omitempty"`
}

// SymbolExposure is a per-symbol rollup of open positions.
type SymbolExposure struct {
	Symbol       string  `json:"symbol"`
	Positions    int     `json:"positions"`
	LiveCount    int     `json:"live_count"`
	SumReturnPct string  `json:"sum_return_pct"`
	AvgReturnPct float64 `json:"avg_return_pct"`
}

// BotSnapshot is one bot's derived view, rebuilt on every refresh.
type BotSnapshot struct {
	Bot         string           `json:"bot"`
	SnapshotID  string           `json:"snapshot_id"`
	FetchedAt   time.Time        `json:"fetched_at"`
	Trades      []Trade          `json:"trades"`
	Positions   []Position       `json:"positions"`
	Performance Performance      `json:"performance"`
	Exposure    []SymbolExposure `json:"exposure"`
}
