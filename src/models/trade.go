package models

import "encoding/json"

// Trade statuses.
const (
	TradeStatusPending   = "pending"
	TradeStatusExecuted  = "executed"
	TradeStatusCancelled = "cancelled"
)

// Transaction types of a trade item.
const (
	TransactionBuy  = "buy"
	TransactionSell = "sell"
)

// Trade is a manually drafted basket of orders.
type Trade struct {
	ID         int64       `db:"id" json:"id"`
	Status     string      `db:"status" json:"status"`
	Note       string      `db:"note" json:"note"`
	CreatedAt  string      `db:"created_at" json:"createdAt"`
	ExecutedAt *string     `db:"executed_at" json:"executedAt"`
	Items      []TradeItem `db:"-" json:"items"`
	Snapshot   *Snapshot   `db:"-" json:"snapshot,omitempty"`
}

// TradeItem is one order inside a trade. GmvUsdK is in thousands of USD.
type TradeItem struct {
	ID              int64   `db:"id" json:"id"`
	TradeID         int64   `db:"trade_id" json:"tradeId"`
	TickerBbg       string  `db:"ticker_bbg" json:"tickerBbg"`
	Name            string  `db:"name" json:"name"`
	TransactionType string  `db:"transaction_type" json:"transactionType"`
	GmvUsdK         float64 `db:"gmv_usd_k" json:"gmvUsdK"`
	Unwind          bool    `db:"unwind" json:"unwind"`
	Reason          string  `db:"reason" json:"reason"`
	PositionID      *int64  `db:"position_id" json:"positionId"`
	CreatedAt       string  `db:"created_at" json:"createdAt"`
}

// TradeItemInput is the request body shape of a trade item.
type TradeItemInput struct {
	TickerBbg       string  `json:"tickerBbg"`
	Name            string  `json:"name"`
	TransactionType string  `json:"transactionType"`
	GmvUsdK         float64 `json:"gmvUsdK"`
	Unwind          bool    `json:"unwind"`
	Reason          string  `json:"reason"`
	PositionID      *int64  `json:"positionId"`
}

// TradeInput is the request body to create a trade.
type TradeInput struct {
	Status string           `json:"status"`
	Note   string           `json:"note"`
	Items  []TradeItemInput `json:"items"`
}

// TradeUpdate is the request body to change a trade's status or note.
type TradeUpdate struct {
	Status *string `json:"status"`
	Note   *string `json:"note"`
}

// Snapshot freezes every position right after a trade was executed.
type Snapshot struct {
	ID            int64           `db:"id" json:"id"`
	TradeID       int64           `db:"trade_id" json:"tradeId"`
	PositionsJSON string          `db:"positions_json" json:"-"`
	Positions     json.RawMessage `db:"-" json:"positions"`
	Note          string          `db:"note" json:"note"`
	CreatedAt     string          `db:"created_at" json:"createdAt"`
}
