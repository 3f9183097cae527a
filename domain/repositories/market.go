package repositories

import "context"

// Quote is a point-in-time price snapshot for one symbol
type Quote struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
}

// Candle is one daily OHLCV record
type Candle struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// MarketData abstracts the stock feed source. The orchestrator passes
// this data through without interpreting it.
type MarketData interface {
	// Snapshot returns current quotes for every tracked symbol
	Snapshot(ctx context.Context) ([]Quote, error)
	// Quote returns the current quote for one symbol
	Quote(ctx context.Context, symbol string) (Quote, error)
	// History returns daily candles for a symbol between two dates
	History(ctx context.Context, symbol, fromDate, toDate string) ([]Candle, error)
}
