// Package market fetches daily OHLCV price history from the quote
// provider's REST API.
package market

// Bar is one daily candle for a symbol.
type Bar struct {
	Symbol string
	Date   string // YYYY-MM-DD
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// priceHistoryResponse mirrors the provider's candle payload. Datetime is
// epoch milliseconds at the start of the trading day, UTC.
type priceHistoryResponse struct {
	Symbol  string   `json:"symbol"`
	Empty   bool     `json:"empty"`
	Candles []candle `json:"candles"`
}

type candle struct {
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   int64   `json:"volume"`
	Datetime int64   `json:"datetime"`
}
