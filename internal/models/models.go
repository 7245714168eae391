package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// StockRecord is one ticker's price snapshot for a single calendar date,
// optionally annotated with insights attached by the ingestion worker.
// At most one record exists per (ticker, record_date).
type StockRecord struct {
	ID         int                `json:"id"`
	Ticker     string             `json:"ticker"`
	RecordDate time.Time          `json:"record_date"`
	Prices     map[string]float64 `json:"prices"`
	Insights   []string           `json:"insights"`
	CreatedAt  time.Time          `json:"created_at"`
}

// Close returns the record's closing price, or 0 when the prices blob has no
// close field.
func (r StockRecord) Close() float64 {
	if v, ok := r.Prices["close"]; ok {
		return v
	}
	return r.Prices["Close"]
}

// DecodePrices parses a stored prices blob. The blob is required and must be
// an object mapping price-field names to numbers.
func DecodePrices(data []byte) (map[string]float64, error) {
	var prices map[string]float64
	if err := json.Unmarshal(data, &prices); err != nil {
		return nil, fmt.Errorf("malformed prices blob: %w", err)
	}
	if prices == nil {
		return nil, fmt.Errorf("prices blob is null")
	}
	return prices, nil
}

// DecodeInsights parses a stored insights blob. A missing or null blob is a
// valid absence of insights, not an error.
func DecodeInsights(data []byte) ([]string, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var insights []string
	if err := json.Unmarshal(data, &insights); err != nil {
		return nil, fmt.Errorf("malformed insights blob: %w", err)
	}
	return insights, nil
}
