package ingest

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mauv0809/stock-insights/internal/models"
)

// Response is the raw API response from Nasdaq Data Link Tables API.
// The data is column-oriented: columns define the schema, data contains rows as arrays.
type Response struct {
	Datatable struct {
		Data    [][]interface{} `json:"data"`
		Columns []Column        `json:"columns"`
	} `json:"datatable"`
	Meta struct {
		NextCursorID *string `json:"next_cursor_id"`
	} `json:"meta"`
}

// Column describes a column in the response.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// DailyRow represents a row from SHARADAR/DAILY (daily price bars).
type DailyRow struct {
	Ticker string
	Date   time.Time
	Open   *decimal.Decimal
	High   *decimal.Decimal
	Low    *decimal.Decimal
	Close  *decimal.Decimal
	Volume *int64
}

// Record converts a daily bar into a stock record with a numeric prices
// blob. Insights are never produced here; they belong to the worker.
func (r DailyRow) Record() models.StockRecord {
	prices := make(map[string]float64)
	setPrice(prices, "open", r.Open)
	setPrice(prices, "high", r.High)
	setPrice(prices, "low", r.Low)
	setPrice(prices, "close", r.Close)
	if r.Volume != nil {
		prices["volume"] = float64(*r.Volume)
	}

	return models.StockRecord{
		Ticker:     r.Ticker,
		RecordDate: r.Date,
		Prices:     prices,
	}
}

func setPrice(prices map[string]float64, key string, d *decimal.Decimal) {
	if d == nil {
		return
	}
	prices[key] = d.InexactFloat64()
}
