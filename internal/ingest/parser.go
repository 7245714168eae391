package ingest

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// buildColumnIndex creates a map from column name to array index.
func buildColumnIndex(columns []Column) map[string]int {
	idx := make(map[string]int, len(columns))
	for i, col := range columns {
		idx[col.Name] = i
	}
	return idx
}

// getString safely extracts a string from row data.
func getString(row []interface{}, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) || row[i] == nil {
		return ""
	}
	if s, ok := row[i].(string); ok {
		return s
	}
	return fmt.Sprintf("%v", row[i])
}

// getDecimal safely extracts a decimal from row data.
func getDecimal(row []interface{}, idx map[string]int, col string) *decimal.Decimal {
	i, ok := idx[col]
	if !ok || i >= len(row) || row[i] == nil {
		return nil
	}
	switch v := row[i].(type) {
	case float64:
		d := decimal.NewFromFloat(v)
		return &d
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil
		}
		return &d
	}
	return nil
}

// getInt64 safely extracts an int64 from row data.
func getInt64(row []interface{}, idx map[string]int, col string) *int64 {
	i, ok := idx[col]
	if !ok || i >= len(row) || row[i] == nil {
		return nil
	}
	switch v := row[i].(type) {
	case float64:
		n := int64(v)
		return &n
	case int64:
		return &v
	case int:
		n := int64(v)
		return &n
	}
	return nil
}

// getTime safely extracts a time.Time from row data (expects YYYY-MM-DD format).
func getTime(row []interface{}, idx map[string]int, col string) *time.Time {
	i, ok := idx[col]
	if !ok || i >= len(row) || row[i] == nil {
		return nil
	}
	if s, ok := row[i].(string); ok && s != "" {
		formats := []string{
			"2006-01-02",
			"2006-01-02T15:04:05.000Z",
			"2006-01-02 15:04:05",
		}
		for _, format := range formats {
			if t, err := time.Parse(format, s); err == nil {
				return &t
			}
		}
	}
	return nil
}

// ParseDaily parses a SHARADAR/DAILY response into typed rows. Rows without
// a ticker or date are skipped rather than failing the whole batch.
func ParseDaily(resp *Response) ([]DailyRow, error) {
	idx := buildColumnIndex(resp.Datatable.Columns)
	rows := make([]DailyRow, 0, len(resp.Datatable.Data))

	for _, row := range resp.Datatable.Data {
		ticker := getString(row, idx, "ticker")
		date := getTime(row, idx, "date")
		if ticker == "" || date == nil {
			continue
		}

		rows = append(rows, DailyRow{
			Ticker: ticker,
			Date:   *date,
			Open:   getDecimal(row, idx, "open"),
			High:   getDecimal(row, idx, "high"),
			Low:    getDecimal(row, idx, "low"),
			Close:  getDecimal(row, idx, "close"),
			Volume: getInt64(row, idx, "volume"),
		})
	}

	return rows, nil
}
