package view

import "github.com/mauv0809/stock-insights/internal/models"

// ChartPoint is one bar in the price chart.
type ChartPoint struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// ChartPoints derives chart bars from records, preserving record order
// (newest first). A record with no close value contributes a zero-height
// bar.
func ChartPoints(records []models.StockRecord) []ChartPoint {
	points := make([]ChartPoint, 0, len(records))
	for _, rec := range records {
		points = append(points, ChartPoint{
			Date:  rec.RecordDate.Format("2006-01-02"),
			Close: rec.Close(),
		})
	}
	return points
}

// LatestInsights returns the insights of the most recent record, or nil
// when there are no records or the newest record carries none.
func LatestInsights(records []models.StockRecord) []string {
	if len(records) == 0 {
		return nil
	}
	return records[0].Insights
}
