package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mauv0809/stock-insights/internal/models"
)

// RecordStore is the write side of the record store needed by ingestion.
type RecordStore interface {
	UpsertRecords(ctx context.Context, records []models.StockRecord) (int, error)
	RecordCount(ctx context.Context) (int, error)
	TickerCount(ctx context.Context) (int, error)
	LatestRecordDate(ctx context.Context) (time.Time, error)
}

// DailyFetcher pulls daily price bars from the market data API.
type DailyFetcher interface {
	FetchDaily(ctx context.Context, tickers []string, since time.Time) ([]models.StockRecord, error)
}

// IngestHandler handles data ingestion endpoints.
type IngestHandler struct {
	fetcher DailyFetcher
	repo    RecordStore
}

// NewIngestHandler creates a new ingest handler. fetcher may be nil when no
// market data API key is configured; the daily endpoint then rejects
// requests.
func NewIngestHandler(fetcher DailyFetcher, repo RecordStore) *IngestHandler {
	return &IngestHandler{
		fetcher: fetcher,
		repo:    repo,
	}
}

// IngestResponse is the JSON response for ingestion endpoints.
type IngestResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
	Elapsed string `json:"elapsed,omitempty"`
}

// RecordPayload is one record in a direct-upsert request body.
type RecordPayload struct {
	Ticker     string             `json:"ticker"`
	RecordDate string             `json:"record_date"`
	Prices     map[string]float64 `json:"prices"`
	Insights   []string           `json:"insights"`
}

// IngestRecords handles POST /admin/ingest/records
// Upserts records supplied by an external worker. Records colliding on
// (ticker, record_date) replace the stored prices and insights.
func (h *IngestHandler) IngestRecords(c echo.Context) error {
	ctx := c.Request().Context()
	start := time.Now()

	if h.repo == nil {
		return c.JSON(http.StatusInternalServerError, IngestResponse{
			Success: false,
			Message: "No database connection",
		})
	}

	var payload []RecordPayload
	if err := c.Bind(&payload); err != nil {
		return c.JSON(http.StatusBadRequest, IngestResponse{
			Success: false,
			Message: fmt.Sprintf("Invalid request body: %v", err),
		})
	}

	if len(payload) == 0 {
		return c.JSON(http.StatusBadRequest, IngestResponse{
			Success: false,
			Message: "Request body must contain at least one record",
		})
	}

	records := make([]models.StockRecord, 0, len(payload))
	for i, p := range payload {
		ticker := strings.ToUpper(strings.TrimSpace(p.Ticker))
		if ticker == "" {
			return c.JSON(http.StatusBadRequest, IngestResponse{
				Success: false,
				Message: fmt.Sprintf("Record %d: ticker is required", i),
			})
		}

		day, err := time.Parse("2006-01-02", p.RecordDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, IngestResponse{
				Success: false,
				Message: fmt.Sprintf("Record %d: record_date must be YYYY-MM-DD", i),
			})
		}

		if len(p.Prices) == 0 {
			return c.JSON(http.StatusBadRequest, IngestResponse{
				Success: false,
				Message: fmt.Sprintf("Record %d: prices is required", i),
			})
		}

		records = append(records, models.StockRecord{
			Ticker:     ticker,
			RecordDate: day,
			Prices:     p.Prices,
			Insights:   p.Insights,
		})
	}

	count, err := h.repo.UpsertRecords(ctx, records)
	if err != nil {
		log.Printf("Error upserting records: %v", err)
		return c.JSON(http.StatusInternalServerError, IngestResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to upsert records: %v", err),
		})
	}

	elapsed := time.Since(start)
	log.Printf("Record ingestion complete: %d records in %v", count, elapsed)

	return c.JSON(http.StatusOK, IngestResponse{
		Success: true,
		Message: fmt.Sprintf("Successfully ingested %d records", count),
		Count:   count,
		Elapsed: elapsed.String(),
	})
}

// IngestDaily handles POST /admin/ingest/daily
// Fetches daily price bars and upserts them. Query params:
// - ticker: comma-separated tickers (required)
// - since: YYYY-MM-DD lower bound (optional, defaults to all history)
func (h *IngestHandler) IngestDaily(c echo.Context) error {
	ctx := c.Request().Context()
	start := time.Now()

	if h.fetcher == nil {
		return c.JSON(http.StatusServiceUnavailable, IngestResponse{
			Success: false,
			Message: "Ingest client not configured (NASDAQ_API_KEY missing)",
		})
	}
	if h.repo == nil {
		return c.JSON(http.StatusInternalServerError, IngestResponse{
			Success: false,
			Message: "No database connection",
		})
	}

	tickerParam := c.QueryParam("ticker")
	if tickerParam == "" {
		return c.JSON(http.StatusBadRequest, IngestResponse{
			Success: false,
			Message: "ticker parameter is required (e.g., ?ticker=SPY,AAPL)",
		})
	}
	tickers := strings.Split(tickerParam, ",")
	for i := range tickers {
		tickers[i] = strings.ToUpper(strings.TrimSpace(tickers[i]))
	}

	var since time.Time
	if sinceParam := c.QueryParam("since"); sinceParam != "" {
		var err error
		since, err = time.Parse("2006-01-02", sinceParam)
		if err != nil {
			return c.JSON(http.StatusBadRequest, IngestResponse{
				Success: false,
				Message: "since parameter must be YYYY-MM-DD",
			})
		}
	}

	log.Printf("Starting daily price ingestion (tickers: %v, since: %v)...", tickers, since)

	records, err := h.fetcher.FetchDaily(ctx, tickers, since)
	if err != nil {
		log.Printf("Error fetching daily prices: %v", err)
		return c.JSON(http.StatusInternalServerError, IngestResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to fetch daily prices: %v", err),
		})
	}

	log.Printf("Fetched %d daily price rows", len(records))

	count, err := h.repo.UpsertRecords(ctx, records)
	if err != nil {
		log.Printf("Error upserting daily prices: %v", err)
		return c.JSON(http.StatusInternalServerError, IngestResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to upsert daily prices: %v", err),
		})
	}

	elapsed := time.Since(start)
	log.Printf("Daily price ingestion complete: %d records in %v", count, elapsed)

	return c.JSON(http.StatusOK, IngestResponse{
		Success: true,
		Message: fmt.Sprintf("Successfully ingested %d daily prices", count),
		Count:   count,
		Elapsed: elapsed.String(),
	})
}

// IngestStatus handles GET /admin/ingest/status
// Returns record counts and the most recent record date.
func (h *IngestHandler) IngestStatus(c echo.Context) error {
	ctx := c.Request().Context()

	if h.repo == nil {
		return c.JSON(http.StatusInternalServerError, IngestResponse{
			Success: false,
			Message: "No database connection",
		})
	}

	recordCount, _ := h.repo.RecordCount(ctx)
	tickerCount, _ := h.repo.TickerCount(ctx)
	latest, _ := h.repo.LatestRecordDate(ctx)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"records":            recordCount,
		"tickers":            tickerCount,
		"latest_record_date": latest.Format("2006-01-02"),
	})
}
