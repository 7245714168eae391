package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mauv0809/stock-insights/internal/models"
)

// StockStore is the read side of the record store needed by the stocks API.
type StockStore interface {
	GetLatestRecords(ctx context.Context, ticker string) ([]models.StockRecord, error)
}

// StockHandler serves the stock records API.
type StockHandler struct {
	store StockStore
}

// NewStockHandler creates a stock handler. A nil store means the database
// was unavailable at startup; requests then fail with a store error until an
// operator intervenes.
func NewStockHandler(store StockStore) *StockHandler {
	return &StockHandler{store: store}
}

// ErrorResponse is the JSON body for failed API requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// GetStocks handles GET /api/stocks
// @Summary Latest stock records
// @Description Returns up to 10 records for a ticker, newest first
// @Tags stocks
// @Produce json
// @Param ticker query string true "Ticker symbol (case-insensitive)"
// @Success 200 {array} models.StockRecord
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/stocks [get]
func (h *StockHandler) GetStocks(c echo.Context) error {
	ticker := strings.ToUpper(strings.TrimSpace(c.QueryParam("ticker")))
	if ticker == "" {
		log.Println("Missing ticker query parameter")
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Ticker query parameter required"})
	}

	if h.store == nil {
		log.Printf("Fetch for %s rejected: no database connection", ticker)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch stock records"})
	}

	records, err := h.store.GetLatestRecords(c.Request().Context(), ticker)
	if err != nil {
		log.Printf("DB fetch error for %s: %v", ticker, err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch stock records"})
	}

	// An unknown ticker is an empty array, never null and never an error.
	if records == nil {
		records = []models.StockRecord{}
	}

	log.Printf("Found %d records for %s", len(records), ticker)
	return c.JSON(http.StatusOK, records)
}
