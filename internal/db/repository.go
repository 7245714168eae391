package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mauv0809/stock-insights/internal/models"
)

// latestRecordLimit caps how many records a ticker lookup returns.
const latestRecordLimit = 10

// Repository handles database operations for stock records.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new repository over the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetLatestRecords returns up to 10 records for a ticker, newest first.
// The ticker is uppercased before lookup, so matching is case-insensitive.
// No matching rows is a successful empty result, not an error.
func (r *Repository) GetLatestRecords(ctx context.Context, ticker string) ([]models.StockRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, ticker, record_date, prices, insights, created_at
		FROM stock_records
		WHERE ticker = $1
		ORDER BY record_date DESC
		LIMIT $2
	`, strings.ToUpper(ticker), latestRecordLimit)
	if err != nil {
		return nil, fmt.Errorf("querying stock records: %w", err)
	}
	defer rows.Close()

	var records []models.StockRecord
	for rows.Next() {
		var (
			rec      models.StockRecord
			prices   []byte
			insights []byte
		)
		if err := rows.Scan(&rec.ID, &rec.Ticker, &rec.RecordDate, &prices, &insights, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning stock record: %w", err)
		}

		day := rec.RecordDate.Format("2006-01-02")
		if rec.Prices, err = models.DecodePrices(prices); err != nil {
			return nil, fmt.Errorf("record %s/%s: %w", rec.Ticker, day, err)
		}
		if rec.Insights, err = models.DecodeInsights(insights); err != nil {
			return nil, fmt.Errorf("record %s/%s: %w", rec.Ticker, day, err)
		}

		records = append(records, rec)
	}

	return records, rows.Err()
}

// UpsertRecords inserts or updates stock records. A record colliding on
// (ticker, record_date) replaces the stored prices and insights rather than
// creating a duplicate row. Tickers are uppercased so the uniqueness
// constraint cannot be dodged by case. Returns the number of rows written.
func (r *Repository) UpsertRecords(ctx context.Context, records []models.StockRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, rec := range records {
		prices, err := json.Marshal(rec.Prices)
		if err != nil {
			return 0, fmt.Errorf("encoding prices for %s: %w", rec.Ticker, err)
		}

		var insights any
		if rec.Insights != nil {
			encoded, err := json.Marshal(rec.Insights)
			if err != nil {
				return 0, fmt.Errorf("encoding insights for %s: %w", rec.Ticker, err)
			}
			insights = encoded
		}

		batch.Queue(`
			INSERT INTO stock_records (ticker, record_date, prices, insights)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (ticker, record_date) DO UPDATE SET
				prices = EXCLUDED.prices,
				insights = EXCLUDED.insights
		`, strings.ToUpper(rec.Ticker), rec.RecordDate, prices, insights)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	count := 0
	for range records {
		if _, err := br.Exec(); err != nil {
			return count, fmt.Errorf("upserting stock record: %w", err)
		}
		count++
	}

	return count, nil
}

// RecordCount returns the number of stock records in the database.
func (r *Repository) RecordCount(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM stock_records").Scan(&count)
	return count, err
}

// TickerCount returns the number of distinct tickers in the database.
func (r *Repository) TickerCount(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(DISTINCT ticker) FROM stock_records").Scan(&count)
	return count, err
}

// LatestRecordDate returns the most recent record_date across all tickers.
func (r *Repository) LatestRecordDate(ctx context.Context) (time.Time, error) {
	var latest time.Time
	err := r.pool.QueryRow(ctx, "SELECT COALESCE(MAX(record_date), '1970-01-01'::date) FROM stock_records").Scan(&latest)
	if err != nil {
		return time.Time{}, fmt.Errorf("querying latest record date: %w", err)
	}
	return latest, nil
}
