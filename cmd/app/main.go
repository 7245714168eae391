package main

import (
	"context"
	"log"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mauv0809/stock-insights/internal/config"
	"github.com/mauv0809/stock-insights/internal/db"
	"github.com/mauv0809/stock-insights/internal/handlers"
	"github.com/mauv0809/stock-insights/internal/ingest"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	// Provision the schema with bounded retry; a store that is still coming
	// up at boot is not fatal, requests fail until it recovers.
	if err := db.EnsureSchema(ctx, cfg.DatabaseURL, db.DefaultBackoff()); err != nil {
		log.Printf("Warning: Could not provision schema: %v", err)
	} else {
		log.Println("Table 'stock_records' is ready")
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Printf("Warning: Could not connect to database: %v", err)
		log.Println("Continuing without database connection...")
	} else {
		defer pool.Close()
		log.Println("Connected to database")
	}

	// Setup Echo
	e := echo.New()
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error == nil {
				log.Printf("%d %s", v.Status, v.URI)
			} else {
				log.Printf("%d %s - %v", v.Status, v.URI, v.Error)
			}
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	h := handlers.New()

	var store handlers.StockStore
	var recordStore handlers.RecordStore
	if pool != nil {
		repo := db.NewRepository(pool)
		store = repo
		recordStore = repo
	}

	var fetcher handlers.DailyFetcher
	if cfg.NasdaqAPIKey != "" {
		fetcher = ingest.NewClient(cfg.NasdaqAPIKey)
		log.Println("Ingest client initialized")
	} else {
		log.Println("Warning: NASDAQ_API_KEY not set, daily ingestion disabled")
	}

	stocks := handlers.NewStockHandler(store)
	ingestHandler := handlers.NewIngestHandler(fetcher, recordStore)

	// Static files
	e.Static("/assets", "assets")

	// Routes
	e.GET("/health", h.Health)
	e.GET("/", h.Index)
	e.GET("/api/stocks", stocks.GetStocks)

	// Admin routes for data ingestion
	admin := e.Group("/admin")
	admin.GET("/ingest/status", ingestHandler.IngestStatus)
	admin.POST("/ingest/records", ingestHandler.IngestRecords)
	admin.POST("/ingest/daily", ingestHandler.IngestDaily)

	log.Printf("Starting server on :%s", cfg.Port)
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
