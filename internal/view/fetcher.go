package view

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mauv0809/stock-insights/internal/models"
)

// State is the view's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	}
	return "unknown"
}

const requestTimeout = 15 * time.Second

// Snapshot is an immutable copy of the view state. RawBody keeps the
// response text exactly as received so failures stay diagnosable.
type Snapshot struct {
	State    State
	Ticker   string
	Records  []models.StockRecord
	Points   []ChartPoint
	Insights []string
	Err      string
	RawBody  string
}

// Fetcher drives the stocks API and tracks loading state. Only the most
// recently issued request may update the snapshot; a slow earlier request
// finishing late is discarded.
type Fetcher struct {
	client *resty.Client

	mu      sync.Mutex
	seq     uint64
	current Snapshot
}

// NewFetcher creates a fetcher for the backend at baseURL.
func NewFetcher(baseURL string) *Fetcher {
	return &Fetcher{
		client:  resty.New().SetBaseURL(baseURL).SetTimeout(requestTimeout),
		current: Snapshot{State: StateIdle},
	}
}

// Load fetches the latest records for ticker and applies the outcome to the
// snapshot, unless a newer request was issued while this one was in flight.
// It returns the snapshot as of this request's completion.
func (f *Fetcher) Load(ctx context.Context, ticker string) Snapshot {
	f.mu.Lock()
	f.seq++
	id := f.seq
	f.current = Snapshot{State: StateLoading, Ticker: ticker}
	f.mu.Unlock()

	result := f.fetch(ctx, ticker)

	f.mu.Lock()
	defer f.mu.Unlock()
	if id == f.seq {
		f.current = result
	}
	return f.current
}

// Snapshot returns the current view state.
func (f *Fetcher) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *Fetcher) fetch(ctx context.Context, ticker string) Snapshot {
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParam("ticker", ticker).
		Get("/api/stocks")
	if err != nil {
		return Snapshot{
			State:  StateError,
			Ticker: ticker,
			Err:    fmt.Sprintf("backend fetch failed: %v", err),
		}
	}

	raw := resp.String()
	if resp.IsError() {
		return Snapshot{
			State:   StateError,
			Ticker:  ticker,
			Err:     fmt.Sprintf("HTTP error! status: %d", resp.StatusCode()),
			RawBody: raw,
		}
	}

	var records []models.StockRecord
	if err := json.Unmarshal(resp.Body(), &records); err != nil {
		return Snapshot{
			State:   StateError,
			Ticker:  ticker,
			Err:     fmt.Sprintf("unexpected response shape: %v", err),
			RawBody: raw,
		}
	}

	return Snapshot{
		State:    StateSuccess,
		Ticker:   ticker,
		Records:  records,
		Points:   ChartPoints(records),
		Insights: LatestInsights(records),
		RawBody:  raw,
	}
}
