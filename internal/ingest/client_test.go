package ingest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchDaily(t *testing.T) {
	var gotPath, gotTicker, gotSince, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotTicker = r.URL.Query().Get("ticker")
		gotSince = r.URL.Query().Get("date.gte")
		gotKey = r.URL.Query().Get("api_key")

		json.NewEncoder(w).Encode(map[string]interface{}{
			"datatable": map[string]interface{}{
				"columns": []map[string]string{
					{"name": "ticker"}, {"name": "date"}, {"name": "close"},
				},
				"data": [][]interface{}{
					{"AAPL", "2024-01-03", 101.0},
				},
			},
			"meta": map[string]interface{}{"next_cursor_id": nil},
		})
	}))
	defer server.Close()

	c := NewClient("test-key")
	c.baseURL = server.URL

	records, err := c.FetchDaily(context.Background(), []string{"AAPL"}, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("FetchDaily returned error: %v", err)
	}

	if gotPath != "/SHARADAR/DAILY.json" {
		t.Errorf("path = %q", gotPath)
	}
	if gotTicker != "AAPL" || gotSince != "2024-01-01" || gotKey != "test-key" {
		t.Errorf("query = ticker:%q since:%q key:%q", gotTicker, gotSince, gotKey)
	}

	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}
	if records[0].Ticker != "AAPL" || records[0].Prices["close"] != 101 {
		t.Errorf("record = %+v", records[0])
	}
}

func TestFetchDailyPaginates(t *testing.T) {
	pages := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		var cursor interface{}
		data := [][]interface{}{{"AAPL", "2024-01-03", 101.0}}
		if pages == 1 {
			cursor = "next-page"
			if got := r.URL.Query().Get("qopts.cursor_id"); got != "" {
				t.Errorf("first page sent cursor %q", got)
			}
		} else {
			data = [][]interface{}{{"AAPL", "2024-01-02", 102.0}}
			if got := r.URL.Query().Get("qopts.cursor_id"); got != "next-page" {
				t.Errorf("second page cursor = %q", got)
			}
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"datatable": map[string]interface{}{
				"columns": []map[string]string{
					{"name": "ticker"}, {"name": "date"}, {"name": "close"},
				},
				"data": data,
			},
			"meta": map[string]interface{}{"next_cursor_id": cursor},
		})
	}))
	defer server.Close()

	c := NewClient("test-key")
	c.baseURL = server.URL

	records, err := c.FetchDaily(context.Background(), []string{"AAPL"}, time.Time{})
	if err != nil {
		t.Fatalf("FetchDaily returned error: %v", err)
	}
	if pages != 2 {
		t.Errorf("pages fetched = %d, want 2", pages)
	}
	if len(records) != 2 {
		t.Errorf("len(records) = %d, want 2", len(records))
	}
}

func TestFetchDailyRequiresTicker(t *testing.T) {
	c := NewClient("test-key")
	if _, err := c.FetchDaily(context.Background(), nil, time.Time{}); err == nil {
		t.Error("expected error for empty ticker list")
	}
}
