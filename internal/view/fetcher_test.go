package view

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func recordJSON(ticker, date string, close float64) string {
	return fmt.Sprintf(`{"id":1,"ticker":%q,"record_date":"%sT00:00:00Z","prices":{"close":%g},"insights":null,"created_at":"%sT12:00:00Z"}`,
		ticker, date, close, date)
}

func stocksServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestFetcherStartsIdle(t *testing.T) {
	f := NewFetcher("http://localhost:0")
	if snap := f.Snapshot(); snap.State != StateIdle {
		t.Errorf("initial state = %v, want idle", snap.State)
	}
}

func TestLoadSuccess(t *testing.T) {
	server := stocksServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("ticker"); got != "AAPL" {
			t.Errorf("ticker = %q, want AAPL", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, "[%s,%s,%s]",
			recordJSON("AAPL", "2024-01-03", 101),
			recordJSON("AAPL", "2024-01-02", 102),
			recordJSON("AAPL", "2024-01-01", 103),
		)
	})

	f := NewFetcher(server.URL)
	snap := f.Load(context.Background(), "AAPL")

	if snap.State != StateSuccess {
		t.Fatalf("state = %v, want success (err: %s)", snap.State, snap.Err)
	}

	wantDates := []string{"2024-01-03", "2024-01-02", "2024-01-01"}
	wantCloses := []float64{101, 102, 103}
	if len(snap.Points) != 3 {
		t.Fatalf("len(points) = %d, want 3", len(snap.Points))
	}
	for i := range wantDates {
		if snap.Points[i].Date != wantDates[i] || snap.Points[i].Close != wantCloses[i] {
			t.Errorf("points[%d] = %+v, want {%s %g}", i, snap.Points[i], wantDates[i], wantCloses[i])
		}
	}
}

func TestLoadEmptyResultIsSuccess(t *testing.T) {
	server := stocksServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, "[]")
	})

	f := NewFetcher(server.URL)
	snap := f.Load(context.Background(), "ZZZZ")

	if snap.State != StateSuccess {
		t.Fatalf("state = %v, want success", snap.State)
	}
	if len(snap.Records) != 0 || len(snap.Points) != 0 || snap.Insights != nil {
		t.Errorf("snapshot not empty: %+v", snap)
	}
}

func TestLoadServerErrorKeepsRawBody(t *testing.T) {
	const errBody = `{"error":"Failed to fetch stock records"}`
	server := stocksServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, errBody)
	})

	f := NewFetcher(server.URL)
	snap := f.Load(context.Background(), "AAPL")

	if snap.State != StateError {
		t.Fatalf("state = %v, want error", snap.State)
	}
	if snap.Err != "HTTP error! status: 500" {
		t.Errorf("err = %q", snap.Err)
	}
	if snap.RawBody != errBody {
		t.Errorf("raw body = %q, want %q", snap.RawBody, errBody)
	}
}

func TestLoadParseFailureKeepsRawBody(t *testing.T) {
	const body = "<html>totally not json</html>"
	server := stocksServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	})

	f := NewFetcher(server.URL)
	snap := f.Load(context.Background(), "AAPL")

	if snap.State != StateError {
		t.Fatalf("state = %v, want error", snap.State)
	}
	if snap.RawBody != body {
		t.Errorf("raw body = %q", snap.RawBody)
	}
}

func TestLoadNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	f := NewFetcher(server.URL)
	snap := f.Load(context.Background(), "AAPL")

	if snap.State != StateError {
		t.Fatalf("state = %v, want error", snap.State)
	}
	if snap.RawBody != "" {
		t.Errorf("raw body = %q, want empty", snap.RawBody)
	}
}

// A slow request issued first must not overwrite the result of a faster
// request issued later.
func TestLoadLastRequestWins(t *testing.T) {
	release := make(chan struct{})
	server := stocksServer(t, func(w http.ResponseWriter, r *http.Request) {
		ticker := r.URL.Query().Get("ticker")
		if ticker == "SLOW" {
			<-release
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, "[%s]", recordJSON(ticker, "2024-01-03", 1))
	})

	f := NewFetcher(server.URL)

	done := make(chan Snapshot, 1)
	go func() {
		done <- f.Load(context.Background(), "SLOW")
	}()

	deadline := time.Now().Add(2 * time.Second)
	for {
		snap := f.Snapshot()
		if snap.State == StateLoading && snap.Ticker == "SLOW" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for slow request to start")
		}
		time.Sleep(time.Millisecond)
	}

	fast := f.Load(context.Background(), "FAST")
	if fast.State != StateSuccess || fast.Ticker != "FAST" {
		t.Fatalf("fast snapshot = %+v", fast)
	}

	close(release)
	<-done

	snap := f.Snapshot()
	if snap.Ticker != "FAST" || snap.State != StateSuccess {
		t.Errorf("stale slow response overwrote newer result: %+v", snap)
	}
}

func TestLoadIsReentrant(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	server := stocksServer(t, func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error":"Failed to fetch stock records"}`)
			return
		}
		fmt.Fprintf(w, "[%s]", recordJSON("AAPL", "2024-01-03", 101))
	})

	f := NewFetcher(server.URL)
	if snap := f.Load(context.Background(), "AAPL"); snap.State != StateError {
		t.Fatalf("state = %v, want error", snap.State)
	}

	fail.Store(false)
	if snap := f.Load(context.Background(), "AAPL"); snap.State != StateSuccess {
		t.Errorf("state after retry = %v, want success", snap.State)
	}
}
