// Command fetch pokes a running backend the way the dashboard does and
// prints the resulting view state. Useful for checking a deployment without
// a browser.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/mauv0809/stock-insights/internal/config"
	"github.com/mauv0809/stock-insights/internal/view"
)

func main() {
	ticker := flag.String("ticker", "AAPL", "ticker symbol to fetch")
	base := flag.String("api", "", "backend base URL (defaults to API_BASE_URL)")
	flag.Parse()

	cfg := config.Load()
	if *base == "" {
		*base = cfg.APIBaseURL
	}

	f := view.NewFetcher(*base)
	snap := f.Load(context.Background(), strings.ToUpper(*ticker))

	if snap.State == view.StateError {
		log.Printf("Fetch failed: %s", snap.Err)
		if snap.RawBody != "" {
			fmt.Println(snap.RawBody)
		}
		os.Exit(1)
	}

	if len(snap.Points) == 0 {
		fmt.Printf("No records for %s\n", snap.Ticker)
		return
	}

	fmt.Printf("Latest records for %s:\n", snap.Ticker)
	for _, p := range snap.Points {
		fmt.Printf("  %s  close=%.2f\n", p.Date, p.Close)
	}

	if len(snap.Insights) == 0 {
		fmt.Println("No insights available")
		return
	}
	fmt.Println("Insights:")
	for i, insight := range snap.Insights {
		fmt.Printf("  %d. %s\n", i+1, insight)
	}
}
