package main

import (
	"context"
	"fmt"
	"log"

	"github.com/dyike/divcalendar/config"
	"github.com/dyike/divcalendar/internal/logger"
	"github.com/dyike/divcalendar/internal/session"
)

const (
	year  = 2024
	month = 11
)

func main() {
	cfg := config.DefaultConfig()
	cfg.Year, cfg.Month = year, month

	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("Failed to create directories: %v", err)
	}

	zl := logger.Must(cfg.Debug)
	defer zl.Sync()

	s, err := session.NewDividendSession(cfg, zl)
	if err != nil {
		log.Fatalf("Failed to start export: %v", err)
	}

	summary, err := s.Execute(context.Background())
	s.Close()
	if err != nil {
		log.Fatalf("Dividend export failed: %v", err)
	}

	fmt.Printf("\n=== DIVIDEND CALENDAR %d-%02d ===\n", summary.Year, summary.Month)
	fmt.Printf("Rows exported: %d of %d\n", summary.SelectedRows, summary.FetchedRows)
	fmt.Printf("Tickers: %d (%d lookups failed)\n", summary.Quotes.Size, summary.Quotes.Failures)
	for _, f := range summary.Files.All() {
		fmt.Printf("  %s\n", f)
	}
}
