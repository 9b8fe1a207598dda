package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"time"

	"github.com/dyike/divcalendar/config"
	"github.com/dyike/divcalendar/internal/logger"
	"github.com/dyike/divcalendar/pkg/dataflows"
)

// Fetches a single calendar day and one quote, printing both as JSON.
func main() {
	date := flag.String("date", time.Now().Format("2006-01-02"), "calendar date, YYYY-MM-DD")
	symbol := flag.String("symbol", "", "ticker to quote; defaults to the first row of the day")
	flag.Parse()

	ctx := context.Background()
	cfg := config.DefaultConfig()
	zl := logger.Must(true)

	calendar := dataflows.NewCalendarClient(cfg, zl)
	rows, day, err := calendar.FetchDay(ctx, *date)
	if err != nil {
		panic(err)
	}

	payload, _ := json.MarshalIndent(day, "", "  ")
	fmt.Println(string(payload))
	for _, row := range rows {
		payload, _ := json.Marshal(row.Fields)
		fmt.Println(string(payload))
	}

	if *symbol == "" && len(rows) > 0 {
		*symbol = rows[0].Symbol
	}
	if *symbol == "" {
		return
	}

	provider, err := dataflows.NewQuoteProvider(cfg, zl)
	if err != nil {
		panic(err)
	}
	info, err := provider.GetQuoteInfo(ctx, *symbol)
	if err != nil {
		panic(err)
	}

	payload, _ = json.Marshal(info)
	fmt.Println(string(payload))
}
