package dataflows

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestCalendarClient(t *testing.T, handler http.HandlerFunc, mutate func(*Config)) *CalendarClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &Config{
		NasdaqBaseURL:  server.URL,
		RequestTimeout: 5 * time.Second,
		DataDir:        t.TempDir(),
	}
	if mutate != nil {
		mutate(cfg)
	}
	return NewCalendarClient(cfg, zap.NewNop())
}

func dayBody(rows string) string {
	return fmt.Sprintf(`{"data":{"calendar":{"asOf":"Fri, Nov 1, 2024","rows":%s}},"status":{"rCode":200,"bCodeMessage":null}}`, rows)
}

func TestFetchMonthCallsEveryDayInOrder(t *testing.T) {
	var calls int32
	var mu sync.Mutex
	var dates []string

	client := newTestCalendarClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Path != calendarPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("User-Agent"); got != "Mozilla/5.0 (Windows NT 10.0)" {
			t.Errorf("unexpected user agent %q", got)
		}
		if got := r.Header.Get("Origin"); got != "https://www.nasdaq.com/" {
			t.Errorf("unexpected origin %q", got)
		}
		date := r.URL.Query().Get("date")
		mu.Lock()
		dates = append(dates, date)
		mu.Unlock()

		switch date {
		case "2024-02-01":
			fmt.Fprint(w, dayBody(`[{"companyName":"First Co","symbol":"FST","dividend_Ex_Date":"02/01/2024","payment_Date":"02/15/2024","dividend_Rate":0.5,"indicated_Annual_Dividend":2.0}]`))
		case "2024-02-29":
			fmt.Fprint(w, dayBody(`[{"companyName":"Leap Co","symbol":"lep","dividend_Ex_Date":"02/29/2024","payment_Date":"03/10/2024","dividend_Rate":"0.10","indicated_Annual_Dividend":"0.40","record_Date":"03/01/2024"},{"companyName":"Second Leap","symbol":"SLP","dividend_Ex_Date":"02/29/2024","payment_Date":null,"dividend_Rate":1,"indicated_Annual_Dividend":4}]`))
		case "2024-02-10":
			fmt.Fprint(w, `{"data":null,"status":{"rCode":400,"bCodeMessage":[{"code":1001,"errorMessage":"No data found"}]}}`)
		default:
			fmt.Fprint(w, dayBody(`[]`))
		}
	}, nil)

	table, err := client.FetchMonth(context.Background(), 2024, 2)
	if err != nil {
		t.Fatalf("FetchMonth: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if atomic.LoadInt32(&calls) != 29 {
		t.Fatalf("expected 29 requests, got %d", calls)
	}
	if len(table.Days) != 29 {
		t.Fatalf("expected 29 day results, got %d", len(table.Days))
	}
	for i, date := range dates {
		if want := FormatDate(2024, 2, i+1); date != want {
			t.Fatalf("request %d used date %s, want %s", i, date, want)
		}
	}

	if len(table.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(table.Rows))
	}
	if table.Rows[0].Symbol != "FST" || table.Rows[1].Symbol != "lep" || table.Rows[2].Symbol != "SLP" {
		t.Fatalf("rows out of day order: %s %s %s", table.Rows[0].Symbol, table.Rows[1].Symbol, table.Rows[2].Symbol)
	}
	if table.Rows[1].Fields["record_Date"] != "03/01/2024" {
		t.Fatalf("expected pass-through column to be kept, got %v", table.Rows[1].Fields)
	}
	if !table.Rows[0].Complete() || !table.Rows[1].Complete() {
		t.Fatalf("expected first two rows to be complete")
	}
	if table.Rows[2].Complete() {
		t.Fatalf("row with null payment date must be incomplete")
	}
	if got := table.Rows[1].DividendRate.String(); got != "0.1" {
		t.Fatalf("expected dividend rate 0.1, got %s", got)
	}

	empty := table.EmptyDays()
	if len(empty) != 27 {
		t.Fatalf("expected 27 empty days, got %d", len(empty))
	}
	if table.Days[9].Message != "No data found" {
		t.Fatalf("expected status message for 2024-02-10, got %q", table.Days[9].Message)
	}
}

func TestFetchMonthMalformedJSONIsFatal(t *testing.T) {
	var calls int32
	client := newTestCalendarClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Query().Get("date") == "2024-11-03" {
			fmt.Fprint(w, `{"data":{"calendar":{"rows":[{"symbol":"AAA",}]}}`)
			return
		}
		fmt.Fprint(w, dayBody(`[]`))
	}, nil)

	_, err := client.FetchMonth(context.Background(), 2024, 11)
	if err == nil {
		t.Fatalf("expected error")
	}

	var dayErr *DayError
	if !errors.As(err, &dayErr) {
		t.Fatalf("expected *DayError, got %T", err)
	}
	if dayErr.Date != "2024-11-03" || dayErr.Day != 3 {
		t.Fatalf("unexpected failing day %s (%d)", dayErr.Date, dayErr.Day)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("expected fetching to stop at day 3, got %d calls", calls)
	}
}

func TestFetchDayLenientRepairsJSON(t *testing.T) {
	client := newTestCalendarClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"calendar":{"rows":[{"companyName":"Repair Co","symbol":"RPR","dividend_Ex_Date":"11/01/2024","payment_Date":"11/20/2024","dividend_Rate":0.3,"indicated_Annual_Dividend":1.2,}]}}}`)
	}, func(cfg *Config) {
		cfg.LenientJSON = true
	})

	rows, result, err := client.FetchDay(context.Background(), "2024-11-01")
	if err != nil {
		t.Fatalf("FetchDay: %v", err)
	}
	if len(rows) != 1 || rows[0].Symbol != "RPR" {
		t.Fatalf("unexpected rows %+v", rows)
	}
	if result.Empty || result.Rows != 1 {
		t.Fatalf("unexpected day result %+v", result)
	}
}

func TestFetchDayHTMLPage(t *testing.T) {
	client := newTestCalendarClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head><title>Access Denied</title></head><body>blocked</body></html>`)
	}, func(cfg *Config) {
		cfg.LenientJSON = true
	})

	_, _, err := client.FetchDay(context.Background(), "2024-11-01")
	if !errors.Is(err, ErrHTMLResponse) {
		t.Fatalf("expected ErrHTMLResponse, got %v", err)
	}
}

func TestFetchDayHTTPError(t *testing.T) {
	client := newTestCalendarClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}, nil)

	if _, _, err := client.FetchDay(context.Background(), "2024-11-01"); err == nil {
		t.Fatalf("expected error for 403 response")
	}
}

func TestFetchDayMissingPathIsEmpty(t *testing.T) {
	client := newTestCalendarClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"calendar":null}}`)
	}, nil)

	rows, result, err := client.FetchDay(context.Background(), "2024-11-02")
	if err != nil {
		t.Fatalf("FetchDay: %v", err)
	}
	if len(rows) != 0 || !result.Empty {
		t.Fatalf("expected empty day, got %d rows %+v", len(rows), result)
	}
}

func TestFetchDaySavesRawResponse(t *testing.T) {
	var dataDir string
	client := newTestCalendarClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, dayBody(`[]`))
	}, func(cfg *Config) {
		cfg.SaveRawResponses = true
		dataDir = cfg.DataDir
	})

	if _, _, err := client.FetchDay(context.Background(), "2024-11-04"); err != nil {
		t.Fatalf("FetchDay: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dataDir, "nasdaq", "raw", "2024-11-04.json")); err != nil {
		t.Fatalf("raw response not saved: %v", err)
	}
}

func TestFetchMonthCancelled(t *testing.T) {
	client := newTestCalendarClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, dayBody(`[]`))
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchMonth(ctx, 2024, 11)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFetchMonthWithoutLogger(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, dayBody(`[]`))
	}))
	t.Cleanup(server.Close)

	client := NewCalendarClient(&Config{NasdaqBaseURL: server.URL, RequestTimeout: 5 * time.Second}, nil)
	table, err := client.FetchMonth(context.Background(), 2024, 4)
	if err != nil {
		t.Fatalf("FetchMonth: %v", err)
	}
	if len(table.Days) != 30 {
		t.Fatalf("expected 30 day results, got %d", len(table.Days))
	}
}
