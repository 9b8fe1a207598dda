package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/dyike/divcalendar/internal/cache"
	"github.com/dyike/divcalendar/internal/enrich"
	"github.com/dyike/divcalendar/internal/session"
	"github.com/dyike/divcalendar/internal/utils"
	"github.com/dyike/divcalendar/pkg/dataflows"
	"github.com/shopspring/decimal"
)

func TestParseYear(t *testing.T) {
	if y, err := parseYear(" 2024 "); err != nil || y != 2024 {
		t.Fatalf("parseYear(2024) = %d, %v", y, err)
	}
	for _, bad := range []string{"", "24x", "1800", "9999"} {
		if _, err := parseYear(bad); err == nil {
			t.Errorf("parseYear(%q) expected error", bad)
		}
	}
}

func TestMonthOptionsRoundTrip(t *testing.T) {
	options := monthOptions()
	if len(options) != 12 || options[10] != "11 - November" {
		t.Fatalf("unexpected options %v", options)
	}
	for i, opt := range options {
		m, err := parseMonthOption(opt)
		if err != nil || m != i+1 {
			t.Fatalf("parseMonthOption(%q) = %d, %v", opt, m, err)
		}
	}
	if _, err := parseMonthOption("13 - Undecimber"); err == nil {
		t.Fatalf("expected error for month 13")
	}
	if clampMonth(0) != 1 || clampMonth(14) != 12 {
		t.Fatalf("clampMonth out of range")
	}
}

func TestRenderSummary(t *testing.T) {
	row := dataflows.NewCalendarRow("2024-11-01", map[string]any{
		dataflows.FieldCompanyName: "Alpha Corp",
		dataflows.FieldSymbol:      "AAA",
	})
	summary := &session.Summary{
		RunID:        "run-1",
		Year:         2024,
		Month:        11,
		Provider:     "yahoo",
		Days:         30,
		EmptyDays:    8,
		FetchedRows:  12,
		SelectedRows: 10,
		Quotes:       cache.Stats{Size: 9, Failures: 1, Failed: []string{"BBB"}},
		Files:        utils.NewCSVManager("out").Files(2024, 11),
		TopByReturn: []enrich.EnrichedRow{
			{Row: row, Return: decimal.NewFromInt(10), CurrentPrice: decimal.NewFromInt(100)},
		},
		Duration: 1500 * time.Millisecond,
	}

	out := RenderSummary(summary)
	for _, want := range []string{"2024-11", "run-1", "BBB", "AAA", "10.00", "stock_data_sorted_return_2024_11.csv"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out.String(), version) {
		t.Fatalf("unexpected version output %q", out.String())
	}
}

func TestConfigValidateRejectsBadMonth(t *testing.T) {
	t.Setenv("DIVCAL_MONTH", "13")
	t.Setenv("RESULTS_DIR", t.TempDir())

	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"config", "validate"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected validation error for month 13")
	}
}
