package dataflows

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		year, month, want int
	}{
		{2024, 1, 31},
		{2024, 2, 29},
		{2023, 2, 28},
		{1900, 2, 28},
		{2000, 2, 29},
		{2024, 4, 30},
		{2024, 11, 30},
		{2024, 12, 31},
	}
	for _, tt := range tests {
		if got := DaysInMonth(tt.year, tt.month); got != tt.want {
			t.Errorf("DaysInMonth(%d, %d) = %d, want %d", tt.year, tt.month, got, tt.want)
		}
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate(2024, 11, 5); got != "2024-11-05" {
		t.Fatalf("FormatDate = %s", got)
	}
}

func TestValidateSymbol(t *testing.T) {
	if err := ValidateSymbol("  "); err != ErrEmptySymbol {
		t.Fatalf("expected ErrEmptySymbol, got %v", err)
	}
	if err := ValidateSymbol("brk.b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := NormalizeSymbol(" brk.b "); got != "BRK.B" {
		t.Fatalf("NormalizeSymbol = %s", got)
	}
}

func TestDecimalValue(t *testing.T) {
	tests := []struct {
		in     any
		want   string
		wantOK bool
	}{
		{json.Number("0.25"), "0.25", true},
		{1.5, "1.5", true},
		{"$1,200.50", "1200.5", true},
		{"", "0", false},
		{"N/A", "0", false},
		{nil, "0", false},
		{true, "0", false},
	}
	for _, tt := range tests {
		got, ok := decimalValue(tt.in)
		if ok != tt.wantOK {
			t.Errorf("decimalValue(%v) ok = %v, want %v", tt.in, ok, tt.wantOK)
			continue
		}
		if ok && got.String() != tt.want {
			t.Errorf("decimalValue(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestSaveRawJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw", "2024-11-01.json")
	if err := SaveRawJSON([]byte(`{"data":{"calendar":{"rows":[]}}}`), path); err != nil {
		t.Fatalf("SaveRawJSON: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "\n") {
		t.Fatalf("expected pretty printed output, got %s", data)
	}
}
