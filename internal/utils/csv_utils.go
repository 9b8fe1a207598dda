package utils

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dyike/divcalendar/internal/enrich"
	"github.com/dyike/divcalendar/pkg/dataflows"
	"github.com/shopspring/decimal"
)

// Column headers, matching the upstream field names.
var (
	calendarHeaders = []string{
		"",
		dataflows.FieldCompanyName,
		dataflows.FieldSymbol,
		dataflows.FieldExDividendDate,
		dataflows.FieldPaymentDate,
		dataflows.FieldDividendRate,
		dataflows.FieldIndicatedAnnualDividend,
	}
	enrichedHeaders = append(append([]string{}, calendarHeaders...),
		"curr_price", "return", "recommendation", "etf")
)

// ExportFiles are the paths of the files written for one month.
type ExportFiles struct {
	Calendar        string `json:"calendar"`
	Enriched        string `json:"enriched"`
	SortedDivRate   string `json:"sorted_div_rate"`
	SortedCurrPrice string `json:"sorted_curr_price"`
	SortedReturn    string `json:"sorted_return"`
}

// All lists the paths in the order they are written.
func (f ExportFiles) All() []string {
	return []string{f.Calendar, f.Enriched, f.SortedDivRate, f.SortedCurrPrice, f.SortedReturn}
}

type CSVManager struct {
	basePath string
}

func NewCSVManager(basePath string) *CSVManager {
	return &CSVManager{
		basePath: basePath,
	}
}

// Files returns the export paths for a month. The month is not zero padded.
func (c *CSVManager) Files(year, month int) ExportFiles {
	name := func(prefix string) string {
		return filepath.Join(c.basePath, fmt.Sprintf("%s_%d_%d.csv", prefix, year, month))
	}
	return ExportFiles{
		Calendar:        name("stock_dividend_calendar"),
		Enriched:        name("stock_data"),
		SortedDivRate:   name("stock_data_sorted_div_rate"),
		SortedCurrPrice: name("stock_data_sorted_curr_price"),
		SortedReturn:    name("stock_data_sorted_return"),
	}
}

// WriteCalendarCSV writes the selected calendar rows with a positional index column.
func (c *CSVManager) WriteCalendarCSV(filePath string, rows []dataflows.CalendarRow) error {
	return writeCSV(filePath, calendarHeaders, len(rows), func(i int) []string {
		return calendarRecord(i, rows[i])
	})
}

// WriteEnrichedCSV writes enriched rows; the index column is each row's original position.
func (c *CSVManager) WriteEnrichedCSV(filePath string, rows []enrich.EnrichedRow) error {
	return writeCSV(filePath, enrichedHeaders, len(rows), func(i int) []string {
		r := rows[i]
		return append(calendarRecord(r.Index, r.Row),
			formatDecimal(r.CurrentPrice),
			formatDecimal(r.Return),
			r.Recommendation,
			r.ETF,
		)
	})
}

// WriteMonth writes the raw calendar, the enriched table and its three sorted views.
func (c *CSVManager) WriteMonth(year, month int, selected []dataflows.CalendarRow, enriched []enrich.EnrichedRow) (ExportFiles, error) {
	files := c.Files(year, month)

	if err := c.WriteCalendarCSV(files.Calendar, selected); err != nil {
		return files, err
	}
	if err := c.WriteEnrichedCSV(files.Enriched, enriched); err != nil {
		return files, err
	}
	if err := c.WriteEnrichedCSV(files.SortedDivRate, enrich.SortByDividendRate(enriched)); err != nil {
		return files, err
	}
	if err := c.WriteEnrichedCSV(files.SortedCurrPrice, enrich.SortByCurrentPrice(enriched)); err != nil {
		return files, err
	}
	if err := c.WriteEnrichedCSV(files.SortedReturn, enrich.SortByReturn(enriched)); err != nil {
		return files, err
	}
	return files, nil
}

func calendarRecord(index int, row dataflows.CalendarRow) []string {
	return []string{
		strconv.Itoa(index),
		row.CompanyName,
		row.Symbol,
		row.ExDividendDate,
		row.PaymentDate,
		formatDecimal(row.DividendRate),
		formatDecimal(row.IndicatedAnnualDividend),
	}
}

// formatDecimal writes float columns with at least one fractional digit,
// e.g. 20 as "20.0" and 0.125 as "0.125".
func formatDecimal(d decimal.Decimal) string {
	d = d.Round(8)
	if d.Equal(d.Truncate(0)) {
		return d.StringFixed(1)
	}
	return d.String()
}

func writeCSV(filePath string, headers []string, n int, record func(i int) []string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i := 0; i < n; i++ {
		if err := writer.Write(record(i)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", filepath.Base(filePath), err)
	}
	return file.Close()
}
