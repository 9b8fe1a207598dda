package dataflows

import (
	"errors"
	"strings"

	"github.com/dyike/divcalendar/config"
	"github.com/shopspring/decimal"
)

// Config is an alias for the main application config
type Config = config.Config

// Upstream column names of the selected calendar attributes.
const (
	FieldCompanyName             = "companyName"
	FieldSymbol                  = "symbol"
	FieldExDividendDate          = "dividend_Ex_Date"
	FieldPaymentDate             = "payment_Date"
	FieldDividendRate            = "dividend_Rate"
	FieldIndicatedAnnualDividend = "indicated_Annual_Dividend"
)

// DefaultRecommendation is reported when no analyst recommendation is known.
const DefaultRecommendation = "NA"

var (
	ErrEmptySymbol  = errors.New("symbol cannot be empty")
	ErrNoQuote      = errors.New("no quote returned")
	ErrHTMLResponse = errors.New("calendar endpoint returned an HTML page")
)

// CalendarRow is one dividend-calendar entry for one day.
type CalendarRow struct {
	Day                     string
	CompanyName             string
	Symbol                  string
	ExDividendDate          string
	PaymentDate             string
	DividendRate            decimal.Decimal
	IndicatedAnnualDividend decimal.Decimal

	// Fields holds every key/value the endpoint returned for the row.
	Fields map[string]any

	hasRate   bool
	hasAnnual bool
}

// Complete reports whether every selected attribute is present.
func (r CalendarRow) Complete() bool {
	return r.CompanyName != "" &&
		r.Symbol != "" &&
		r.ExDividendDate != "" &&
		r.PaymentDate != "" &&
		r.hasRate &&
		r.hasAnnual
}

// DayResult records what a single day of the month contributed.
type DayResult struct {
	Date    string `json:"date"`
	Rows    int    `json:"rows"`
	Empty   bool   `json:"empty"`
	Message string `json:"message,omitempty"`
}

// MonthlyTable is every calendar row of a month, in day order.
type MonthlyTable struct {
	Year  int
	Month int
	Rows  []CalendarRow
	Days  []DayResult
}

// EmptyDays returns the dates that returned no rows.
func (t *MonthlyTable) EmptyDays() []string {
	var days []string
	for _, d := range t.Days {
		if d.Empty {
			days = append(days, d.Date)
		}
	}
	return days
}

// QuoteInfo is the per-ticker data used for enrichment.
type QuoteInfo struct {
	CurrentPrice      decimal.Decimal `json:"currentPrice"`
	RecommendationKey string          `json:"recommendationKey"`
}

// DefaultQuoteInfo is substituted for any ticker whose lookup failed.
func DefaultQuoteInfo() QuoteInfo {
	return QuoteInfo{
		CurrentPrice:      decimal.Zero,
		RecommendationKey: DefaultRecommendation,
	}
}

// QuoteResult is the outcome of one provider lookup, kept with its error
// so callers can tell a failed ticker from a real zero price.
type QuoteResult struct {
	Symbol string
	Info   QuoteInfo
	Err    error
}

func (r QuoteResult) OK() bool {
	return r.Err == nil
}

// OrDefault returns the looked up info, or DefaultQuoteInfo when the lookup failed.
func (r QuoteResult) OrDefault() QuoteInfo {
	if r.Err != nil {
		return DefaultQuoteInfo()
	}
	info := r.Info
	if strings.TrimSpace(info.RecommendationKey) == "" {
		info.RecommendationKey = DefaultRecommendation
	}
	return info
}
