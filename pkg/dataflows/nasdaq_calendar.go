package dataflows

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/kaptinlin/jsonrepair"
	"go.uber.org/zap"
)

const calendarPath = "/api/calendar/dividends"

// calendarHeaders mimic a browser; the endpoint rejects default client identifiers.
var calendarHeaders = map[string]string{
	"Accept":         "application/json, text/plain, */*",
	"DNT":            "1",
	"Origin":         "https://www.nasdaq.com/",
	"Sec-Fetch-Mode": "cors",
	"User-Agent":     "Mozilla/5.0 (Windows NT 10.0)",
}

// DayError reports the calendar day whose fetch aborted the month.
type DayError struct {
	Date string
	Day  int
	Err  error
}

func (e *DayError) Error() string {
	return fmt.Sprintf("fetch dividend calendar for %s (day %d): %v", e.Date, e.Day, e.Err)
}

func (e *DayError) Unwrap() error {
	return e.Err
}

type calendarResponse struct {
	Data *struct {
		Calendar *struct {
			AsOf string           `json:"asOf"`
			Rows []map[string]any `json:"rows"`
		} `json:"calendar"`
	} `json:"data"`
	Status *struct {
		RCode        int `json:"rCode"`
		BCodeMessage []struct {
			Code         int    `json:"code"`
			ErrorMessage string `json:"errorMessage"`
		} `json:"bCodeMessage"`
	} `json:"status"`
}

func (r *calendarResponse) rows() []map[string]any {
	if r.Data == nil || r.Data.Calendar == nil {
		return nil
	}
	return r.Data.Calendar.Rows
}

func (r *calendarResponse) statusMessage() string {
	if r.Status == nil {
		return ""
	}
	var msgs []string
	for _, m := range r.Status.BCodeMessage {
		if m.ErrorMessage != "" {
			msgs = append(msgs, m.ErrorMessage)
		}
	}
	return strings.Join(msgs, "; ")
}

// CalendarClient fetches the Nasdaq dividend calendar one day at a time.
type CalendarClient struct {
	client  *resty.Client
	logger  *zap.Logger
	lenient bool
	rawDir  string
}

// NewCalendarClient creates a calendar client from the run configuration.
func NewCalendarClient(config *Config, logger *zap.Logger) *CalendarClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	client := resty.New()
	client.SetBaseURL(config.NasdaqBaseURL)
	client.SetTimeout(config.RequestTimeout)
	client.SetHeaders(calendarHeaders)

	var rawDir string
	if config.SaveRawResponses {
		rawDir = filepath.Join(config.DataDir, "nasdaq", "raw")
	}

	return &CalendarClient{
		client:  client,
		logger:  logger,
		lenient: config.LenientJSON,
		rawDir:  rawDir,
	}
}

// FetchMonth fetches every day of the month sequentially and concatenates
// the rows in day order. The first failing day aborts the whole month.
func (c *CalendarClient) FetchMonth(ctx context.Context, year, month int) (*MonthlyTable, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("invalid month %d", month)
	}

	days := DaysInMonth(year, month)
	table := &MonthlyTable{
		Year:  year,
		Month: month,
		Days:  make([]DayResult, 0, days),
	}

	for day := 1; day <= days; day++ {
		date := FormatDate(year, month, day)
		if err := ctx.Err(); err != nil {
			return nil, &DayError{Date: date, Day: day, Err: err}
		}

		rows, result, err := c.FetchDay(ctx, date)
		if err != nil {
			return nil, &DayError{Date: date, Day: day, Err: err}
		}

		c.logger.Debug("fetched calendar day",
			zap.String("date", date),
			zap.Int("rows", result.Rows),
			zap.Bool("empty", result.Empty))

		table.Rows = append(table.Rows, rows...)
		table.Days = append(table.Days, result)
	}

	return table, nil
}

// FetchDay fetches and parses the calendar rows for a single YYYY-MM-DD date.
// A response without data.calendar.rows is an empty day, not an error.
func (c *CalendarClient) FetchDay(ctx context.Context, date string) ([]CalendarRow, DayResult, error) {
	result := DayResult{Date: date}

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("date", date).
		Get(calendarPath)
	if err != nil {
		return nil, result, fmt.Errorf("request failed: %w", err)
	}

	body := resp.Body()
	if resp.IsError() {
		return nil, result, fmt.Errorf("API error %d: %s", resp.StatusCode(), snippet(body))
	}

	if c.rawDir != "" {
		if err := SaveRawJSON(body, filepath.Join(c.rawDir, date+".json")); err != nil {
			c.logger.Warn("failed to save raw calendar response", zap.String("date", date), zap.Error(err))
		}
	}

	payload, err := c.decode(body)
	if err != nil {
		return nil, result, err
	}

	raw := payload.rows()
	rows := make([]CalendarRow, 0, len(raw))
	for _, fields := range raw {
		rows = append(rows, NewCalendarRow(date, fields))
	}

	result.Rows = len(rows)
	result.Empty = len(rows) == 0
	result.Message = payload.statusMessage()
	return rows, result, nil
}

func (c *CalendarClient) decode(body []byte) (*calendarResponse, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty response body")
	}
	if trimmed[0] == '<' {
		return nil, htmlError(trimmed)
	}

	payload, err := decodeCalendar(trimmed)
	if err == nil {
		return payload, nil
	}
	if !c.lenient {
		return nil, fmt.Errorf("failed to parse calendar response: %w", err)
	}

	repaired, repairErr := jsonrepair.JSONRepair(string(trimmed))
	if repairErr != nil {
		return nil, fmt.Errorf("failed to parse calendar response: %w (repair: %v)", err, repairErr)
	}
	c.logger.Warn("repaired malformed calendar response", zap.Error(err))

	payload, err = decodeCalendar([]byte(repaired))
	if err != nil {
		return nil, fmt.Errorf("failed to parse repaired calendar response: %w", err)
	}
	return payload, nil
}

func decodeCalendar(data []byte) (*calendarResponse, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var payload calendarResponse
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// htmlError names the page the endpoint served instead of JSON, usually a bot wall.
func htmlError(body []byte) error {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrHTMLResponse, snippet(body))
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = snippet([]byte(strings.TrimSpace(doc.Text())))
	}
	return fmt.Errorf("%w: %q", ErrHTMLResponse, title)
}

func snippet(body []byte) string {
	s := string(body)
	if len(s) > 256 {
		s = s[:256]
	}
	return s
}

// NewCalendarRow builds a row from one upstream record. Every key is kept in
// Fields; the selected attributes are also decoded into typed fields. Text is
// kept as returned apart from surrounding whitespace.
func NewCalendarRow(day string, fields map[string]any) CalendarRow {
	row := CalendarRow{
		Day:    day,
		Fields: fields,
	}

	row.CompanyName, _ = stringValue(fields[FieldCompanyName])
	row.Symbol, _ = stringValue(fields[FieldSymbol])
	row.ExDividendDate, _ = stringValue(fields[FieldExDividendDate])
	row.PaymentDate, _ = stringValue(fields[FieldPaymentDate])
	row.DividendRate, row.hasRate = decimalValue(fields[FieldDividendRate])
	row.IndicatedAnnualDividend, row.hasAnnual = decimalValue(fields[FieldIndicatedAnnualDividend])

	return row
}
