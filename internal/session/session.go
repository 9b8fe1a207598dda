package session

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dyike/divcalendar/config"
	"github.com/dyike/divcalendar/internal/cache"
	"github.com/dyike/divcalendar/internal/enrich"
	"github.com/dyike/divcalendar/internal/utils"
	"github.com/dyike/divcalendar/pkg/dataflows"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CalendarSource produces the dividend calendar of a month.
type CalendarSource interface {
	FetchMonth(ctx context.Context, year, month int) (*dataflows.MonthlyTable, error)
}

// Summary describes a finished export.
type Summary struct {
	RunID        string
	Year         int
	Month        int
	Provider     string
	Days         int
	EmptyDays    int
	FetchedRows  int
	SelectedRows int
	ETFRows      int
	Quotes       cache.Stats
	Files        utils.ExportFiles
	TopByReturn  []enrich.EnrichedRow
	Duration     time.Duration
}

// DividendSession exports one month of the dividend calendar.
type DividendSession struct {
	config   *config.Config
	logger   *zap.Logger
	calendar CalendarSource
	provider dataflows.QuoteProvider
	csv      *utils.CSVManager
	runID    string
}

// NewDividendSession wires the Nasdaq calendar and the configured quote provider.
func NewDividendSession(cfg *config.Config, logger *zap.Logger) (*DividendSession, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	provider, err := dataflows.NewQuoteProvider(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create quote provider: %w", err)
	}
	return NewDividendSessionWith(cfg, logger, dataflows.NewCalendarClient(cfg, logger), provider), nil
}

// NewDividendSessionWith builds a session from explicit collaborators.
func NewDividendSessionWith(cfg *config.Config, logger *zap.Logger, calendar CalendarSource, provider dataflows.QuoteProvider) *DividendSession {
	if logger == nil {
		logger = zap.NewNop()
	}
	runID := uuid.NewString()
	return &DividendSession{
		config:   cfg,
		logger:   logger.With(zap.String("run_id", runID)),
		calendar: calendar,
		provider: provider,
		csv:      utils.NewCSVManager(cfg.ResultsDir),
		runID:    runID,
	}
}

// Execute fetches, enriches and exports the configured month. A calendar
// failure aborts the run before any file is written.
func (s *DividendSession) Execute(ctx context.Context) (*Summary, error) {
	start := time.Now()
	year, month := s.config.Year, s.config.Month

	if err := s.config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	s.logger.Info("fetching dividend calendar", zap.Int("year", year), zap.Int("month", month))
	table, err := s.calendar.FetchMonth(ctx, year, month)
	if err != nil {
		s.logger.Error("dividend calendar fetch failed", zap.Error(err))
		return nil, err
	}

	selected := enrich.Select(table)
	s.logger.Info("dividend calendar fetched",
		zap.Int("days", len(table.Days)),
		zap.Int("rows", len(table.Rows)),
		zap.Int("selected", len(selected)),
		zap.Strings("empty_days", table.EmptyDays()))

	quotes := cache.NewQuoteCache(s.provider, s.logger)
	enriched, err := enrich.NewEnricher(quotes, s.logger).Enrich(ctx, selected)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		s.logger.Warn("export interrupted, no files written", zap.Error(err))
		return nil, fmt.Errorf("export interrupted: %w", err)
	}

	files, err := s.csv.WriteMonth(year, month, selected, enriched)
	if err != nil {
		return nil, fmt.Errorf("failed to write exports: %w", err)
	}

	summary := &Summary{
		RunID:        s.runID,
		Year:         year,
		Month:        month,
		Provider:     s.provider.Name(),
		Days:         len(table.Days),
		EmptyDays:    len(table.EmptyDays()),
		FetchedRows:  len(table.Rows),
		SelectedRows: len(selected),
		ETFRows:      countETFs(enriched),
		Quotes:       quotes.Stats(),
		Files:        files,
		TopByReturn:  top(enrich.SortByReturn(enriched), 5),
		Duration:     time.Since(start),
	}

	s.logger.Info("dividend export completed",
		zap.Strings("files", files.All()),
		zap.Int("quote_failures", summary.Quotes.Failures),
		zap.Duration("duration", summary.Duration))
	return summary, nil
}

// Close releases the quote provider when it holds a connection.
func (s *DividendSession) Close() error {
	if closer, ok := s.provider.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func countETFs(rows []enrich.EnrichedRow) int {
	n := 0
	for _, r := range rows {
		if r.ETF != "" {
			n++
		}
	}
	return n
}

func top(rows []enrich.EnrichedRow, n int) []enrich.EnrichedRow {
	if len(rows) > n {
		return rows[:n]
	}
	return rows
}
