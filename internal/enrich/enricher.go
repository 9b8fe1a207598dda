package enrich

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dyike/divcalendar/internal/cache"
	"github.com/dyike/divcalendar/pkg/dataflows"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const etfMarker = "ETF"

var notional = decimal.NewFromInt(1000)

// EnrichedRow is a selected calendar row plus quote-derived columns.
type EnrichedRow struct {
	// Index is the row position in the selected table and survives re-sorting.
	Index          int
	Row            dataflows.CalendarRow
	CurrentPrice   decimal.Decimal
	Return         decimal.Decimal
	Recommendation string
	// ETF is "ETF" for fund rows and empty otherwise.
	ETF string
}

// Select keeps the rows that carry every selected attribute, in table order.
func Select(table *dataflows.MonthlyTable) []dataflows.CalendarRow {
	if table == nil {
		return nil
	}
	rows := make([]dataflows.CalendarRow, 0, len(table.Rows))
	for _, row := range table.Rows {
		if row.Complete() {
			rows = append(rows, row)
		}
	}
	return rows
}

// ComputeReturn is the dividend earned per 1000 invested at price.
// An unknown (zero) price falls back to the dividend rate itself.
func ComputeReturn(rate, price decimal.Decimal) decimal.Decimal {
	if price.IsZero() {
		return rate
	}
	return rate.Mul(notional).Div(price)
}

// ETFTag returns "ETF" when the company name contains it.
func ETFTag(companyName string) string {
	if strings.Contains(companyName, etfMarker) {
		return etfMarker
	}
	return ""
}

type Enricher struct {
	quotes *cache.QuoteCache
	logger *zap.Logger
}

func NewEnricher(quotes *cache.QuoteCache, logger *zap.Logger) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{
		quotes: quotes,
		logger: logger,
	}
}

// Enrich resolves quotes for every row. Lookup failures never abort the run;
// they collapse to the default quote info here and nowhere else. A cancelled
// ctx does abort it, since every remaining lookup would be defaulted.
func (e *Enricher) Enrich(ctx context.Context, rows []dataflows.CalendarRow) ([]EnrichedRow, error) {
	enriched := make([]EnrichedRow, 0, len(rows))
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("enrichment stopped at row %d of %d: %w", i, len(rows), err)
		}
		info := e.quotes.Get(ctx, row.Symbol).OrDefault()

		enriched = append(enriched, EnrichedRow{
			Index:          i,
			Row:            row,
			CurrentPrice:   info.CurrentPrice,
			Return:         ComputeReturn(row.DividendRate, info.CurrentPrice),
			Recommendation: info.RecommendationKey,
			ETF:            ETFTag(row.CompanyName),
		})
	}

	e.logger.Info("enriched calendar rows",
		zap.Int("rows", len(enriched)),
		zap.Int("tickers", e.quotes.Len()))
	return enriched, nil
}

// SortByDividendRate returns a copy ordered by dividend rate, highest first.
func SortByDividendRate(rows []EnrichedRow) []EnrichedRow {
	return sortStable(rows, func(a, b EnrichedRow) bool {
		return a.Row.DividendRate.GreaterThan(b.Row.DividendRate)
	})
}

// SortByCurrentPrice returns a copy ordered by current price, lowest first.
func SortByCurrentPrice(rows []EnrichedRow) []EnrichedRow {
	return sortStable(rows, func(a, b EnrichedRow) bool {
		return a.CurrentPrice.LessThan(b.CurrentPrice)
	})
}

// SortByReturn returns a copy ordered by return, highest first.
func SortByReturn(rows []EnrichedRow) []EnrichedRow {
	return sortStable(rows, func(a, b EnrichedRow) bool {
		return a.Return.GreaterThan(b.Return)
	})
}

func sortStable(rows []EnrichedRow, less func(a, b EnrichedRow) bool) []EnrichedRow {
	sorted := make([]EnrichedRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j])
	})
	return sorted
}
