package dataflows

import (
	"context"
	"errors"
	"fmt"
	"strings"

	lpconfig "github.com/longportapp/openapi-go/config"
	"github.com/longportapp/openapi-go/quote"
)

type LongportClient struct {
	quoteCtx *quote.QuoteContext
}

func NewLongportClient(cfg *Config) (*LongportClient, error) {
	if cfg.LongportAppKey == "" || cfg.LongportAppSecret == "" || cfg.LongportAccessToken == "" {
		return nil, errors.New("longport API credentials not configured")
	}

	conf, err := lpconfig.New(lpconfig.WithConfigKey(cfg.LongportAppKey, cfg.LongportAppSecret, cfg.LongportAccessToken))
	if err != nil {
		return nil, err
	}

	quoteContext, err := quote.NewFromCfg(conf)
	if err != nil {
		return nil, err
	}

	return &LongportClient{
		quoteCtx: quoteContext,
	}, nil
}

func (lpc *LongportClient) Name() string {
	return "longport"
}

// GetQuoteInfo uses the last traded price. Longport has no analyst ratings,
// so the recommendation is always "NA".
func (lpc *LongportClient) GetQuoteInfo(ctx context.Context, symbol string) (*QuoteInfo, error) {
	if lpc.quoteCtx == nil {
		return nil, errors.New("quote context is nil")
	}
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}

	lpSymbol := longportSymbol(symbol)
	quotes, err := lpc.quoteCtx.Quote(ctx, []string{lpSymbol})
	if err != nil {
		return nil, fmt.Errorf("failed to get quote for %s: %w", lpSymbol, err)
	}
	if len(quotes) == 0 || quotes[0] == nil || quotes[0].LastDone == nil {
		return nil, fmt.Errorf("%w for %s", ErrNoQuote, lpSymbol)
	}

	return &QuoteInfo{
		CurrentPrice:      *quotes[0].LastDone,
		RecommendationKey: DefaultRecommendation,
	}, nil
}

// Close releases the quote connection.
func (lpc *LongportClient) Close() error {
	if lpc.quoteCtx == nil {
		return nil
	}
	return lpc.quoteCtx.Close()
}

// longportSymbol appends the US market suffix Longport expects, e.g. AAPL -> AAPL.US.
func longportSymbol(symbol string) string {
	symbol = NormalizeSymbol(symbol)
	if i := strings.LastIndex(symbol, "."); i > 0 {
		switch symbol[i+1:] {
		case "US", "HK", "SH", "SZ", "SG":
			return symbol
		}
	}
	return symbol + ".US"
}
