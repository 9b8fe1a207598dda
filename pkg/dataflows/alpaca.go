package dataflows

import (
	"context"
	"errors"
	"fmt"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"
)

// AlpacaClient prices tickers from the latest trade on Alpaca market data.
type AlpacaClient struct {
	mdClient *marketdata.Client
}

func NewAlpacaClient(cfg *Config) (*AlpacaClient, error) {
	if cfg.AlpacaAPIKey == "" || cfg.AlpacaAPISecret == "" {
		return nil, errors.New("alpaca API credentials not configured")
	}

	return &AlpacaClient{
		mdClient: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    cfg.AlpacaAPIKey,
			APISecret: cfg.AlpacaAPISecret,
		}),
	}, nil
}

func (ac *AlpacaClient) Name() string {
	return "alpaca"
}

// GetQuoteInfo uses the latest trade price; Alpaca publishes no analyst
// recommendations so the key is always "NA".
func (ac *AlpacaClient) GetQuoteInfo(ctx context.Context, symbol string) (*QuoteInfo, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	trade, err := ac.mdClient.GetLatestTrade(symbol, marketdata.GetLatestTradeRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to get latest trade for %s: %w", symbol, err)
	}
	if trade == nil {
		return nil, fmt.Errorf("%w for %s", ErrNoQuote, symbol)
	}

	return &QuoteInfo{
		CurrentPrice:      decimal.NewFromFloat(trade.Price),
		RecommendationKey: DefaultRecommendation,
	}, nil
}
