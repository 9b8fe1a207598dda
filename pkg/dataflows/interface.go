package dataflows

import (
	"context"
	"fmt"

	"github.com/dyike/divcalendar/config"
	"go.uber.org/zap"
)

// QuoteProvider looks up the current price and analyst recommendation of a ticker.
type QuoteProvider interface {
	Name() string
	GetQuoteInfo(ctx context.Context, symbol string) (*QuoteInfo, error)
}

// NewQuoteProvider returns the provider selected by cfg.QuoteProvider.
func NewQuoteProvider(cfg *Config, logger *zap.Logger) (QuoteProvider, error) {
	switch cfg.QuoteProvider {
	case "", config.QuoteProviderYahoo:
		return NewYahooFinanceClient(cfg, logger), nil
	case config.QuoteProviderLongport:
		client, err := NewLongportClient(cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.QuoteProviderAlpaca:
		client, err := NewAlpacaClient(cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown quote provider %q", cfg.QuoteProvider)
	}
}
