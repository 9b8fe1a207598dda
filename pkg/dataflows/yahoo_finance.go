package dataflows

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/quote"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const quoteSummaryPath = "/v10/finance/quoteSummary/{symbol}"

// YahooFinanceClient handles Yahoo Finance data operations
type YahooFinanceClient struct {
	client   *resty.Client
	logger   *zap.Logger
	getQuote func(symbol string) (*finance.Quote, error)
}

// NewYahooFinanceClient creates a new Yahoo Finance client
func NewYahooFinanceClient(config *Config, logger *zap.Logger) *YahooFinanceClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New()
	client.SetBaseURL(config.YahooBaseURL)
	client.SetTimeout(config.RequestTimeout)
	client.SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")

	return &YahooFinanceClient{
		client:   client,
		logger:   logger,
		getQuote: quote.Get,
	}
}

func (yf *YahooFinanceClient) Name() string {
	return "yahoo"
}

// GetQuoteInfo returns the regular market price and the analyst recommendation.
// Without a price the lookup fails; a missing recommendation is reported as "NA".
func (yf *YahooFinanceClient) GetQuoteInfo(ctx context.Context, symbol string) (*QuoteInfo, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	price, err := yf.GetPrice(symbol)
	if err != nil {
		return nil, err
	}

	recommendation, err := yf.GetRecommendation(ctx, symbol)
	if err != nil {
		yf.logger.Debug("recommendation unavailable", zap.String("symbol", symbol), zap.Error(err))
		recommendation = DefaultRecommendation
	}

	return &QuoteInfo{
		CurrentPrice:      price,
		RecommendationKey: recommendation,
	}, nil
}

// GetPrice gets the regular market price for a symbol
func (yf *YahooFinanceClient) GetPrice(symbol string) (decimal.Decimal, error) {
	q, err := yf.getQuote(yahooSymbol(symbol))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get quote for %s: %w", symbol, err)
	}
	if q == nil {
		return decimal.Zero, fmt.Errorf("%w for %s", ErrNoQuote, symbol)
	}
	return decimal.NewFromFloat(q.RegularMarketPrice), nil
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			FinancialData struct {
				RecommendationKey string `json:"recommendationKey"`
			} `json:"financialData"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

// GetRecommendation reads financialData.recommendationKey from quoteSummary.
func (yf *YahooFinanceClient) GetRecommendation(ctx context.Context, symbol string) (string, error) {
	resp, err := yf.client.R().
		SetContext(ctx).
		SetPathParam("symbol", yahooSymbol(symbol)).
		SetQueryParam("modules", "financialData").
		Get(quoteSummaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to fetch quote summary for %s: %w", symbol, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("API error %d: %s", resp.StatusCode(), snippet(resp.Body()))
	}

	var summary quoteSummaryResponse
	if err := json.Unmarshal(resp.Body(), &summary); err != nil {
		return "", fmt.Errorf("failed to parse quote summary: %w", err)
	}
	if e := summary.QuoteSummary.Error; e != nil {
		return "", fmt.Errorf("quote summary error %s: %s", e.Code, e.Description)
	}
	if len(summary.QuoteSummary.Result) == 0 {
		return "", fmt.Errorf("%w: empty quote summary for %s", ErrNoQuote, symbol)
	}

	key := strings.TrimSpace(summary.QuoteSummary.Result[0].FinancialData.RecommendationKey)
	if key == "" {
		return DefaultRecommendation, nil
	}
	return key, nil
}

// yahooSymbol maps Nasdaq share-class notation (BRK.B, BF/B) onto Yahoo's (BRK-B).
func yahooSymbol(symbol string) string {
	return strings.NewReplacer(".", "-", "/", "-").Replace(symbol)
}
