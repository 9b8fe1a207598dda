package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// Period exported when nothing overrides it.
	DefaultYear  = 2024
	DefaultMonth = 11

	QuoteProviderYahoo    = "yahoo"
	QuoteProviderLongport = "longport"
	QuoteProviderAlpaca   = "alpaca"
)

type Config struct {
	ProjectDir string `json:"project_dir"`
	ResultsDir string `json:"results_dir"`
	DataDir    string `json:"data_dir"`

	Year  int `json:"year"`
	Month int `json:"month"`

	NasdaqBaseURL  string        `json:"nasdaq_base_url"`
	YahooBaseURL   string        `json:"yahoo_base_url"`
	QuoteProvider  string        `json:"quote_provider"`
	RequestTimeout time.Duration `json:"request_timeout"`

	// LenientJSON repairs malformed calendar bodies instead of aborting the run.
	LenientJSON      bool `json:"lenient_json"`
	SaveRawResponses bool `json:"save_raw_responses"`
	Debug            bool `json:"debug"`

	// Longport API Configuration
	LongportAppKey      string `json:"longport_app_key"`
	LongportAppSecret   string `json:"longport_app_secret"`
	LongportAccessToken string `json:"longport_access_token"`

	// Alpaca market data
	AlpacaAPIKey    string `json:"alpaca_api_key"`
	AlpacaAPISecret string `json:"alpaca_api_secret"`
}

func DefaultConfig() *Config {
	currentDir, _ := os.Getwd()

	cfg := &Config{
		ProjectDir: currentDir,
		ResultsDir: currentDir,
		DataDir:    filepath.Join(currentDir, "data"),

		Year:  DefaultYear,
		Month: DefaultMonth,

		NasdaqBaseURL:  "https://api.nasdaq.com",
		YahooBaseURL:   "https://query2.finance.yahoo.com",
		QuoteProvider:  QuoteProviderYahoo,
		RequestTimeout: 30 * time.Second,
	}

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg.loadFromEnv()

	return cfg
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("PROJECT_DIR"); val != "" {
		c.ProjectDir = val
	}
	if val := os.Getenv("RESULTS_DIR"); val != "" {
		c.ResultsDir = val
	}
	if val := os.Getenv("DATA_DIR"); val != "" {
		c.DataDir = val
	}

	if val := os.Getenv("DIVCAL_YEAR"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.Year = v
		}
	}
	if val := os.Getenv("DIVCAL_MONTH"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.Month = v
		}
	}

	if val := os.Getenv("NASDAQ_BASE_URL"); val != "" {
		c.NasdaqBaseURL = val
	}
	if val := os.Getenv("YAHOO_BASE_URL"); val != "" {
		c.YahooBaseURL = val
	}
	if val := os.Getenv("QUOTE_PROVIDER"); val != "" {
		c.QuoteProvider = strings.ToLower(strings.TrimSpace(val))
	}
	if val := os.Getenv("REQUEST_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.RequestTimeout = d
		}
	}

	if val := os.Getenv("LENIENT_JSON"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.LenientJSON = enabled
		}
	}
	if val := os.Getenv("SAVE_RAW_RESPONSES"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.SaveRawResponses = enabled
		}
	}
	if val := os.Getenv("DIVCAL_DEBUG"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.Debug = enabled
		}
	}

	if val := os.Getenv("LONGPORT_APP_KEY"); val != "" {
		c.LongportAppKey = val
	}
	if val := os.Getenv("LONGPORT_APP_SECRET"); val != "" {
		c.LongportAppSecret = val
	}
	if val := os.Getenv("LONGPORT_ACCESS_TOKEN"); val != "" {
		c.LongportAccessToken = val
	}

	if val := os.Getenv("ALPACA_API_KEY"); val != "" {
		c.AlpacaAPIKey = val
	}
	if val := os.Getenv("ALPACA_SECRET_KEY"); val != "" {
		c.AlpacaAPISecret = val
	}
}

// Validate checks the values a run depends on.
func (c *Config) Validate() error {
	if c.Year < 1 {
		return fmt.Errorf("invalid year %d", c.Year)
	}
	if c.Month < 1 || c.Month > 12 {
		return fmt.Errorf("invalid month %d: must be between 1 and 12", c.Month)
	}
	if strings.TrimSpace(c.NasdaqBaseURL) == "" {
		return fmt.Errorf("nasdaq base url is required")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}

	switch c.QuoteProvider {
	case QuoteProviderYahoo:
	case QuoteProviderLongport:
		if c.LongportAppKey == "" || c.LongportAppSecret == "" || c.LongportAccessToken == "" {
			return fmt.Errorf("longport quote provider requires LONGPORT_APP_KEY, LONGPORT_APP_SECRET and LONGPORT_ACCESS_TOKEN")
		}
	case QuoteProviderAlpaca:
		if c.AlpacaAPIKey == "" || c.AlpacaAPISecret == "" {
			return fmt.Errorf("alpaca quote provider requires ALPACA_API_KEY and ALPACA_SECRET_KEY")
		}
	default:
		return fmt.Errorf("unknown quote provider %q", c.QuoteProvider)
	}
	return nil
}

func (c *Config) EnsureDirectories() error {
	dirs := []string{c.ResultsDir, c.DataDir}
	for _, dir := range dirs {
		path := strings.TrimSpace(dir)
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", path, err)
		}
	}
	return nil
}
