package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/dyike/divcalendar/config"
	"github.com/dyike/divcalendar/internal/session"
)

// UI styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1).
			MarginBottom(1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(1, 2)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")).
			Width(22)

	completedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B"))
)

func line(label, value string) string {
	return labelStyle.Render(label) + value + "\n"
}

// RenderSummary formats the result of an export for the terminal.
func RenderSummary(s *session.Summary) string {
	var content strings.Builder

	content.WriteString(line("Period:", fmt.Sprintf("%d-%02d", s.Year, s.Month)))
	content.WriteString(line("Run ID:", s.RunID))
	content.WriteString(line("Days fetched:", fmt.Sprintf("%d (%d without dividends)", s.Days, s.EmptyDays)))
	content.WriteString(line("Rows:", fmt.Sprintf("%d fetched, %d exported, %d ETFs", s.FetchedRows, s.SelectedRows, s.ETFRows)))
	content.WriteString(line("Quote provider:", s.Provider))
	content.WriteString(line("Tickers priced:", fmt.Sprintf("%d", s.Quotes.Size-s.Quotes.Failures)))
	if s.Quotes.Failures > 0 {
		content.WriteString(line("Lookups failed:", warningStyle.Render(fmt.Sprintf("%d (%s)", s.Quotes.Failures, strings.Join(s.Quotes.Failed, ", ")))))
	}
	content.WriteString(line("Duration:", s.Duration.Round(time.Millisecond).String()))

	if len(s.TopByReturn) > 0 {
		content.WriteString("\nTop by return per 1000:\n")
		for _, r := range s.TopByReturn {
			content.WriteString(fmt.Sprintf("  %-8s %10s  price %-10s %s\n",
				r.Row.Symbol, r.Return.StringFixed(2), r.CurrentPrice.StringFixed(2), r.Row.CompanyName))
		}
	}

	content.WriteString("\nFiles:\n")
	for _, f := range s.Files.All() {
		content.WriteString("  " + f + "\n")
	}

	return titleStyle.Render("📅 Dividend calendar export") + "\n" +
		panelStyle.Render(strings.TrimRight(content.String(), "\n")) + "\n" +
		completedStyle.Render("✅ Export completed successfully!") + "\n"
}

// RenderConfig formats the active configuration without secrets.
func RenderConfig(cfg *config.Config) string {
	var content strings.Builder

	content.WriteString(line("Period:", fmt.Sprintf("%d-%02d", cfg.Year, cfg.Month)))
	content.WriteString(line("Results directory:", cfg.ResultsDir))
	content.WriteString(line("Data directory:", cfg.DataDir))
	content.WriteString(line("Nasdaq base URL:", cfg.NasdaqBaseURL))
	content.WriteString(line("Yahoo base URL:", cfg.YahooBaseURL))
	content.WriteString(line("Quote provider:", cfg.QuoteProvider))
	content.WriteString(line("Request timeout:", cfg.RequestTimeout.String()))
	content.WriteString(line("Lenient JSON:", fmt.Sprintf("%t", cfg.LenientJSON)))
	content.WriteString(line("Save raw responses:", fmt.Sprintf("%t", cfg.SaveRawResponses)))
	content.WriteString(line("Debug:", fmt.Sprintf("%t", cfg.Debug)))
	content.WriteString(line("Longport API:", configured(cfg.LongportAppKey != "" && cfg.LongportAppSecret != "" && cfg.LongportAccessToken != "")))
	content.WriteString(line("Alpaca API:", configured(cfg.AlpacaAPIKey != "" && cfg.AlpacaAPISecret != "")))

	return titleStyle.Render("📋 Current configuration") + "\n" +
		panelStyle.Render(strings.TrimRight(content.String(), "\n")) + "\n"
}

func configured(ok bool) string {
	if ok {
		return "✅ Configured"
	}
	return "❌ Not configured"
}
