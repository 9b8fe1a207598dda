package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/dyike/divcalendar/config"
	"github.com/dyike/divcalendar/internal/logger"
	"github.com/dyike/divcalendar/internal/session"
)

const version = "v1.0.0"

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg := config.DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "divcalendar",
		Short: "divcalendar - monthly dividend calendar exporter",
		Long: `divcalendar fetches a month of the Nasdaq dividend calendar, prices every ticker
through a quote provider and writes the calendar, the enriched table and three
sorted views as CSV files.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				cfg.Debug = true
			}
			if dir, _ := cmd.Flags().GetString("out"); dir != "" {
				cfg.ResultsDir = dir
			}
			if provider, _ := cmd.Flags().GetString("provider"); provider != "" {
				cfg.QuoteProvider = provider
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default behavior: ask for the period
			year, month, err := PromptForPeriod(cfg.Year, cfg.Month)
			if err != nil {
				return err
			}
			cfg.Year, cfg.Month = year, month
			return runExportCommand(cmd.Context(), cfg)
		},
	}

	rootCmd.AddCommand(newExportCmd(cfg))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(cfg))

	// Global flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("out", "", "Directory the CSV files are written to")
	rootCmd.PersistentFlags().String("provider", "", "Quote provider: yahoo, longport or alpaca")

	return rootCmd
}

// newExportCmd creates the export command
func newExportCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the dividend calendar of a month",
		Long: `Export the dividend calendar of a month.
Example: divcalendar export --year=2024 --month=11`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("year") {
				cfg.Year, _ = cmd.Flags().GetInt("year")
			}
			if cmd.Flags().Changed("month") {
				cfg.Month, _ = cmd.Flags().GetInt("month")
			}
			if cmd.Flags().Changed("lenient") {
				cfg.LenientJSON, _ = cmd.Flags().GetBool("lenient")
			}
			if cmd.Flags().Changed("save-raw") {
				cfg.SaveRawResponses, _ = cmd.Flags().GetBool("save-raw")
			}
			return runExportCommand(cmd.Context(), cfg)
		},
	}

	cmd.Flags().Int("year", cfg.Year, "Calendar year")
	cmd.Flags().Int("month", cfg.Month, "Calendar month (1-12)")
	cmd.Flags().Bool("lenient", cfg.LenientJSON, "Repair malformed calendar responses instead of failing")
	cmd.Flags().Bool("save-raw", cfg.SaveRawResponses, "Keep every raw calendar response under the data directory")

	return cmd
}

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "divcalendar %s\n", version)
		},
	}
}

// newConfigCmd creates the config command
func newConfigCmd(cfg *config.Config) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), RenderConfig(cfg))
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✅ Configuration is valid")
			return nil
		},
	})

	return configCmd
}

// runExportCommand executes one export and prints its summary
func runExportCommand(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	log, err := logger.New(cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	fmt.Printf("🚀 Exporting dividend calendar for %d-%02d\n", cfg.Year, cfg.Month)

	s, err := session.NewDividendSession(cfg, log)
	if err != nil {
		return err
	}
	defer s.Close()

	summary, err := s.Execute(ctx)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	fmt.Print(RenderSummary(summary))
	return nil
}
