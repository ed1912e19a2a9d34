// Package cli contains the flightwatch commands
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dharmasatrya/weekendfares/internal/config"
	"github.com/dharmasatrya/weekendfares/internal/report"
)

var (
	cfgFile   string
	verbose   bool
	quiet     bool
	colorMode string
	cfg       *config.Config
	logger    *slog.Logger
	version   = "dev"
)

// NewRootCommand builds the command tree. Flags are bound fresh on every call.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "flightwatch",
		Short: "Weekend flight price monitor",
		Long: `flightwatch plans weekend round trips over a travel window, prices every
planned date sequentially against a limited-quota flight API and reports the
cheapest options.

Example usage:
  flightwatch plan                       # Show the dates a scan would query
  flightwatch quota                      # Estimate monthly API usage
  flightwatch scan                       # Price every date and write the report
  flightwatch scan --strategy conservative --no-email
  flightwatch history paris              # Price trend from past runs`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./flightwatch.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only print errors")
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", "", "color output: auto, always or never")

	rootCmd.AddCommand(
		newScanCommand(),
		newPlanCommand(),
		newQuotaCommand(),
		newValidateCommand(),
		newHistoryCommand(),
		newVersionCommand(),
	)
	return rootCmd
}

// Execute runs the CLI with os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

// SetVersion sets the version string for the CLI
func SetVersion(v string) {
	version = v
}

// initConfig reads in config file and ENV variables if set.
func initConfig(cmd *cobra.Command) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	logger = newLogger(cmd.ErrOrStderr(), level, cfg.Logging.Format)

	logger.Debug("configuration loaded",
		"origin", cfg.Search.Origin,
		"destinations", len(cfg.Search.Destinations),
		"provider", cfg.Provider.Name,
		"strategy", cfg.Search.Strategy,
	)
	return nil
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func newPrinter(cmd *cobra.Command) (*report.Printer, error) {
	mode := cfg.Output.Color
	if colorMode != "" {
		mode = colorMode
	}
	m, err := report.ParseColorMode(mode)
	if err != nil {
		return nil, err
	}
	return report.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), report.ResolveColors(m), quiet), nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "flightwatch %s\n", version)
		},
	}
}
