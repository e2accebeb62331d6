// Command csvutf8 detects the character encoding of CSV files and rewrites
// them as UTF-8, from the command line or through a small web UI.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvutf8/internal/config"
	"github.com/JonMunkholm/csvutf8/internal/logging"
)

var (
	version = "dev"

	// Set by the root command before any subcommand runs.
	cfg *config.Config

	logLevel string

	colorRed    = color.New(color.FgRed, color.Bold)
	colorGreen  = color.New(color.FgGreen, color.Bold)
	colorYellow = color.New(color.FgYellow)
	colorCyan   = color.New(color.FgCyan)
	colorFaint  = color.New(color.Faint)
)

// errReported marks a failure whose details were already printed.
var errReported = errors.New("failed")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errReported) {
			colorRed.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "csvutf8",
		Short: "Detect a CSV file's encoding and convert it to UTF-8",
		Long: `csvutf8 guesses the character encoding of a CSV file from a sample,
confirms the guess by decoding and parsing the whole file, falls back to a
fixed list of common encodings when needed, and writes a UTF-8 copy.

Examples:
  # Convert, writing report_utf8.csv next to the source
  csvutf8 convert report.csv

  # Choose the output and a smaller detection sample
  csvutf8 convert report.csv -o clean.csv --sample-size 65536

  # Only show what would be tried
  csvutf8 detect report.csv

  # Start the web UI
  csvutf8 serve`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default from CSVUTF8_LOG_LEVEL)")

	root.AddCommand(newConvertCmd(), newDetectCmd(), newServeCmd())
	return root
}

// setup loads .env and the environment, then configures logging. Command
// line tools log to stderr so stdout stays free for output.
func setup(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Overload(); err == nil {
		slog.Debug("loaded .env file")
	}

	loaded, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if logLevel != "" {
		loaded.Logging.Level = logLevel
	}
	cfg = loaded

	if cmd.Name() == "serve" {
		logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	} else {
		logging.SetupWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	}
	return nil
}

// sampleSize resolves --sample-size against the configured default and
// prints a warning when the value is rejected.
func sampleSize(flag string) int {
	raw := flag
	if raw == "" {
		raw = cfg.Convert.SampleSize
	}
	n, err := config.ParseSampleSize(raw)
	if err != nil {
		colorYellow.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	return n
}
