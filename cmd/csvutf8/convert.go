package main

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvutf8/internal/core"
)

type convertOptions struct {
	output     string
	sampleSize string
	force      bool
	quiet      bool
}

func newConvertCmd() *cobra.Command {
	var opts convertOptions

	cmd := &cobra.Command{
		Use:   "convert SRC",
		Short: "Convert a CSV file to UTF-8",
		Long: `Convert detects SRC's encoding, tries candidate encodings in order until
one decodes and parses the whole file, and writes the table as UTF-8.

Without -o the output is written next to SRC as <name>_utf8.csv. An
existing output file is only replaced with --force.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "destination file (default <src>_utf8.csv)")
	cmd.Flags().StringVar(&opts.sampleSize, "sample-size", "", "bytes sampled for detection (default 200000)")
	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "overwrite an existing destination")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "print only errors")
	return cmd
}

func runConvert(cmd *cobra.Command, src string, opts convertOptions) error {
	n := sampleSize(opts.sampleSize)

	p := newProgressPrinter(os.Stderr, opts.quiet)
	conv := core.NewConverter(
		core.WithSampleSize(n),
		core.WithOverwrite(opts.force || cfg.Convert.Overwrite),
		core.WithProgress(p.handle),
	)

	res, err := conv.Convert(cmd.Context(), src, opts.output)
	p.finish()
	if err != nil {
		reportFailure(res, err)
		return errReported
	}

	if !opts.quiet {
		colorGreen.Fprintf(os.Stderr, "✓ Converted from %s\n", res.Encoding)
		colorFaint.Fprintf(os.Stderr, "  %d rows written to %s in %s\n", res.Rows, res.Destination, res.Duration.Round(time.Millisecond))
		if len(res.Skipped) > 0 {
			colorYellow.Fprintf(os.Stderr, "  %d rows had extra fields and were skipped (first at line %d)\n",
				len(res.Skipped), res.Skipped[0].Line)
		}
	}
	return nil
}

func reportFailure(res *core.Result, err error) {
	msg := core.MapError(err)
	colorRed.Fprintf(os.Stderr, "✗ %s (%s)\n", msg.Message, msg.Code)
	if msg.Action != "" {
		colorFaint.Fprintf(os.Stderr, "  %s\n", msg.Action)
	}
	if attempted := core.Attempted(err); len(attempted) > 0 {
		colorFaint.Fprintf(os.Stderr, "  Tried: %s\n", strings.Join(attempted, ", "))
	}
	colorFaint.Fprintf(os.Stderr, "  Detail: %v\n", err)
	if res != nil && res.ID != "" {
		colorFaint.Fprintf(os.Stderr, "  Conversion ID: %s\n", res.ID)
	}
}
