package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvutf8/internal/core"
)

func newDetectCmd() *cobra.Command {
	var (
		sampleFlag string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "detect SRC",
		Short: "Show the detected encoding and the order candidates would be tried",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conv := core.NewConverter(core.WithSampleSize(sampleSize(sampleFlag)))
			ins, err := conv.Inspect(cmd.Context(), args[0])

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if encErr := enc.Encode(ins); encErr != nil {
					return encErr
				}
				if err != nil {
					return errReported
				}
				return nil
			}

			if err != nil {
				reportFailure(nil, err)
				return errReported
			}
			printInspection(ins, conv.SampleSize())
			return nil
		},
	}

	cmd.Flags().StringVar(&sampleFlag, "sample-size", "", "bytes sampled for detection (default 200000)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func printInspection(ins *core.Inspection, sample int) {
	colorCyan.Printf("%s\n", ins.Source)
	fmt.Printf("  Sample:     %d bytes\n", sample)
	if d := ins.Detection; d.Encoding != nil {
		fmt.Printf("  Detected:   %s (confidence %.2f)\n", *d.Encoding, d.Confidence)
	} else {
		fmt.Printf("  Detected:   no signal\n")
	}
	fmt.Printf("  Candidates: %s\n", strings.Join(ins.Candidates, ", "))
}
