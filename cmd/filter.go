package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cppla/htmlfilter/config"
	"github.com/cppla/htmlfilter/sanitizer"
	"github.com/cppla/htmlfilter/utils"
)

type filterOptions struct {
	stage  string
	report bool
	ugc    bool
}

func newFilterCmd() *cobra.Command {
	opts := filterOptions{stage: "filter"}
	cmd := &cobra.Command{
		Use:   "filter [file]",
		Short: "Filter HTML from a file or stdin and write it to stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			opts.ugc = opts.ugc || config.Get().UGCPass
			return runFilter(cmd.OutOrStdout(), cmd.ErrOrStderr(), in, opts)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&opts.stage, "stage", opts.stage, "sanitize, balance or filter")
	fs.BoolVar(&opts.report, "report", false, "print the JSON report to stderr")
	fs.BoolVar(&opts.ugc, "ugc", false, "append the bluemonday UGC pass")
	return cmd
}

func runFilter(stdout, stderr io.Writer, in io.Reader, opts filterOptions) error {
	raw, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	input := string(raw)

	var report sanitizer.Report
	switch opts.stage {
	case "sanitize":
		report.HTML, report.Rejected = sanitizer.SanitizeReport(input)
	case "balance":
		report.HTML, report.Orphans = sanitizer.BalanceReport(input)
	case "filter":
		report = sanitizer.Inspect(input)
		if opts.ugc {
			report.HTML = sanitizer.NewChain(utils.UGCPass).Run(report.HTML)
		}
	default:
		return fmt.Errorf("unknown stage %q", opts.stage)
	}

	if _, err := io.WriteString(stdout, report.HTML); err != nil {
		return err
	}
	if opts.report {
		enc := json.NewEncoder(stderr)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return nil
}
