package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cppla/htmlfilter/sanitizer"
)

func newRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List whitelist rules and their compiled patterns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, r := range sanitizer.DefaultWhitelist().Rules() {
				if _, err := fmt.Fprintf(w, "%s\t%s\n", r.Name, r.Pattern()); err != nil {
					return err
				}
			}
			return w.Flush()
		},
	}
}
