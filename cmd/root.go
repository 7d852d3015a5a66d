package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cppla/htmlfilter/config"
	"github.com/cppla/htmlfilter/utils"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	serve := newServeCmd()
	cmd := &cobra.Command{
		Use:           "htmlfilter",
		Short:         "Whitelist HTML sanitizer and tag balancer",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.configPath != "" {
				if err := os.Setenv("HTMLFILTER_CONFIG", opts.configPath); err != nil {
					return err
				}
			}
			cfg := config.Load()
			return utils.InitLogger(cfg)
		},
		RunE: serve.RunE,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config json path (overrides HTMLFILTER_CONFIG)")
	cmd.AddCommand(
		serve,
		newFilterCmd(),
		newRulesCmd(),
		newHashPasswordCmd(),
		newTokenCmd(),
	)
	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = os.Stderr.WriteString("htmlfilter: " + err.Error() + "\n")
		return 1
	}
	_ = utils.Logger.Sync()
	return 0
}
