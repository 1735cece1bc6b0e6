package main

import (
	"os"

	"github.com/spf13/cobra"

	"jobscout/report"
	"jobscout/state"
)

func newReportCmd(opts *rootOptions) *cobra.Command {
	var only string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the recorded classification outcomes as a table.",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := report.ParseFilter(only)
			if err != nil {
				return err
			}
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			outcomes, err := state.NewJournal(cfg.State.ResultsFile, opts.logger).Read()
			if err != nil {
				return err
			}
			report.Render(os.Stdout, outcomes, filter)
			return nil
		},
	}
	cmd.Flags().StringVar(&only, "only", "", "show only bookmarked, skipped or errors")
	return cmd
}
