package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/aerofit-cli/internal/artifact"
)

var manifestCmd = &cobra.Command{
	Use:   "manifest [dir]",
	Short: "Show the run.json manifest of a run directory",
	Long:  "Manifest looks for run.json in dir (or the current directory) and its parents and lists the recorded artifacts.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start := ""
		if len(args) > 0 {
			start = args[0]
		}
		run, err := artifact.FindRun(start)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), run.Summary())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(manifestCmd)
}
