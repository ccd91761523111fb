package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Export or import a worklog summary (shorthand for 'summary')",
	Long: `Convenience wrapper around 'summary': exports when --filter or
--jql is given, imports when --input is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if summaryInput == "" && summaryFilters == "" && summaryJQL == "" {
			return fmt.Errorf("either --filter/--jql (export) or --input (import) is required")
		}
		return summaryRun(cmd)
	},
}

func init() {
	syncCmd.Flags().AddFlagSet(summaryCmd.Flags())
	rootCmd.AddCommand(syncCmd)
}
