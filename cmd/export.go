package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mkazmier/worklog/internal/sync"
)

var (
	exportFilters string
	exportJQL     string
	exportOutput  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export issues to a blank time-logging template",
	Long: `Export issues matching a saved filter or JQL query to an .xlsx
template with one empty row per issue. Fill in hours, dates, and comments,
then run 'worklog import' to create the worklogs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return exportRun(cmd)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFilters, "filter", "", "Saved filter ID(s), comma-separated; multiple filters are OR-combined")
	exportCmd.Flags().StringVar(&exportJQL, "jql", "", "Raw JQL query (ignored when --filter is set)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "worklog.xlsx", "Output file path")
	rootCmd.AddCommand(exportCmd)
}

// splitFilterIDs parses the comma-separated --filter value.
func splitFilterIDs(s string) []string {
	if s == "" {
		return nil
	}
	var ids []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, part)
		}
	}
	return ids
}

func exportRun(cmd *cobra.Command) error {
	svc, err := getService()
	if err != nil {
		return err
	}

	report, err := svc.ExportTemplate(cmd.Context(), sync.ExportOptions{
		FilterIDs: splitFilterIDs(exportFilters),
		JQL:       exportJQL,
		Output:    exportOutput,
	})
	if err != nil {
		return err
	}

	ui.VerboseLog("query: %s", report.JQL)
	ui.Success("Exported %d issues to %s", report.IssueCount, report.Output)
	ui.Info("Fill in the template and run 'worklog import --input %s'", report.Output)
	return nil
}
