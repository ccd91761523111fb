package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkazmier/worklog/internal/hours"
	"github.com/mkazmier/worklog/internal/sync"
)

var (
	summaryFilters    string
	summaryJQL        string
	summaryInput      string
	summaryOutput     string
	summaryTimeRange  string
	summaryAllUsers   bool
	summaryLoggedOnly bool
	summaryHierarchy  bool
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Export or import a worklog summary for corrections",
	Long: `Round-trip existing worklogs through a spreadsheet.

With --filter or --jql, export issues and their worklogs to a summary
sheet that records the original hours and comments next to the editable
cells. Edit the sheet, then run the command again with --input: only rows
whose hours or comment differ from the recorded originals are pushed back
to Jira as full-replace updates.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return summaryRun(cmd)
	},
}

func init() {
	summaryCmd.Flags().StringVar(&summaryFilters, "filter", "", "Saved filter ID(s), comma-separated; multiple filters are OR-combined")
	summaryCmd.Flags().StringVar(&summaryJQL, "jql", "", "Raw JQL query (ignored when --filter is set)")
	summaryCmd.Flags().StringVarP(&summaryInput, "input", "i", "", "Edited summary file to import")
	summaryCmd.Flags().StringVarP(&summaryOutput, "output", "o", "worklog_summary.xlsx", "Output file path for export")
	summaryCmd.Flags().StringVar(&summaryTimeRange, "time-range", "", "Limit worklogs to a calendar month: 'current' or 'previous'")
	summaryCmd.Flags().BoolVar(&summaryAllUsers, "all-users", false, "Include worklogs from all users, not just your own")
	summaryCmd.Flags().BoolVar(&summaryLoggedOnly, "logged-only", false, "Drop issues that have no worklog entries")
	summaryCmd.Flags().BoolVar(&summaryHierarchy, "group-by-hierarchy", false, "Group issues under their Epics with numbering and indentation")
	rootCmd.AddCommand(summaryCmd)
}

func summaryRun(cmd *cobra.Command) error {
	if summaryInput != "" {
		return summaryImportRun(cmd)
	}
	return summaryExportRun(cmd)
}

func summaryExportRun(cmd *cobra.Command) error {
	svc, err := getService()
	if err != nil {
		return err
	}

	report, err := svc.ExportSummary(cmd.Context(), sync.ExportOptions{
		FilterIDs:  splitFilterIDs(summaryFilters),
		JQL:        summaryJQL,
		TimeRange:  summaryTimeRange,
		AllUsers:   summaryAllUsers,
		LoggedOnly: summaryLoggedOnly,
		Hierarchy:  summaryHierarchy,
		Output:     summaryOutput,
	})
	if err != nil {
		return err
	}

	ui.VerboseLog("query: %s", report.JQL)
	ui.Success("Exported %d issues (%d rows) to %s", report.IssueCount, report.RowCount, report.Output)
	ui.Info("Edit the sheet and run 'worklog summary --input %s' to apply corrections", report.Output)
	return nil
}

func summaryImportRun(cmd *cobra.Command) error {
	svc, err := getService()
	if err != nil {
		return err
	}

	plan, err := svc.PlanImport(summaryInput)
	if err != nil {
		return err
	}

	for _, msg := range plan.Skipped {
		ui.VerboseLog("skipped %s", msg)
	}
	for _, msg := range plan.Invalid {
		ui.Warning("invalid %s", msg)
	}

	if len(plan.Changes) == 0 {
		ui.Info("No changes detected in %s", summaryInput)
		return nil
	}

	ui.Info("%d change(s) detected:", len(plan.Changes))
	for _, c := range plan.Changes {
		ui.Info("  %s (worklog %s): %s -> %s hours", c.IssueKey, c.WorklogID,
			hours.Format(c.OriginalHours), hours.Format(c.NewHours))
		if c.NewComment != c.OriginalComment {
			ui.VerboseLog("    comment: %q -> %q", c.OriginalComment, c.NewComment)
		}
	}

	if !dryRun && !ui.Confirm("Apply %d update(s) to Jira?", len(plan.Changes)) {
		ui.Info("Aborted")
		return nil
	}
	ui.DryRunMsg("Validating without writing")

	results := svc.ApplyUpdates(cmd.Context(), plan.Changes, dryRun)
	reportResults(results)
	saveRun(cmd, "summary-import", summaryInput, results)

	_, updated, failed := sync.Summarize(results)
	ui.Success("%d updated, %d failed", updated, failed)
	if updated == 0 && failed > 0 {
		return fmt.Errorf("all %d update(s) failed", failed)
	}
	return nil
}
