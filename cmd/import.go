package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkazmier/worklog/internal/hours"
	"github.com/mkazmier/worklog/internal/models"
	"github.com/mkazmier/worklog/internal/output"
	"github.com/mkazmier/worklog/internal/store"
	"github.com/mkazmier/worklog/internal/sync"
)

var importInput string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Create worklogs from a filled-in template",
	Long: `Parse a filled-in time-logging template and create one worklog per
row that has hours. Rows left blank are ignored; invalid rows are reported
and skipped. With --dry-run each issue is verified to exist but nothing is
written.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return importRun(cmd)
	},
}

func init() {
	importCmd.Flags().StringVarP(&importInput, "input", "i", "worklog.xlsx", "Template file to import")
	rootCmd.AddCommand(importCmd)
}

func importRun(cmd *cobra.Command) error {
	svc, err := getService()
	if err != nil {
		return err
	}

	entries, invalid, err := svc.PlanLog(importInput)
	if err != nil {
		return err
	}
	for _, msg := range invalid {
		ui.Warning("invalid row: %s", msg)
	}
	if len(entries) == 0 {
		ui.Info("No filled-in rows found in %s", importInput)
		return nil
	}

	ui.Info("%d worklog(s) to create from %s", len(entries), importInput)
	for _, e := range entries {
		ui.VerboseLog("%s: %s hours on %s", e.IssueKey, hours.Format(e.Hours), hours.FormatDate(e.Date))
	}

	if !dryRun && !ui.Confirm("Create %d worklog(s) in Jira?", len(entries)) {
		ui.Info("Aborted")
		return nil
	}
	ui.DryRunMsg("Validating without writing")

	results := svc.ApplyEntries(cmd.Context(), entries, dryRun)
	reportResults(results)
	saveRun(cmd, "log", importInput, results)

	created, _, failed := sync.Summarize(results)
	ui.Success("%d created, %d failed", created, failed)
	if created == 0 && failed > 0 {
		return fmt.Errorf("all %d worklog(s) failed", failed)
	}
	return nil
}

// reportResults prints one table row per attempted record.
func reportResults(results []models.SyncResult) {
	if len(results) == 0 {
		return
	}
	table := ui.Table([]string{"Issue", "Worklog", "Result", "Message"})
	for _, r := range results {
		table.Append([]string{r.IssueKey, r.WorklogID, output.ResultColor(r.Success), r.Message})
	}
	_ = table.Render()
}

// saveRun persists the outcome to the history store; history is best-effort
// and never fails the command.
func saveRun(cmd *cobra.Command, kind, input string, results []models.SyncResult) {
	s, err := getStore()
	if err != nil {
		ui.VerboseLog("history store unavailable: %v", err)
		return
	}
	run := &store.Run{Kind: kind, Input: input, DryRun: dryRun}
	if err := s.SaveRun(cmd.Context(), run, results); err != nil {
		ui.VerboseLog("record run: %v", err)
	}
}
