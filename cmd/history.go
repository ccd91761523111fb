package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mkazmier/worklog/internal/output"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded import/export runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return historyListRun(cmd)
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show per-record outcomes of one run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return historyShowRun(cmd, args[0])
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs to list")
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

func historyListRun(cmd *cobra.Command) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	runs, err := s.ListRuns(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		ui.Info("No recorded runs yet")
		return nil
	}

	table := ui.Table([]string{"ID", "Kind", "Input", "Created", "Updated", "Failed", "When"})
	for _, r := range runs {
		kind := r.Kind
		if r.DryRun {
			kind += " (dry-run)"
		}
		table.Append([]string{
			r.ID,
			kind,
			r.Input,
			fmt.Sprintf("%d", r.Created),
			fmt.Sprintf("%d", r.Updated),
			fmt.Sprintf("%d", r.Failed),
			humanize.Time(r.StartedAt),
		})
	}
	return table.Render()
}

func historyShowRun(cmd *cobra.Command, id string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	run, results, err := s.GetRun(cmd.Context(), id)
	if err != nil {
		return err
	}

	ui.Info("Run %s: %s on %s (%s)", run.ID, run.Kind, run.Input, humanize.Time(run.StartedAt))
	if run.DryRun {
		ui.Info("This was a dry run; nothing was written to Jira")
	}
	if len(results) == 0 {
		ui.Info("No per-record results recorded")
		return nil
	}

	table := ui.Table([]string{"Issue", "Worklog", "Op", "Result", "Message"})
	for _, r := range results {
		table.Append([]string{r.IssueKey, r.WorklogID, r.Operation, output.ResultColor(r.Success), r.Message})
	}
	return table.Render()
}
