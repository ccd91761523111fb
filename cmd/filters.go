package cmd

import (
	"github.com/spf13/cobra"
)

var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "List your favourite Jira filters",
	Long: `List the favourite filters of the authenticated user.

Filter IDs from this list can be passed to export and summary commands
via --filter.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return filtersRun(cmd)
	},
}

func init() {
	rootCmd.AddCommand(filtersCmd)
}

func filtersRun(cmd *cobra.Command) error {
	c, err := getJira()
	if err != nil {
		return err
	}

	filters, err := c.FavouriteFilters(cmd.Context())
	if err != nil {
		return err
	}
	if len(filters) == 0 {
		ui.Info("No favourite filters found")
		return nil
	}

	table := ui.Table([]string{"ID", "Name", "JQL"})
	for _, f := range filters {
		jql := f.JQL
		if len(jql) > 70 {
			jql = jql[:67] + "..."
		}
		table.Append([]string{f.ID, f.Name, jql})
	}
	return table.Render()
}
