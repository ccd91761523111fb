package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Verify the Jira connection and credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		return testRun(cmd)
	},
}

func init() {
	rootCmd.AddCommand(testCmd)
}

func testRun(cmd *cobra.Command) error {
	c, err := getJira()
	if err != nil {
		return err
	}

	ui.Info("Connecting to %s", viper.GetString("jira.url"))
	me, err := c.Self(cmd.Context())
	if err != nil {
		return err
	}

	ui.Success("Authenticated as %s", me.DisplayName)
	if me.Email != "" {
		ui.VerboseLog("email: %s", me.Email)
	}
	if me.AccountID != "" {
		ui.VerboseLog("account ID: %s", me.AccountID)
	}
	return nil
}
