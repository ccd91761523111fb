package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mkazmier/worklog/internal/jira"
	"github.com/mkazmier/worklog/internal/output"
	"github.com/mkazmier/worklog/internal/store"
	"github.com/mkazmier/worklog/internal/sync"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui     *output.UI
	logger *zap.Logger

	jiraClient   *jira.Client
	service      *sync.Service
	historyStore store.Store

	verbose bool
	dryRun  bool
)

var rootCmd = &cobra.Command{
	Use:   "worklog",
	Short: "Export, edit, and reconcile Jira worklogs through spreadsheets",
	Long: `worklog round-trips Jira time tracking through a spreadsheet.
Export issues and their worklogs to an .xlsx file, correct hours and
comments offline, then import the file to push only the changed entries
back to Jira.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would happen without making changes")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/worklog/config.yaml)")
}

func initConfig() {
	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".config", "worklog")
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("WORKLOG")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Defaults via viper.SetDefault()
	home, _ := os.UserHomeDir()
	defaultConfigDir := filepath.Join(home, ".config", "worklog")

	viper.SetDefault("state_dir", defaultConfigDir)
	viper.SetDefault("db_path", filepath.Join(defaultConfigDir, "worklog.db"))
	viper.SetDefault("jira.url", "")
	viper.SetDefault("jira.email", "")
	viper.SetDefault("jira.api_token", "")

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
	ui.DryRun = dryRun

	logger = zap.NewNop()
	if verbose {
		if l, err := zap.NewDevelopment(); err == nil {
			logger = l
		}
	}

	// Jira client and store are initialized lazily so config/version
	// commands run without credentials or a db.
}

// getJira returns the shared Jira client, initializing it on first call.
func getJira() (*jira.Client, error) {
	if jiraClient != nil {
		return jiraClient, nil
	}

	c, err := jira.NewClient(jira.Config{
		URL:      viper.GetString("jira.url"),
		Email:    viper.GetString("jira.email"),
		APIToken: viper.GetString("jira.api_token"),
	}, logger)
	if err != nil {
		return nil, err
	}

	jiraClient = c
	return jiraClient, nil
}

// getService returns the shared orchestrator, initializing it on first call.
func getService() (*sync.Service, error) {
	if service != nil {
		return service, nil
	}

	c, err := getJira()
	if err != nil {
		return nil, err
	}

	service = sync.NewService(c, logger)
	return service, nil
}

// getStore returns the run-history store, initializing it on first call.
func getStore() (store.Store, error) {
	if historyStore != nil {
		return historyStore, nil
	}

	dbPath := viper.GetString("db_path")
	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := s.Migrate(rootCmd.Context()); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	historyStore = s
	return historyStore, nil
}
