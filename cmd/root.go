package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the autopilot application
var rootCmd = &cobra.Command{
	Use:   "autopilot",
	Short: "Personal automation for Gmail, Todoist and YNAB",
	Long: `autopilot bundles a handful of personal automations into one binary:

  - an email assistant that triages unread Gmail into four tiers
  - a Todoist daily review email that accepts commands by reply
  - a YNAB budget dashboard
  - a credit card rewards tracker over YNAB transactions
  - an MCP (Model Context Protocol) server exposing YNAB, Todoist and rewards tools

Every command is a single run; schedule the batch commands with cron or launchd.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

var (
	configPath string
	debugMode  bool
)

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "autopilot version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/autopilot/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAssistantCmd())
	rootCmd.AddCommand(newReviewCmd())
	rootCmd.AddCommand(newRepliesCmd())
	rootCmd.AddCommand(newDashboardCmd())
	rootCmd.AddCommand(newRewardsCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
