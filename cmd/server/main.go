package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"backoffice/internal/adapters/storage"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "backoffice",
	Short: "Admin console for the services marketplace",
	Long: `backoffice serves the operator console for the marketplace: places,
cooperators, services, service types, calendars, coupons, accounts and
schedules, edited through the marketplace REST API.

Configuration is read from a YAML file and BACKOFFICE_* environment variables.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version and database schema version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "backoffice %s (schema %d)\n", version, storage.LatestSchemaVersion())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "backoffice.yaml", "path to the YAML config file")
	rootCmd.AddCommand(serveCmd, versionCmd, hashPasswordCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
