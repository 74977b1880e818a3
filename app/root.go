// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "partdesk",
	Short: "partdesk is the back office of a sparepart inventory",
	Long: `partdesk is the back office of a sparepart inventory.
Access to every page and API is controlled by roles built from a fixed
catalog of module.action permissions.`,
	Args: cobra.OnlyValidArgs,
}

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./etc", "directory holding main.toml")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
