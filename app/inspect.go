package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/partdesk/partdesk/internal/auth"
	"github.com/partdesk/partdesk/internal/config"
)

func init() { //nolint: gochecknoinits
	configCmd.Flags().BoolVar(&configJSON, "json", false, "print JSON instead of TOML")

	rootCmd.AddCommand(permissionsCmd, configCmd)
}

var (
	configJSON bool

	permissionsCmd = &cobra.Command{
		Use:   "permissions",
		Short: "Print the permission catalog and the role templates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := auth.VerifyRegistry(); err != nil {
				return err //nolint:wrapcheck
			}

			out := cmd.OutOrStdout()

			byModule := make(map[string][]string)
			for _, k := range auth.AllKeys() {
				byModule[k.Module()] = append(byModule[k.Module()], k.Action())
			}

			fmt.Fprintln(out, "Modules:")

			for _, m := range auth.Modules() {
				fmt.Fprintf(out, "  %-12s %s\n", m, strings.Join(byModule[m], " "))
			}

			fmt.Fprintln(out, "\nTemplates:")

			templates := auth.Templates()
			for _, name := range auth.TemplateNames() {
				fmt.Fprintf(out, "  %-14s %d keys\n", name, len(templates[name]))
			}

			return nil
		},
	}

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration with secrets redacted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := config.ReadConfig(configPath)
			if err != nil {
				return err //nolint:wrapcheck
			}

			dump := config.DumpConfig
			if configJSON {
				dump = config.DumpConfigJSON
			}

			s, err := dump(&c)
			if err != nil {
				return err //nolint:wrapcheck
			}

			fmt.Fprint(cmd.OutOrStdout(), s)

			return nil
		},
	}
)
