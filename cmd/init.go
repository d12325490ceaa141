package cmd

import (
	"github.com/spf13/cobra"

	"github.com/codegram/codegram/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize codegram configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure the preview server and demo data, and writes a .codegram.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
