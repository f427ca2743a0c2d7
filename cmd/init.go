package cmd

import (
	"github.com/spf13/cobra"

	"github.com/finscribe/finscribe/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize finscribe configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure finscribe and generates a .finscribe.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
