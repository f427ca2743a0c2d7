package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "finscribe",
	Short: "Natural-language generation of structured-note documentation",
	Long: `Finscribe turns natural-language requests into regulatory documents
for structured notes: investor summaries, base shelf prospectuses,
product supplements, and pricing supplements. Sessions track feedback,
revisions, and approvals with a full audit trail.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".finscribe.yml", "config file path")
}
