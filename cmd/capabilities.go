package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/finscribe/finscribe/internal/capability"
)

var capabilitiesCmd = &cobra.Command{
	Use:   "capabilities",
	Short: "List the document capabilities finscribe can generate",
	Run: func(cmd *cobra.Command, args []string) {
		reg := capability.NewRegistry()
		for _, spec := range reg.All() {
			fmt.Printf("%s (%s)\n", spec.Name, spec.ID)
			fmt.Printf("  aliases:  %s\n", strings.Join(reg.Aliases(spec.ID), ", "))
			fmt.Printf("  required: %s\n", strings.Join(spec.Required, ", "))
			if len(spec.Optional) > 0 {
				fmt.Printf("  optional: %s\n", strings.Join(spec.Optional, ", "))
			}
			fmt.Println()
		}
	},
}

func init() {
	rootCmd.AddCommand(capabilitiesCmd)
}
