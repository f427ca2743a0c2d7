package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session <session-id>",
	Short: "Show a session's documents, feedback, and audit trail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		eng, cleanup, err := buildEngine(cfg, nil)
		if err != nil {
			return err
		}
		defer cleanup()

		sess, err := eng.GetSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Session %s\n", sess.ID)
		fmt.Printf("State:   %s\n", sess.State)
		fmt.Printf("Request: %s\n", sess.RequestText)

		fmt.Printf("\nDocuments (%d versions):\n", len(sess.Documents))
		for _, doc := range sess.Documents {
			fmt.Printf("  %-25s v%d  %s\n", doc.CapabilityID, doc.Version, doc.Title)
		}

		if len(sess.Feedback) > 0 {
			fmt.Println("\nFeedback:")
			for _, f := range sess.Feedback {
				fmt.Printf("  %-14s %s\n", f.Type, f.Comment)
			}
		}

		fmt.Println("\nAudit trail:")
		for _, rec := range sess.Audit {
			fmt.Printf("  %2d. %-17s -> %-17s %s\n", rec.Seq, rec.FromState, rec.ToState, rec.Event)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
}
