package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/finscribe/finscribe/internal/conversation"
)

var (
	feedbackType       string
	feedbackComment    string
	feedbackPatches    []string
	feedbackCapability string
	feedbackTerminal   bool
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback <session-id>",
	Short: "Submit feedback on a session",
	Long: `Submits feedback on a generation session. Content updates and
rejections trigger a revision of the targeted documents; approvals
finalize the session and propose a knowledge-base update.`,
	Args: cobra.ExactArgs(1),
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

		event := conversation.FeedbackEvent{
			Type:             conversation.FeedbackType(feedbackType),
			Comment:          feedbackComment,
			TargetCapability: feedbackCapability,
			Terminal:         feedbackTerminal,
		}
		for _, pair := range feedbackPatches {
			key, value, ok := strings.Cut(pair, "=")
			if !ok {
				return fmt.Errorf("patch %q must be field=value", pair)
			}
			if event.Patches == nil {
				event.Patches = make(map[string]string)
			}
			event.Patches[key] = value
		}

		result, err := eng.SubmitFeedback(cmd.Context(), args[0], event)
		if err != nil {
			return err
		}

		fmt.Printf("Session %s is now %s.\n", args[0], result.NewState)
		if result.Aggregated != nil {
			for _, r := range result.Aggregated.Results {
				if !r.OK() {
					fmt.Printf("  %-25s FAILED: %v\n", r.CapabilityID, r.Error)
					continue
				}
				fmt.Printf("  %-25s revised: %s\n", r.CapabilityID, r.Document.Title)
			}
		}
		if result.Proposal != nil {
			fmt.Printf("Knowledge update proposal %s was %s.\n",
				result.Proposal.ID, result.Proposal.Decision)
		}
		return nil
	},
}

func init() {
	feedbackCmd.Flags().StringVar(&feedbackType, "type", "content_update", "Feedback type: content_update, rejection, or approval")
	feedbackCmd.Flags().StringVar(&feedbackComment, "comment", "", "Free-text note carried into the revision prompt")
	feedbackCmd.Flags().StringArrayVar(&feedbackPatches, "patch", nil, "Field override as field=value (repeatable)")
	feedbackCmd.Flags().StringVar(&feedbackCapability, "capability", "", "Limit the revision to one capability (id or alias)")
	feedbackCmd.Flags().BoolVar(&feedbackTerminal, "terminal", false, "On a rejection, end the session instead of revising")
	rootCmd.AddCommand(feedbackCmd)
}
