package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/finscribe/finscribe/internal/engine"
	"github.com/finscribe/finscribe/internal/progress"
)

var requestOutDir string

// clarificationRounds bounds how often a vague request is re-asked
// before giving up.
const clarificationRounds = 3

var requestCmd = &cobra.Command{
	Use:   "request [text]",
	Short: "Generate documents from a natural-language request",
	Long: `Interprets a natural-language request, selects the matching document
capabilities, generates the documents, and opens a feedback session.
When the request is too vague, finscribe asks a follow-up question.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.TrimSpace(strings.Join(args, " "))
		if text == "" {
			prompt := promptui.Prompt{Label: "Describe the documents you need"}
			var err error
			if text, err = prompt.Run(); err != nil {
				return fmt.Errorf("reading request: %w", err)
			}
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		reporter := progress.NewReporter()
		var start sync.Once
		eng, cleanup, err := buildEngine(cfg, func(done, total int, capabilityID string) {
			start.Do(func() { reporter.Start(total) })
			reporter.Update(done, capabilityID)
		})
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()
		result, err := runWithClarifications(ctx, eng, text)
		if err != nil {
			return err
		}
		reporter.Finish()

		if result.SessionID == "" {
			return fmt.Errorf("document generation failed for every selected capability")
		}

		fmt.Printf("\nSession %s created (confidence %.2f)\n",
			result.SessionID, result.Decision.Confidence)
		for _, r := range result.Aggregated.Results {
			if !r.OK() {
				fmt.Printf("  %-25s FAILED: %v\n", r.CapabilityID, r.Error)
				continue
			}
			fmt.Printf("  %-25s %s\n", r.CapabilityID, r.Document.Title)
		}

		if requestOutDir != "" {
			if err := writeDocuments(ctx, eng, result.SessionID, requestOutDir); err != nil {
				return err
			}
			fmt.Printf("\nDocuments written to %s\n", requestOutDir)
		}
		fmt.Printf("\nReview and give feedback with `finscribe feedback %s`.\n", result.SessionID)
		return nil
	},
}

// runWithClarifications retries a vague request with user-supplied
// detail appended, up to clarificationRounds times.
func runWithClarifications(ctx context.Context, eng *engine.Engine, text string) (*engine.ProcessResult, error) {
	for round := 0; ; round++ {
		result, err := eng.ProcessRequest(ctx, text)
		if err != nil {
			return nil, err
		}
		c := result.Clarification()
		if c == nil {
			return result, nil
		}
		if round == clarificationRounds-1 {
			return nil, fmt.Errorf("request is still too vague: %s", c.Message)
		}

		fmt.Println(c.Message)
		if len(c.MissingFields) > 0 {
			fmt.Printf("Helpful details: %s\n", strings.Join(c.MissingFields, ", "))
		}
		prompt := promptui.Prompt{Label: "Add more detail"}
		more, err := prompt.Run()
		if err != nil {
			return nil, fmt.Errorf("reading clarification: %w", err)
		}
		text = text + " " + more
	}
}

// writeDocuments saves the latest version of every session document as
// a markdown file.
func writeDocuments(ctx context.Context, eng *engine.Engine, sessionID, dir string) error {
	sess, err := eng.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	for capabilityID, doc := range sess.LatestVersions() {
		path := filepath.Join(dir, capabilityID+".md")
		if err := os.WriteFile(path, []byte(doc.Content), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return nil
}

func init() {
	requestCmd.Flags().StringVar(&requestOutDir, "out", "", "Directory to write the generated markdown files")
	rootCmd.AddCommand(requestCmd)
}
