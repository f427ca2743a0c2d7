// Package router selects the generation capabilities a request targets
// and decomposes it into per-capability sub-tasks.
package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/finscribe/finscribe/internal/capability"
	"github.com/finscribe/finscribe/internal/interpreter"
)

// Selection is one capability chosen for a request, with the sub-task
// its generator will run.
type Selection struct {
	CapabilityID string             `json:"capability_id"`
	Score        float64            `json:"score"`
	Task         capability.SubTask `json:"task"`
}

// Clarification is returned instead of selections when no capability
// clears the inclusion threshold. No session is created for it.
type Clarification struct {
	Message       string   `json:"message"`
	MissingFields []string `json:"missing_fields"`
	// Questions holds one suggested follow-up per missing field, in the
	// same order as MissingFields.
	Questions []string `json:"questions"`
}

// Decision is the routing outcome: either a ranked selection list or a
// clarification request, never both.
type Decision struct {
	Selections    []Selection    `json:"selections,omitempty"`
	Clarification *Clarification `json:"clarification,omitempty"`
	Confidence    float64        `json:"confidence"`
	Reasoning     string         `json:"reasoning"`
}

// Router matches request text against capability keyword tables. It is
// stateless and safe for concurrent use.
type Router struct {
	registry  *capability.Registry
	threshold float64
}

// New creates a router over the registry with the given inclusion
// threshold.
func New(registry *capability.Registry, threshold float64) *Router {
	return &Router{registry: registry, threshold: threshold}
}

// Route scores every capability against the text and builds a sub-task
// for each capability whose score exceeds the threshold, ranked
// descending. Each sub-task carries the complete field map for its
// capability (extracted values plus capability defaults) and the list
// of required fields that defaulting had to fill.
func (r *Router) Route(text string, extraction interpreter.ExtractionResult) Decision {
	fields := extraction.Strings()

	var selections []Selection
	for _, spec := range r.registry.All() {
		score := spec.Score(text)
		if score <= r.threshold {
			continue
		}
		taskFields, missing := spec.CompleteFields(fields)
		selections = append(selections, Selection{
			CapabilityID: spec.ID,
			Score:        score,
			Task: capability.SubTask{
				CapabilityID: spec.ID,
				Fields:       taskFields,
				Missing:      missing,
				RequestText:  text,
			},
		})
	}

	if len(selections) == 0 {
		return Decision{
			Clarification: r.clarification(fields),
			Confidence:    extraction.Confidence,
			Reasoning:     "no capability matched the request above the inclusion threshold",
		}
	}

	// Rank descending by score; registration order breaks ties.
	sort.SliceStable(selections, func(i, j int) bool {
		return selections[i].Score > selections[j].Score
	})

	ids := make([]string, len(selections))
	for i, sel := range selections {
		ids[i] = fmt.Sprintf("%s (%.2f)", sel.CapabilityID, sel.Score)
	}
	return Decision{
		Selections: selections,
		Confidence: extraction.Confidence,
		Reasoning:  "selected by keyword relevance: " + strings.Join(ids, ", "),
	}
}

// clarification builds the missing-field union across every capability
// so the caller can ask one complete follow-up question.
func (r *Router) clarification(fields map[string]string) *Clarification {
	seen := make(map[string]bool)
	var missing []string
	for _, spec := range r.registry.All() {
		for _, name := range spec.Required {
			if fields[name] == "" && !seen[name] {
				seen[name] = true
				missing = append(missing, name)
			}
		}
	}
	sort.Strings(missing)
	questions := make([]string, len(missing))
	for i, name := range missing {
		questions[i] = fmt.Sprintf("What is the %s?", strings.ReplaceAll(name, "_", " "))
	}
	return &Clarification{
		Message: "Could not determine which document type you need. " +
			"Please name the document (investor summary, base shelf prospectus, " +
			"product supplement, or pricing supplement) and provide the key terms.",
		MissingFields: missing,
		Questions:     questions,
	}
}
