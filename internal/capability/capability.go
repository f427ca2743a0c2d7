// Package capability defines the document capabilities finscribe can
// generate: their field schemas, routing keywords, and the generator
// contract each capability implements.
package capability

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Canonical capability IDs.
const (
	InvestorSummary     = "investor_summary"
	BaseShelfProspectus = "base_shelf_prospectus"
	ProductSupplement   = "product_supplement"
	PricingSupplement   = "pricing_supplement"
)

// Spec describes a single document capability: what it produces, how a
// request is matched to it, and which fields its generator needs.
type Spec struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`

	// Keywords maps a lowercase phrase to its routing weight. Multi-word
	// phrases that unambiguously identify the capability carry a higher
	// weight than generic terms.
	Keywords map[string]float64 `json:"-"`

	// Required fields must all be present before the generator runs.
	Required []string `json:"required_fields"`
	// Optional fields enrich the document when present.
	Optional []string `json:"optional_fields"`

	// Fallbacks maps a field to another field whose value substitutes
	// for it when absent (e.g. settlement_date falls back to issue_date).
	Fallbacks map[string]string `json:"-"`
	// Defaults supplies placeholder values for required fields that are
	// neither extracted nor recoverable through a fallback.
	Defaults map[string]string `json:"-"`
}

// Score computes the keyword match score of text against the spec's
// keyword table: the sum of weights of matching phrases, normalized by
// the table size so large tables do not dominate small ones.
func (s Spec) Score(text string) float64 {
	if len(s.Keywords) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	var sum float64
	for phrase, weight := range s.Keywords {
		if strings.Contains(lower, phrase) {
			sum += weight
		}
	}
	return sum / float64(len(s.Keywords))
}

// CompleteFields builds the full field map for this capability from the
// extracted fields. It applies fallbacks, then defaults, so that every
// required field has a value on return. The second result lists required
// fields that were absent before defaulting, sorted for stable output.
func (s Spec) CompleteFields(extracted map[string]string) (map[string]string, []string) {
	fields := make(map[string]string, len(s.Required)+len(s.Optional))
	for _, name := range s.Required {
		if v, ok := extracted[name]; ok && v != "" {
			fields[name] = v
		}
	}
	for _, name := range s.Optional {
		if v, ok := extracted[name]; ok && v != "" {
			fields[name] = v
		}
	}

	var missing []string
	for _, name := range s.Required {
		if fields[name] != "" {
			continue
		}
		missing = append(missing, name)
		if src, ok := s.Fallbacks[name]; ok {
			if v := extracted[src]; v != "" {
				fields[name] = v
				continue
			}
		}
		if def, ok := s.Defaults[name]; ok {
			fields[name] = def
		}
	}
	sort.Strings(missing)
	return fields, missing
}

// SubTask is one unit of generation work: a capability plus the complete
// field map its generator will consume.
type SubTask struct {
	CapabilityID string            `json:"capability_id"`
	Fields       map[string]string `json:"fields"`
	// Missing lists required fields that were filled by defaults rather
	// than extracted from the request.
	Missing     []string `json:"missing_fields,omitempty"`
	RequestText string   `json:"-"`
}

// Document is the output of a single capability generator.
type Document struct {
	CapabilityID string            `json:"capability_id"`
	Title        string            `json:"title"`
	Content      string            `json:"content"`
	Fields       map[string]string `json:"fields"`
}

// Generator produces a document for one capability.
type Generator interface {
	// Spec returns the capability this generator implements.
	Spec() Spec
	// Validate checks that the sub-task's fields satisfy the spec.
	Validate(task SubTask) error
	// Generate produces the document. It must honor ctx cancellation.
	Generate(ctx context.Context, task SubTask) (*Document, error)
}

// ValidateFields checks that every required field of the spec is present
// and non-empty in the sub-task. Generators share this as their Validate
// implementation.
func ValidateFields(spec Spec, task SubTask) error {
	var absent []string
	for _, name := range spec.Required {
		if task.Fields[name] == "" {
			absent = append(absent, name)
		}
	}
	if len(absent) > 0 {
		sort.Strings(absent)
		return fmt.Errorf("capability %s: missing required fields: %s", spec.ID, strings.Join(absent, ", "))
	}
	return nil
}
