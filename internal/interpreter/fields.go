// Package interpreter extracts structured product fields from free-text
// document requests. Extraction runs in three ordered layers: literal
// pattern matching, context inference from keyword categories, and
// default assignment. Confidence is scored against the union of every
// capability's required fields once all layers have run.
package interpreter

// Provenance records how a field value was resolved.
type Provenance string

const (
	// ProvenancePattern marks a value matched literally in the text.
	ProvenancePattern Provenance = "pattern"
	// ProvenanceInferred marks a value inferred from keyword context.
	ProvenanceInferred Provenance = "inferred"
	// ProvenanceDefaulted marks a value filled by a global default rule.
	ProvenanceDefaulted Provenance = "defaulted"
)

// FieldValue is a resolved field with its provenance.
type FieldValue struct {
	Value      string     `json:"value"`
	Provenance Provenance `json:"provenance"`
}

// ExtractionResult holds the resolved fields and the confidence score.
// A field with no entry in Fields is absent; absence is never an error.
type ExtractionResult struct {
	Fields     map[string]FieldValue `json:"fields"`
	Confidence float64               `json:"confidence"`
	// Ambiguities lists fields where competing pattern families matched
	// different values. The first match won; each entry lowers confidence.
	Ambiguities []string `json:"ambiguities,omitempty"`
}

// Get returns the resolved value for a field, or "" if absent.
func (r ExtractionResult) Get(name string) string {
	return r.Fields[name].Value
}

// Strings flattens the result into a plain field map for routing.
func (r ExtractionResult) Strings() map[string]string {
	out := make(map[string]string, len(r.Fields))
	for name, fv := range r.Fields {
		out[name] = fv.Value
	}
	return out
}

func (r *ExtractionResult) set(name, value string, prov Provenance) {
	if value == "" {
		return
	}
	if _, ok := r.Fields[name]; ok {
		return
	}
	r.Fields[name] = FieldValue{Value: value, Provenance: prov}
}
