package interpreter

import "strings"

// globalDefaults fill fields that are safe to assume for any request.
// Identity fields (issuer, dates, amounts, references) are never
// defaulted here; capability-level defaults handle those when a
// sub-task is built.
var globalDefaults = map[string]string{
	"currency":                "CAD",
	"target_audience":         "retail_investors",
	"regulatory_jurisdiction": "Canada",
	"distribution_method":     "retail",
	"product_type":            "autocallable",
}

// conservativeCues mark a product as capital-protection oriented, which
// shifts the risk-tolerance default from medium to low.
var conservativeCues = []string{
	"protected", "guaranteed", "conservative", "capital preservation",
	"principal protection",
}

// applyDefaults runs the third extraction layer. Defaults may depend on
// already-resolved fields: a conservative-sounding product defaults
// risk tolerance to low, and a low risk tolerance defaults the
// objective to capital preservation.
func applyDefaults(result *ExtractionResult, text string) {
	for name, value := range globalDefaults {
		result.set(name, value, ProvenanceDefaulted)
	}

	if _, ok := result.Fields["risk_tolerance"]; !ok {
		probe := strings.ToLower(result.Get("product_name") + " " + text)
		if containsAny(probe, conservativeCues) {
			result.set("risk_tolerance", "low", ProvenanceDefaulted)
		} else {
			result.set("risk_tolerance", "medium", ProvenanceDefaulted)
		}
	}

	if _, ok := result.Fields["investment_objective"]; !ok {
		if result.Get("risk_tolerance") == "low" {
			result.set("investment_objective", "capital_preservation", ProvenanceDefaulted)
		} else {
			result.set("investment_objective", "income_and_growth", ProvenanceDefaulted)
		}
	}
}
