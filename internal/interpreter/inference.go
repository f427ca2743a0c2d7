package interpreter

import "strings"

// category is one inferable value with the cue phrases that imply it.
type category struct {
	value string
	cues  []string
}

// inferenceTable lists the context-inferable fields. Categories are
// scanned in order and the first category with a cue present in the
// text wins.
var inferenceTable = []struct {
	field      string
	categories []category
}{
	{"target_audience", []category{
		{"institutional_investors", []string{"institutional", "pension fund", "fund manager"}},
		{"accredited_investors", []string{"accredited", "sophisticated investor", "qualified investor"}},
		{"retail_investors", []string{"retail", "individual investor", "everyday investor"}},
	}},
	{"risk_tolerance", []category{
		{"low", []string{"conservative", "principal protected", "capital protection", "low risk", "risk averse"}},
		{"high", []string{"aggressive", "high risk", "speculative", "leveraged"}},
		{"medium", []string{"balanced", "moderate risk"}},
	}},
	{"investment_objective", []category{
		{"capital_preservation", []string{"preserve capital", "capital preservation", "protect capital", "principal protection"}},
		{"income", []string{"income", "yield", "regular coupons"}},
		{"growth", []string{"growth", "appreciation", "upside participation"}},
	}},
	{"regulatory_jurisdiction", []category{
		{"Canada", []string{"canada", "canadian", "ontario securities", "osc"}},
		{"US", []string{"united states", "u.s.", "sec registered", "american"}},
		{"EU", []string{"european union", "eu regulation", "mifid"}},
		{"UK", []string{"united kingdom", "uk ", "fca"}},
	}},
	{"distribution_method", []category{
		{"broker-dealer", []string{"broker", "dealer network", "syndicate"}},
		{"private_placement", []string{"private placement", "exempt distribution"}},
		{"retail", []string{"retail distribution", "retail channel"}},
	}},
}

// infer fills fields that lack a literal match by scanning the text for
// category cue phrases.
func infer(result *ExtractionResult, text string) {
	lower := strings.ToLower(text)
	for _, entry := range inferenceTable {
		if _, ok := result.Fields[entry.field]; ok {
			continue
		}
		for _, cat := range entry.categories {
			if containsAny(lower, cat.cues) {
				result.set(entry.field, cat.value, ProvenanceInferred)
				break
			}
		}
	}
}

func containsAny(lower string, cues []string) bool {
	for _, cue := range cues {
		if strings.Contains(lower, cue) {
			return true
		}
	}
	return false
}
