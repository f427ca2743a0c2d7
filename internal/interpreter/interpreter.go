package interpreter

import (
	"sort"
	"strconv"
	"strings"
)

// ambiguityPenalty is subtracted from confidence for each field where
// competing pattern families disagreed.
const ambiguityPenalty = 0.05

// Interpreter extracts structured fields from request text. It is
// stateless and safe for concurrent use.
type Interpreter struct {
	// required is the union of every capability's required fields, the
	// denominator for confidence scoring.
	required []string
}

// New creates an interpreter scoring confidence against the given
// required-field union.
func New(requiredUnion []string) *Interpreter {
	return &Interpreter{required: requiredUnion}
}

// Extract runs the three extraction layers over the text and computes
// the confidence score. Missing fields never produce an error; a field
// the layers cannot resolve is simply absent from the result.
func (in *Interpreter) Extract(text string) ExtractionResult {
	result := ExtractionResult{Fields: make(map[string]FieldValue)}

	in.extractPatterns(&result, text)
	infer(&result, text)
	applyDefaults(&result, text)

	result.Confidence = in.confidence(result)
	return result
}

// extractPatterns is the literal layer. Within a field the first
// pattern family to match wins; disagreement between families is
// recorded as an ambiguity.
func (in *Interpreter) extractPatterns(result *ExtractionResult, text string) {
	for _, fp := range textPatterns {
		value, ambiguous := firstMatch(fp, text)
		if fp.field == "currency" {
			value = strings.ToUpper(value)
			if multipleCurrencies(text) {
				ambiguous = true
			}
		}
		result.set(fp.field, value, ProvenancePattern)
		if ambiguous {
			result.Ambiguities = append(result.Ambiguities, fp.field)
		}
	}

	for _, fp := range amountPatterns {
		for _, re := range fp.families {
			m := re.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			result.set(fp.field, parseAmount(m[1], m[2]), ProvenancePattern)
			break
		}
	}

	for _, fp := range datePatterns {
		value, ambiguous := firstMatch(fp, text)
		result.set(fp.field, normalizeDate(value), ProvenancePattern)
		if ambiguous {
			result.Ambiguities = append(result.Ambiguities, fp.field)
		}
	}

	lower := strings.ToLower(text)
	for _, pt := range productTypes {
		if strings.Contains(lower, pt) {
			result.set("product_type", pt, ProvenancePattern)
			break
		}
	}

	in.resolveRelativeMaturity(result, text)
	sort.Strings(result.Ambiguities)
}

// resolveRelativeMaturity derives maturity_date from a term length when
// no explicit maturity date was given.
func (in *Interpreter) resolveRelativeMaturity(result *ExtractionResult, text string) {
	if _, ok := result.Fields["maturity_date"]; ok {
		return
	}
	if m := termFromDateRe.FindStringSubmatch(text); m != nil {
		years, _ := strconv.Atoi(m[1])
		result.set("maturity_date", addYears(normalizeDate(m[2]), years), ProvenancePattern)
		return
	}
	issueDate := result.Get("issue_date")
	if issueDate == "" {
		return
	}
	if m := termYearsRe.FindStringSubmatch(text); m != nil {
		years, _ := strconv.Atoi(m[1])
		result.set("maturity_date", addYears(issueDate, years), ProvenancePattern)
	}
}

// confidence is the fraction of the required-field union resolved by
// any layer, reduced by the ambiguity penalty.
func (in *Interpreter) confidence(result ExtractionResult) float64 {
	if len(in.required) == 0 {
		return 0
	}
	resolved := 0
	for _, name := range in.required {
		if _, ok := result.Fields[name]; ok {
			resolved++
		}
	}
	score := float64(resolved) / float64(len(in.required))
	score -= float64(len(result.Ambiguities)) * ambiguityPenalty
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}

// firstMatch returns the first family's match and whether a later
// family matched a different value.
func firstMatch(fp fieldPattern, text string) (string, bool) {
	var first string
	ambiguous := false
	for _, re := range fp.families {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		value := strings.TrimSpace(m[1])
		if value == "" {
			continue
		}
		if first == "" {
			first = value
		} else if !strings.EqualFold(canonical(first), canonical(value)) {
			ambiguous = true
		}
	}
	return first, ambiguous
}

// canonical strips trailing punctuation so "Acme Inc." and "Acme Inc"
// compare equal across pattern families.
func canonical(s string) string {
	return strings.TrimRight(s, ".,")
}

// multipleCurrencies reports whether the text names more than one
// distinct currency code.
func multipleCurrencies(text string) bool {
	matches := currencyCodeRe.FindAllString(text, -1)
	seen := make(map[string]bool)
	for _, m := range matches {
		seen[m] = true
	}
	return len(seen) > 1
}
