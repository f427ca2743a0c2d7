package interpreter

import (
	"testing"

	"github.com/finscribe/finscribe/internal/capability"
)

func newTestInterpreter() *Interpreter {
	return New(capability.NewRegistry().RequiredUnion())
}

func TestExtractInvestorSummaryRequest(t *testing.T) {
	in := newTestInterpreter()
	text := "Create an investor summary for an autocallable note issued by " +
		"Example Financial Services Inc. linked to the S&P 500 Index, " +
		"principal amount of $5 million CAD, issue date January 15, 2024, " +
		"with a 3-year term, for retail investors."

	result := in.Extract(text)

	want := map[string]string{
		"issuer":           "Example Financial Services Inc.",
		"underlying_asset": "S&P 500 Index",
		"currency":         "CAD",
		"principal_amount": "5000000",
		"product_type":     "autocallable",
		"issue_date":       "2024-01-15",
		"maturity_date":    "2027-01-15",
	}
	for field, value := range want {
		if got := result.Get(field); got != value {
			t.Errorf("%s = %q, want %q", field, got, value)
		}
		if p := result.Fields[field].Provenance; p != ProvenancePattern {
			t.Errorf("%s provenance = %s, want %s", field, p, ProvenancePattern)
		}
	}

	if got := result.Get("target_audience"); got != "retail_investors" {
		t.Errorf("target_audience = %q, want retail_investors", got)
	}
	if p := result.Fields["target_audience"].Provenance; p != ProvenanceInferred {
		t.Errorf("target_audience provenance = %s, want %s", p, ProvenanceInferred)
	}

	if got := result.Get("regulatory_jurisdiction"); got != "Canada" {
		t.Errorf("regulatory_jurisdiction = %q, want Canada", got)
	}
	if p := result.Fields["regulatory_jurisdiction"].Provenance; p != ProvenanceDefaulted {
		t.Errorf("regulatory_jurisdiction provenance = %s, want %s", p, ProvenanceDefaulted)
	}

	if result.Confidence <= 0 || result.Confidence > 1 {
		t.Errorf("confidence = %f, want in (0, 1]", result.Confidence)
	}
}

func TestExtractTersePhrasingResolvesIdentityFields(t *testing.T) {
	in := newTestInterpreter()
	result := in.Extract("Generate an investor summary for Example Financial Services Inc., " +
		"issued 2024-01-15, 3 year term")

	want := map[string]string{
		"issuer":        "Example Financial Services Inc.",
		"issue_date":    "2024-01-15",
		"maturity_date": "2027-01-15",
	}
	for field, value := range want {
		if got := result.Get(field); got != value {
			t.Errorf("%s = %q, want %q", field, got, value)
		}
		if p := result.Fields[field].Provenance; p != ProvenancePattern {
			t.Errorf("%s provenance = %s, want %s", field, p, ProvenancePattern)
		}
	}

	if got := result.Get("target_audience"); got != "retail_investors" {
		t.Errorf("target_audience = %q, want retail_investors", got)
	}
	if p := result.Fields["target_audience"].Provenance; p != ProvenanceDefaulted {
		t.Errorf("target_audience provenance = %s, want %s", p, ProvenanceDefaulted)
	}
}

func TestExtractAbsentFieldsStayAbsent(t *testing.T) {
	in := newTestInterpreter()
	result := in.Extract("Prepare a pricing supplement.")

	// Identity fields have no global default.
	for _, field := range []string{"issuer", "maturity_date", "principal_amount", "note_series"} {
		if _, ok := result.Fields[field]; ok {
			t.Errorf("field %s should be absent, got %q", field, result.Get(field))
		}
	}
	// Ambient fields always resolve through defaults.
	for _, field := range []string{"currency", "product_type", "regulatory_jurisdiction"} {
		if _, ok := result.Fields[field]; !ok {
			t.Errorf("field %s should be defaulted", field)
		}
	}
}

func TestConservativeProductDefaultsLowRisk(t *testing.T) {
	in := newTestInterpreter()
	result := in.Extract("Draft a summary for our principal protected deposit note.")

	if got := result.Get("risk_tolerance"); got != "low" {
		t.Errorf("risk_tolerance = %q, want low", got)
	}
	if got := result.Get("investment_objective"); got != "capital_preservation" {
		t.Errorf("investment_objective = %q, want capital_preservation", got)
	}

	result = in.Extract("Draft a summary for a leveraged growth note.")
	if got := result.Get("risk_tolerance"); got != "high" {
		t.Errorf("risk_tolerance = %q, want high (inferred from aggressive language)", got)
	}
}

func TestRelativeMaturityFromAnchorDate(t *testing.T) {
	in := newTestInterpreter()
	result := in.Extract("The note matures 5 years from 2024-03-01.")

	if got := result.Get("maturity_date"); got != "2029-03-01" {
		t.Errorf("maturity_date = %q, want 2029-03-01", got)
	}
}

func TestCurrencyAmbiguityLowersConfidence(t *testing.T) {
	in := newTestInterpreter()
	clean := in.Extract("A note issued by Acme Bank, principal amount of $1 million USD.")
	mixed := in.Extract("A note issued by Acme Bank, principal amount of $1 million USD, settled in EUR.")

	found := false
	for _, a := range mixed.Ambiguities {
		if a == "currency" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected currency ambiguity, got %v", mixed.Ambiguities)
	}
	if mixed.Confidence >= clean.Confidence {
		t.Errorf("ambiguous confidence %f should be below clean confidence %f",
			mixed.Confidence, clean.Confidence)
	}
}

func TestNormalizeDate(t *testing.T) {
	cases := map[string]string{
		"2024-01-15":       "2024-01-15",
		"January 15, 2024": "2024-01-15",
		"Jan 15, 2024":     "2024-01-15",
		"01/15/2024":       "2024-01-15",
		"1/15/2024":        "2024-01-15",
		"someday soon":     "someday soon",
	}
	for in, want := range cases {
		if got := normalizeDate(in); got != want {
			t.Errorf("normalizeDate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestConfidenceRecomputedPerInput(t *testing.T) {
	in := newTestInterpreter()
	rich := in.Extract("An autocallable note issued by Acme Bank, principal amount of " +
		"$2 million CAD, issue date 2024-06-01, maturity date 2027-06-01, Series A-1.")
	sparse := in.Extract("Please make a document.")

	if rich.Confidence <= sparse.Confidence {
		t.Errorf("rich request confidence %f should exceed sparse %f",
			rich.Confidence, sparse.Confidence)
	}
}
