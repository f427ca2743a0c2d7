package generator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/finscribe/finscribe/internal/capability"
	"github.com/finscribe/finscribe/internal/llm"
)

func investorTask() capability.SubTask {
	return capability.SubTask{
		CapabilityID: capability.InvestorSummary,
		Fields: map[string]string{
			"issuer":                  "Acme Bank",
			"product_name":            "Autocallable Note Series 7",
			"underlying_asset":        "S&P 500 Index",
			"currency":                "CAD",
			"principal_amount":        "5000000",
			"product_type":            "autocallable",
			"regulatory_jurisdiction": "Canada",
			"target_audience":         "retail_investors",
			"risk_tolerance":          "medium",
			"investment_objective":    "income_and_growth",
		},
	}
}

func TestGenerateWithoutProvider(t *testing.T) {
	gens := New(capability.NewRegistry(), nil, "")
	g := gens[capability.InvestorSummary]

	doc, err := g.Generate(context.Background(), investorTask())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if doc.CapabilityID != capability.InvestorSummary {
		t.Errorf("CapabilityID = %s", doc.CapabilityID)
	}
	for _, want := range []string{"Acme Bank", "S&P 500 Index", "## Key Terms", "## Risk Considerations"} {
		if !strings.Contains(doc.Content, want) {
			t.Errorf("document missing %q", want)
		}
	}
}

func TestGenerateRejectsIncompleteTask(t *testing.T) {
	gens := New(capability.NewRegistry(), nil, "")
	g := gens[capability.InvestorSummary]

	task := investorTask()
	delete(task.Fields, "issuer")

	if _, err := g.Generate(context.Background(), task); err == nil {
		t.Fatal("expected validation error for missing issuer")
	}
}

func TestGenerateHonorsCancellation(t *testing.T) {
	gens := New(capability.NewRegistry(), nil, "")
	g := gens[capability.InvestorSummary]

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := g.Generate(ctx, investorTask()); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

type stubProvider struct {
	content string
	err     error
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &llm.Response{Content: p.content}, nil
}

func TestGenerateUsesProviderDraft(t *testing.T) {
	provider := &stubProvider{content: "# Polished draft\n\nAll terms preserved."}
	gens := New(capability.NewRegistry(), provider, "test-model")
	g := gens[capability.InvestorSummary]

	doc, err := g.Generate(context.Background(), investorTask())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if doc.Content != provider.content {
		t.Errorf("expected the provider draft to be used")
	}
}

func TestGenerateFallsBackOnProviderError(t *testing.T) {
	provider := &stubProvider{err: errors.New("rate limited")}
	gens := New(capability.NewRegistry(), provider, "test-model")
	g := gens[capability.InvestorSummary]

	doc, err := g.Generate(context.Background(), investorTask())
	if err != nil {
		t.Fatalf("Generate should fall back, got %v", err)
	}
	if !strings.Contains(doc.Content, "## Key Terms") {
		t.Error("fallback should produce the template draft")
	}
}

func TestAllCapabilitiesHaveGenerators(t *testing.T) {
	reg := capability.NewRegistry()
	gens := New(reg, nil, "")
	for _, spec := range reg.All() {
		g, ok := gens[spec.ID]
		if !ok {
			t.Errorf("no generator for %s", spec.ID)
			continue
		}
		if g.Spec().ID != spec.ID {
			t.Errorf("generator spec mismatch for %s", spec.ID)
		}
	}
}
