// Package generator implements the built-in document generators. Each
// generator drafts a markdown document from its sub-task fields, using
// the configured LLM provider when one is available and falling back to
// a deterministic template when it is not.
package generator

import (
	"context"
	"fmt"

	"github.com/finscribe/finscribe/internal/capability"
	"github.com/finscribe/finscribe/internal/llm"
)

// templateFunc renders the deterministic document for one capability.
type templateFunc func(task capability.SubTask) (title, body string)

type docGenerator struct {
	spec     capability.Spec
	provider llm.Provider
	model    string
	render   templateFunc
}

// New builds the generator set for every registered capability, keyed
// by canonical capability ID. provider may be nil; generators then
// produce template output only.
func New(reg *capability.Registry, provider llm.Provider, model string) map[string]capability.Generator {
	templates := map[string]templateFunc{
		capability.InvestorSummary:     investorSummaryTemplate,
		capability.BaseShelfProspectus: baseShelfProspectusTemplate,
		capability.ProductSupplement:   productSupplementTemplate,
		capability.PricingSupplement:   pricingSupplementTemplate,
	}
	out := make(map[string]capability.Generator, len(templates))
	for id, tmpl := range templates {
		spec, ok := reg.Get(id)
		if !ok {
			continue
		}
		out[id] = &docGenerator{spec: spec, provider: provider, model: model, render: tmpl}
	}
	return out
}

func (g *docGenerator) Spec() capability.Spec {
	return g.spec
}

func (g *docGenerator) Validate(task capability.SubTask) error {
	return capability.ValidateFields(g.spec, task)
}

// Generate drafts the document. Validation failures and context errors
// are returned to the caller; an LLM failure degrades to the template
// draft instead of failing the capability.
func (g *docGenerator) Generate(ctx context.Context, task capability.SubTask) (*capability.Document, error) {
	if err := g.Validate(task); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	title, body := g.render(task)

	if g.provider != nil {
		drafted, err := g.draft(ctx, task, body)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Keep the template draft when the provider misbehaves.
		} else if drafted != "" {
			body = drafted
		}
	}

	return &capability.Document{
		CapabilityID: g.spec.ID,
		Title:        title,
		Content:      body,
		Fields:       task.Fields,
	}, nil
}

// draft asks the LLM to expand the template skeleton into prose while
// keeping every stated term verbatim.
func (g *docGenerator) draft(ctx context.Context, task capability.SubTask, skeleton string) (string, error) {
	prompt := fmt.Sprintf(`You are drafting a %s for a structured product.

The document skeleton below already contains every confirmed term. Expand it
into a complete, professional markdown document. Keep every stated value
exactly as written, keep the section structure, and do not invent terms that
are not present. Placeholder values marked TBD must remain TBD.

Original request:
%s

Skeleton:
%s`, g.spec.Name, task.RequestText, skeleton)

	resp, err := g.provider.Complete(ctx, llm.Request{
		Model: g.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "You are a financial documentation specialist. Be precise and conservative; never fabricate product terms."},
			{Role: llm.RoleUser, Content: prompt},
		},
		MaxTokens:   4096,
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("%s draft failed: %w", g.spec.ID, err)
	}
	return resp.Content, nil
}
