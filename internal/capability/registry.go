package capability

import "sort"

// Registry holds the built-in capability specs and resolves the short
// legacy aliases (ism, bsp, pds, prs) that older clients still send.
type Registry struct {
	specs   map[string]Spec
	order   []string
	aliases map[string]string
}

// NewRegistry builds the registry with the four built-in capabilities.
func NewRegistry() *Registry {
	r := &Registry{
		specs: make(map[string]Spec),
		aliases: map[string]string{
			"ism": InvestorSummary,
			"bsp": BaseShelfProspectus,
			"pds": ProductSupplement,
			"prs": PricingSupplement,
		},
	}
	for _, s := range builtinSpecs() {
		r.specs[s.ID] = s
		r.order = append(r.order, s.ID)
	}
	return r
}

// Resolve maps an ID or legacy alias to its canonical capability ID.
func (r *Registry) Resolve(id string) (string, bool) {
	if canonical, ok := r.aliases[id]; ok {
		id = canonical
	}
	_, ok := r.specs[id]
	return id, ok
}

// Get returns the spec for an ID or legacy alias.
func (r *Registry) Get(id string) (Spec, bool) {
	canonical, ok := r.Resolve(id)
	if !ok {
		return Spec{}, false
	}
	return r.specs[canonical], true
}

// Aliases returns the legacy aliases that resolve to the canonical ID,
// sorted for stable output.
func (r *Registry) Aliases(canonical string) []string {
	var out []string
	for alias, target := range r.aliases {
		if target == canonical {
			out = append(out, alias)
		}
	}
	sort.Strings(out)
	return out
}

// All returns every spec in registration order.
func (r *Registry) All() []Spec {
	out := make([]Spec, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.specs[id])
	}
	return out
}

// RequiredUnion returns the union of all capabilities' required fields.
// The interpreter uses it as the denominator for confidence scoring.
func (r *Registry) RequiredUnion() []string {
	seen := make(map[string]bool)
	var out []string
	for _, id := range r.order {
		for _, name := range r.specs[id].Required {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

func builtinSpecs() []Spec {
	return []Spec{
		{
			ID:          InvestorSummary,
			Name:        "Investor Summary",
			Description: "Investor-friendly summary document for a structured product",
			Keywords: map[string]float64{
				"investor summary":    2.0,
				"investor friendly":   2.0,
				"summary document":    2.0,
				"investment summary":  2.0,
				"investor guide":      2.0,
				"product summary":     2.0,
				"product overview":    2.0,
				"investment overview": 2.0,
				"retail investor":     1.0,
				"autocallable":        1.0,
				"structured note":     1.0,
			},
			Required: []string{
				"issuer", "product_name", "underlying_asset", "currency",
				"principal_amount", "product_type", "regulatory_jurisdiction",
			},
			Optional: []string{
				"barrier_level", "coupon_rate", "protection_level", "autocall_barrier",
				"issue_date", "maturity_date", "target_audience", "risk_tolerance",
				"investment_objective",
			},
			Fallbacks: map[string]string{
				"product_name": "note_description",
			},
			Defaults: map[string]string{
				"issuer":                  "TBD",
				"product_name":            "Structured Note",
				"underlying_asset":        "TBD",
				"currency":                "CAD",
				"principal_amount":        "100000",
				"product_type":            "autocallable",
				"regulatory_jurisdiction": "Canada",
			},
		},
		{
			ID:          BaseShelfProspectus,
			Name:        "Base Shelf Prospectus",
			Description: "Base shelf prospectus for a structured product program",
			Keywords: map[string]float64{
				"base shelf prospectus": 2.0,
				"shelf prospectus":      2.0,
				"shelf program":         2.0,
				"program prospectus":    2.0,
				"base prospectus":       2.0,
				"shelf filing":          2.0,
				"shelf amount":          1.0,
				"prospectus":            1.0,
			},
			Required: []string{
				"issuer", "program_name", "shelf_amount", "currency",
				"regulatory_jurisdiction",
			},
			Optional: []string{
				"program_description", "shelf_period", "filing_date", "effective_date",
			},
			Fallbacks: map[string]string{
				"program_name": "product_name",
			},
			Defaults: map[string]string{
				"issuer":                  "TBD",
				"program_name":            "Structured Notes Program",
				"shelf_amount":            "1000000000",
				"currency":                "CAD",
				"regulatory_jurisdiction": "Canada",
			},
		},
		{
			ID:          ProductSupplement,
			Name:        "Product Supplement",
			Description: "Product supplement for a specific note offering",
			Keywords: map[string]float64{
				"product supplement":      2.0,
				"supplemental prospectus": 2.0,
				"offering prospectus":     2.0,
				"supplemental filing":     2.0,
				"offering supplement":     2.0,
				"offering document":       1.0,
				"supplement":              1.0,
			},
			Required: []string{
				"base_prospectus_reference", "base_prospectus_date", "note_series",
				"note_description", "underlying_asset", "principal_amount",
				"issue_price", "currency", "issue_date", "maturity_date",
				"product_type", "calculation_methodology",
			},
			Optional: []string{
				"pricing_date", "barrier_level", "coupon_structure",
				"underlying_performance", "additional_terms",
			},
			Fallbacks: map[string]string{
				"note_description":     "product_name",
				"base_prospectus_date": "issue_date",
			},
			Defaults: map[string]string{
				"base_prospectus_reference": "Base Shelf Prospectus",
				"base_prospectus_date":      "TBD",
				"note_series":               "Series 1",
				"note_description":          "Structured Note",
				"underlying_asset":          "TBD",
				"principal_amount":          "1000000",
				"issue_price":               "100.0",
				"currency":                  "CAD",
				"issue_date":                "TBD",
				"maturity_date":             "TBD",
				"product_type":              "autocallable",
				"calculation_methodology":   "See supplement",
			},
		},
		{
			ID:          PricingSupplement,
			Name:        "Pricing Supplement",
			Description: "Pricing supplement with the final terms of an offering",
			Keywords: map[string]float64{
				"pricing supplement": 2.0,
				"pricing terms":      2.0,
				"pricing document":   2.0,
				"pricing sheet":      2.0,
				"final terms":        2.0,
				"term sheet":         2.0,
				"product terms":      1.0,
			},
			Required: []string{
				"base_prospectus_reference", "final_issue_price",
				"final_principal_amount", "currency", "pricing_date", "issue_date",
				"maturity_date", "settlement_date", "distribution_method",
				"minimum_denomination",
			},
			Optional: []string{
				"supplement_reference", "final_coupon_rate", "final_barrier_level",
				"underlying_initial_level", "underlying_price_at_pricing",
				"market_conditions", "volatility_at_pricing", "agent_discount",
				"estimated_value", "additional_terms",
			},
			Fallbacks: map[string]string{
				"final_principal_amount": "principal_amount",
				"pricing_date":           "issue_date",
				"settlement_date":        "issue_date",
			},
			Defaults: map[string]string{
				"base_prospectus_reference": "Base Shelf Prospectus",
				"final_issue_price":         "100.0",
				"final_principal_amount":    "1000000",
				"currency":                  "CAD",
				"pricing_date":              "TBD",
				"issue_date":                "TBD",
				"maturity_date":             "TBD",
				"settlement_date":           "TBD",
				"distribution_method":       "broker-dealer",
				"minimum_denomination":      "1000",
			},
		},
	}
}
