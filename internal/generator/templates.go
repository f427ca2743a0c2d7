package generator

import (
	"fmt"
	"strings"

	"github.com/finscribe/finscribe/internal/capability"
)

// field returns the task field or "TBD" so templates never render an
// empty cell.
func field(task capability.SubTask, name string) string {
	if v := task.Fields[name]; v != "" {
		return v
	}
	return "TBD"
}

// termsTable renders a two-column markdown table of labeled fields.
func termsTable(task capability.SubTask, rows [][2]string) string {
	var b strings.Builder
	b.WriteString("| Term | Value |\n|------|-------|\n")
	for _, row := range rows {
		fmt.Fprintf(&b, "| %s | %s |\n", row[0], field(task, row[1]))
	}
	return b.String()
}

func investorSummaryTemplate(task capability.SubTask) (string, string) {
	title := fmt.Sprintf("Investor Summary: %s", field(task, "product_name"))

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "## Overview\n\n%s offers %s, a %s note linked to %s.\n\n",
		field(task, "issuer"), field(task, "product_name"),
		field(task, "product_type"), field(task, "underlying_asset"))

	b.WriteString("## Key Terms\n\n")
	b.WriteString(termsTable(task, [][2]string{
		{"Issuer", "issuer"},
		{"Underlying asset", "underlying_asset"},
		{"Principal amount", "principal_amount"},
		{"Currency", "currency"},
		{"Product type", "product_type"},
		{"Issue date", "issue_date"},
		{"Maturity date", "maturity_date"},
	}))

	b.WriteString("\n## Who Is This For\n\n")
	fmt.Fprintf(&b, "This product is intended for %s with a %s risk tolerance seeking %s.\n\n",
		strings.ReplaceAll(field(task, "target_audience"), "_", " "),
		field(task, "risk_tolerance"),
		strings.ReplaceAll(field(task, "investment_objective"), "_", " "))

	b.WriteString("## Risk Considerations\n\n")
	if task.Fields["barrier_level"] != "" {
		fmt.Fprintf(&b, "The note carries a barrier at %s%% of the initial level. ", task.Fields["barrier_level"])
	}
	fmt.Fprintf(&b, "An investment in this note is subject to the credit risk of %s "+
		"and to the performance of %s. Investors may lose some or all of their principal.\n\n",
		field(task, "issuer"), field(task, "underlying_asset"))

	fmt.Fprintf(&b, "## Regulatory Notice\n\nThis summary is prepared for distribution in %s "+
		"and does not constitute an offer in any other jurisdiction.\n",
		field(task, "regulatory_jurisdiction"))

	return title, b.String()
}

func baseShelfProspectusTemplate(task capability.SubTask) (string, string) {
	title := fmt.Sprintf("Base Shelf Prospectus: %s", field(task, "program_name"))

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "## The Program\n\n%s establishes the %s, under which notes in an "+
		"aggregate amount of up to %s %s may be offered from time to time.\n\n",
		field(task, "issuer"), field(task, "program_name"),
		field(task, "currency"), field(task, "shelf_amount"))

	b.WriteString("## Program Terms\n\n")
	b.WriteString(termsTable(task, [][2]string{
		{"Issuer", "issuer"},
		{"Program", "program_name"},
		{"Shelf amount", "shelf_amount"},
		{"Currency", "currency"},
		{"Jurisdiction", "regulatory_jurisdiction"},
	}))

	b.WriteString("\n## Plan of Distribution\n\nNotes under the program may be sold through " +
		"one or more dealers. The specific terms of each series will be set out in a " +
		"supplement to this prospectus.\n\n")

	fmt.Fprintf(&b, "## Regulatory\n\nThis prospectus is filed under the securities "+
		"legislation of %s.\n", field(task, "regulatory_jurisdiction"))

	return title, b.String()
}

func productSupplementTemplate(task capability.SubTask) (string, string) {
	title := fmt.Sprintf("Product Supplement: %s (%s)",
		field(task, "note_description"), field(task, "note_series"))

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "## Relationship to Base Prospectus\n\nThis supplement relates to the %s "+
		"dated %s and must be read together with it.\n\n",
		field(task, "base_prospectus_reference"), field(task, "base_prospectus_date"))

	b.WriteString("## Terms of the Notes\n\n")
	b.WriteString(termsTable(task, [][2]string{
		{"Series", "note_series"},
		{"Description", "note_description"},
		{"Underlying asset", "underlying_asset"},
		{"Principal amount", "principal_amount"},
		{"Issue price", "issue_price"},
		{"Currency", "currency"},
		{"Issue date", "issue_date"},
		{"Maturity date", "maturity_date"},
		{"Product type", "product_type"},
	}))

	fmt.Fprintf(&b, "\n## Calculation Methodology\n\n%s\n\n", field(task, "calculation_methodology"))

	b.WriteString("## Additional Terms\n\n")
	if task.Fields["coupon_structure"] != "" {
		fmt.Fprintf(&b, "Coupon structure: %s.\n", task.Fields["coupon_structure"])
	}
	if task.Fields["barrier_level"] != "" {
		fmt.Fprintf(&b, "Barrier level: %s%% of the initial level.\n", task.Fields["barrier_level"])
	}
	b.WriteString("Capitalized terms not defined here have the meanings given in the base prospectus.\n")

	return title, b.String()
}

func pricingSupplementTemplate(task capability.SubTask) (string, string) {
	title := fmt.Sprintf("Pricing Supplement (%s)", field(task, "pricing_date"))

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "## Final Terms\n\nThis pricing supplement sets out the final terms of the "+
		"offering under the %s.\n\n", field(task, "base_prospectus_reference"))

	b.WriteString(termsTable(task, [][2]string{
		{"Final issue price", "final_issue_price"},
		{"Final principal amount", "final_principal_amount"},
		{"Currency", "currency"},
		{"Pricing date", "pricing_date"},
		{"Issue date", "issue_date"},
		{"Maturity date", "maturity_date"},
		{"Settlement date", "settlement_date"},
		{"Distribution method", "distribution_method"},
		{"Minimum denomination", "minimum_denomination"},
	}))

	b.WriteString("\n## Pricing Detail\n\n")
	if task.Fields["final_coupon_rate"] != "" {
		fmt.Fprintf(&b, "Final coupon rate: %s%%.\n", task.Fields["final_coupon_rate"])
	}
	if task.Fields["final_barrier_level"] != "" {
		fmt.Fprintf(&b, "Final barrier level: %s%%.\n", task.Fields["final_barrier_level"])
	}
	if task.Fields["estimated_value"] != "" {
		fmt.Fprintf(&b, "Estimated value per note: %s.\n", task.Fields["estimated_value"])
	}
	b.WriteString("\nSettlement occurs on the settlement date against payment in the stated currency.\n")

	return title, b.String()
}
