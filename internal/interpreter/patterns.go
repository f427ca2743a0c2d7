package interpreter

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// dateAlt matches the three date shapes requests use: ISO, long form
// ("January 15, 2024"), and slash or dash numerics.
const dateAlt = `((?:\d{4}-\d{2}-\d{2})|(?:[A-Za-z]+\s+\d{1,2},\s*\d{4})|(?:\d{1,2}[/-]\d{1,2}[/-]\d{2,4}))`

// currencyCodeRe matches uppercase ISO currency codes only; lowercase
// words like "cad" are too noisy to trust.
var currencyCodeRe = regexp.MustCompile(`\b(USD|EUR|GBP|CAD|AUD|JPY|CHF)\b`)

// fieldPattern is an ordered list of pattern families for one field.
// The first family with a match wins; later families are consulted only
// to flag ambiguity.
type fieldPattern struct {
	field    string
	families []*regexp.Regexp
}

// textPatterns capture a field value directly from submatch 1.
var textPatterns = []fieldPattern{
	{"issuer", []*regexp.Regexp{
		regexp.MustCompile(`(?:issued by|offered by)\s+([A-Z][A-Za-z0-9&.,' -]*?(?:Inc\.|Corp\.|Incorporated|Corporation|Ltd\.?|Limited|LLC|plc|Bank|Company|Group|Trust))`),
		regexp.MustCompile(`(?:issued by|offered by)\s+([A-Z][A-Za-z0-9&.,' -]+?)(?:\s+(?:on|with|for|under|in)\b|[,.]|$)`),
		regexp.MustCompile(`\b(?:for|by|from)\s+([A-Z][A-Za-z0-9&.,' -]*?(?:Inc\.|Corp\.|Incorporated|Corporation|Ltd\.?|Limited|LLC|plc|Bank|Company|Group|Trust))`),
	}},
	{"product_name", []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:product|note|program|offering)\s+(?:named|called|titled)\s+"([^"]+)"`),
		regexp.MustCompile(`"([^"]+)"\s+(?:notes?|program|offering)`),
		regexp.MustCompile(`(?i)(?:product|note|security|program|offering)\s+(?:name|title)\s*[:\-]\s*([A-Za-z0-9&.,' -]+?)(?:\s+(?:on|with|for)\b|[,.\n]|$)`),
	}},
	{"underlying_asset", []*regexp.Regexp{
		regexp.MustCompile(`(?:linked to|tracking|referencing|on)\s+(?:the\s+)?([A-Z][A-Za-z0-9&./' -]*?(?:[Ii]ndex|ETF|[Ss]hares|[Ss]tock))`),
		regexp.MustCompile(`(?i)(?:underlying(?:\s+asset)?|reference asset)\s*[:\-]\s*([A-Za-z0-9&./' -]+?)(?:[,.\n]|$)`),
	}},
	{"currency", []*regexp.Regexp{
		currencyCodeRe,
		regexp.MustCompile(`(?i)(?:currency|denominated in)\s*[:\-]?\s*([A-Za-z]{3})\b`),
	}},
	{"note_series", []*regexp.Regexp{
		regexp.MustCompile(`\bSeries\s*[:\-]?\s*([A-Z0-9][A-Za-z0-9\-]*)`),
	}},
	{"base_prospectus_reference", []*regexp.Regexp{
		regexp.MustCompile(`(?i)base\s+(?:shelf\s+)?prospectus(?:\s+reference)?\s*[:\-]\s*([A-Za-z0-9&().,' -]+?)(?:[,.\n]|$)`),
	}},
	{"calculation_methodology", []*regexp.Regexp{
		regexp.MustCompile(`(?i)calculation\s+methodology\s*[:\-]?\s*([^\n,.]+)`),
	}},
	{"distribution_method", []*regexp.Regexp{
		regexp.MustCompile(`(?i)distribution\s+method\s*[:\-]?\s*([^\n,.]+)`),
	}},
	{"issue_price", []*regexp.Regexp{
		regexp.MustCompile(`(?i)issue\s+price\s*(?:of)?\s*[:\-]?\s*([0-9]+(?:\.[0-9]+)?)\s*%`),
	}},
	{"final_issue_price", []*regexp.Regexp{
		regexp.MustCompile(`(?i)final\s+issue\s+price\s*(?:of)?\s*[:\-]?\s*([0-9]+(?:\.[0-9]+)?)\s*%`),
	}},
	{"barrier_level", []*regexp.Regexp{
		regexp.MustCompile(`(?i)barrier\s*(?:level)?\s*(?:of|at)?\s*[:\-]?\s*([0-9]+(?:\.[0-9]+)?)\s*%`),
	}},
	{"coupon_rate", []*regexp.Regexp{
		regexp.MustCompile(`(?i)coupon\s*(?:rate)?\s*(?:of)?\s*[:\-]?\s*([0-9]+(?:\.[0-9]+)?)\s*%`),
	}},
	{"final_coupon_rate", []*regexp.Regexp{
		regexp.MustCompile(`(?i)final\s+coupon\s*(?:rate)?\s*(?:of)?\s*[:\-]?\s*([0-9]+(?:\.[0-9]+)?)\s*%`),
	}},
}

// amountPatterns capture a number in submatch 1 and an optional scale
// word (thousand/million/billion) in submatch 2.
var amountPatterns = []fieldPattern{
	{"shelf_amount", []*regexp.Regexp{
		regexp.MustCompile(`(?i)shelf\s+(?:amount|size|program)\s*(?:of)?\s*[:\-]?\s*\$?\s*([0-9][0-9,]*(?:\.[0-9]+)?)\s*(thousand|million|billion)?`),
	}},
	{"final_principal_amount", []*regexp.Regexp{
		regexp.MustCompile(`(?i)final\s+principal\s+amount\s*(?:of)?\s*[:\-]?\s*\$?\s*([0-9][0-9,]*(?:\.[0-9]+)?)\s*(thousand|million|billion)?`),
	}},
	{"minimum_denomination", []*regexp.Regexp{
		regexp.MustCompile(`(?i)minimum\s+denominations?\s*(?:of)?\s*[:\-]?\s*\$?\s*([0-9][0-9,]*(?:\.[0-9]+)?)\s*(thousand|million|billion)?`),
	}},
	{"principal_amount", []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:principal(?:\s+amount)?|aggregate\s+amount|notional)\s*(?:of)?\s*[:\-]?\s*\$?\s*([0-9][0-9,]*(?:\.[0-9]+)?)\s*(thousand|million|billion)?`),
		regexp.MustCompile(`(?i)\$\s*([0-9][0-9,]*(?:\.[0-9]+)?)\s*(thousand|million|billion)?`),
	}},
}

// datePatterns capture a date in submatch 1, normalized to ISO form.
var datePatterns = []fieldPattern{
	{"issue_date", []*regexp.Regexp{
		regexp.MustCompile(`(?i)issue\s+date\s*(?:of|is|on)?\s*[:\-]?\s*` + dateAlt),
		regexp.MustCompile(`(?i)issued\s+(?:on\s+)?` + dateAlt),
	}},
	{"maturity_date", []*regexp.Regexp{
		regexp.MustCompile(`(?i)matur(?:ity|es|ing)\s*(?:date)?\s*(?:of|is|on)?\s*[:\-]?\s*` + dateAlt),
	}},
	{"pricing_date", []*regexp.Regexp{
		regexp.MustCompile(`(?i)pricing\s+date\s*(?:of|is|on)?\s*[:\-]?\s*` + dateAlt),
		regexp.MustCompile(`(?i)priced\s+on\s+` + dateAlt),
	}},
	{"settlement_date", []*regexp.Regexp{
		regexp.MustCompile(`(?i)settl(?:ement|es|ing)\s*(?:date)?\s*(?:of|is|on)?\s*[:\-]?\s*` + dateAlt),
	}},
	{"base_prospectus_date", []*regexp.Regexp{
		regexp.MustCompile(`(?i)base\s+(?:shelf\s+)?prospectus\s+dated?\s*[:\-]?\s*` + dateAlt),
	}},
	{"filing_date", []*regexp.Regexp{
		regexp.MustCompile(`(?i)fil(?:ing|ed)\s*(?:date|on)?\s*[:\-]?\s*` + dateAlt),
	}},
}

// Relative maturity: a term length in years, optionally anchored to an
// explicit start date.
var (
	termFromDateRe = regexp.MustCompile(`(?i)(\d+)\s+years?\s+from\s+` + dateAlt)
	termYearsRe    = regexp.MustCompile(`(?i)(\d+)[\s-]*years?\s+(?:term|maturity|note)`)
)

// productTypes is scanned in order; the first type mentioned in the
// text wins.
var productTypes = []string{
	"autocallable",
	"reverse convertible",
	"step-up",
	"memory",
	"barrier",
}

var dateLayouts = []string{
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"01-02-2006",
	"1-2-2006",
}

// normalizeDate parses the supported date shapes into ISO form. Values
// that parse under none of the layouts pass through unchanged.
func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}

// addYears shifts an ISO date forward by n years. Returns "" if the
// input is not an ISO date.
func addYears(iso string, n int) string {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return ""
	}
	return t.AddDate(n, 0, 0).Format("2006-01-02")
}

// parseAmount converts a number plus an optional scale word into a
// plain integer-or-decimal string ("5" + "million" becomes "5000000").
func parseAmount(num, scale string) string {
	f, err := strconv.ParseFloat(strings.ReplaceAll(num, ",", ""), 64)
	if err != nil {
		return ""
	}
	switch strings.ToLower(scale) {
	case "thousand":
		f *= 1e3
	case "million":
		f *= 1e6
	case "billion":
		f *= 1e9
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
