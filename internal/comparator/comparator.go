// Package comparator implements scalar field comparison under configurable
// equality and tolerance policies. It is the leaf of the matching pipeline:
// every header and line field disagreement surfaces here first, as a
// FieldComparison, before the classifier turns it into an issue.
package comparator

import (
	"fmt"
	"strings"

	"invoice-matching-service/internal/models"

	"github.com/agnivade/levenshtein"
	"github.com/shopspring/decimal"
)

// PolicyKind selects the comparison rule applied to a field
type PolicyKind int

const (
	// PolicyExact requires normalized string equality.
	PolicyExact PolicyKind = iota

	// PolicyNumericTolerance matches numbers whose relative difference is
	// within a configured epsilon.
	PolicyNumericTolerance

	// PolicyCurrencyExact requires exact currency code equality. No
	// conversion is ever performed; a mismatch is always reported.
	PolicyCurrencyExact

	// PolicyFuzzyText matches text whose normalized similarity ratio
	// meets a configured threshold.
	PolicyFuzzyText
)

// String returns the string representation of PolicyKind
func (k PolicyKind) String() string {
	switch k {
	case PolicyExact:
		return "exact"
	case PolicyNumericTolerance:
		return "numeric-tolerance"
	case PolicyCurrencyExact:
		return "currency-exact"
	case PolicyFuzzyText:
		return "fuzzy-text"
	default:
		return "unknown"
	}
}

// Policy is a comparison rule with its parameters
type Policy struct {
	Kind PolicyKind `json:"kind"`

	// Tolerance is the relative epsilon for PolicyNumericTolerance
	// (0.01 means 1%). The boundary is inclusive.
	Tolerance float64 `json:"tolerance,omitempty"`

	// Threshold is the minimum similarity for PolicyFuzzyText.
	Threshold float64 `json:"threshold,omitempty"`
}

// Exact returns an exact string equality policy
func Exact() Policy {
	return Policy{Kind: PolicyExact}
}

// NumericTolerance returns a relative-tolerance numeric policy
func NumericTolerance(epsilon float64) Policy {
	return Policy{Kind: PolicyNumericTolerance, Tolerance: epsilon}
}

// CurrencyExact returns the exact currency code policy
func CurrencyExact() Policy {
	return Policy{Kind: PolicyCurrencyExact}
}

// FuzzyText returns a similarity-threshold text policy
func FuzzyText(threshold float64) Policy {
	return Policy{Kind: PolicyFuzzyText, Threshold: threshold}
}

// Validate checks if the policy parameters are in range
func (p Policy) Validate() error {
	if p.Tolerance < 0.0 || p.Tolerance > 1.0 {
		return fmt.Errorf("tolerance must be between 0.0 and 1.0: %f", p.Tolerance)
	}
	if p.Threshold < 0.0 || p.Threshold > 1.0 {
		return fmt.Errorf("threshold must be between 0.0 and 1.0: %f", p.Threshold)
	}
	return nil
}

// CompareText compares two text values under an exact or fuzzy policy.
// An empty value on either side is treated as a mismatch and never
// silently skipped, so the reviewer sees what could not be compared.
func CompareText(field, invoiceValue, poValue string, policy Policy) *models.FieldComparison {
	fc := &models.FieldComparison{
		FieldName:    field,
		InvoiceValue: invoiceValue,
		POValue:      poValue,
	}

	if missing := missingSide(invoiceValue, poValue); missing != "" {
		fc.Match = false
		fc.DiffExplanation = missing
		fc.SeverityHint = models.SeverityMedium
		return fc
	}

	switch policy.Kind {
	case PolicyFuzzyText:
		similarity := Similarity(invoiceValue, poValue)
		fc.Similarity = similarity
		fc.Match = similarity >= policy.Threshold
		if !fc.Match {
			fc.DiffExplanation = fmt.Sprintf("'%s' vs '%s' (similarity %.2f below threshold %.2f)",
				invoiceValue, poValue, similarity, policy.Threshold)
			fc.SeverityHint = models.SeverityMedium
		}
	case PolicyCurrencyExact:
		fc.Match = strings.EqualFold(strings.TrimSpace(invoiceValue), strings.TrimSpace(poValue))
		if !fc.Match {
			fc.DiffExplanation = fmt.Sprintf("currency '%s' does not equal '%s'; no conversion is performed",
				invoiceValue, poValue)
			fc.SeverityHint = models.SeverityCritical
		}
	default:
		fc.Match = normalizeText(invoiceValue) == normalizeText(poValue)
		if !fc.Match {
			fc.DiffExplanation = fmt.Sprintf("'%s' does not equal '%s'", invoiceValue, poValue)
			fc.SeverityHint = models.SeverityMedium
		}
	}

	return fc
}

// CompareDecimal compares two numeric values under a relative tolerance.
// A nil value on either side is treated as a mismatch.
func CompareDecimal(field string, invoiceValue, poValue *decimal.Decimal, policy Policy) *models.FieldComparison {
	fc := &models.FieldComparison{FieldName: field}

	if invoiceValue != nil {
		fc.InvoiceValue = invoiceValue.String()
	}
	if poValue != nil {
		fc.POValue = poValue.String()
	}

	if invoiceValue == nil || poValue == nil {
		side := "invoice"
		if invoiceValue != nil {
			side = "purchase order"
		}
		fc.Match = false
		fc.DiffExplanation = fmt.Sprintf("%s value for %s is missing", side, field)
		fc.SeverityHint = models.SeverityMedium
		return fc
	}

	pct := RelativeDifference(*invoiceValue, *poValue)
	fc.Match = pct <= policy.Tolerance

	if !fc.Match {
		fc.DiffExplanation = fmt.Sprintf("%s vs %s (%.2f%% difference exceeds %.2f%% tolerance)",
			invoiceValue.String(), poValue.String(), pct*100, policy.Tolerance*100)
		if pct > 0.05 {
			fc.SeverityHint = models.SeverityHigh
		} else {
			fc.SeverityHint = models.SeverityMedium
		}
	}

	return fc
}

// RelativeDifference returns |a-b| / max(|a|, |b|, 1). The denominator
// floor of 1 protects against division blowups when both values are near
// zero.
func RelativeDifference(a, b decimal.Decimal) float64 {
	diff := a.Sub(b).Abs()

	denom := a.Abs()
	if b.Abs().GreaterThan(denom) {
		denom = b.Abs()
	}
	if denom.LessThan(decimal.NewFromInt(1)) {
		denom = decimal.NewFromInt(1)
	}

	return diff.Div(denom).InexactFloat64()
}

// Similarity returns the normalized similarity ratio of two text values in
// [0.0, 1.0]: 1 minus the Levenshtein distance over the longer normalized
// length. Normalization case-folds and collapses whitespace.
func Similarity(a, b string) float64 {
	na := normalizeText(a)
	nb := normalizeText(b)

	if na == nb {
		return 1.0
	}
	if na == "" || nb == "" {
		return 0.0
	}

	distance := levenshtein.ComputeDistance(na, nb)

	maxLen := len([]rune(na))
	if l := len([]rune(nb)); l > maxLen {
		maxLen = l
	}

	return 1.0 - float64(distance)/float64(maxLen)
}

func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func missingSide(invoiceValue, poValue string) string {
	invoiceMissing := strings.TrimSpace(invoiceValue) == ""
	poMissing := strings.TrimSpace(poValue) == ""

	switch {
	case invoiceMissing && poMissing:
		return "value missing on both sides"
	case invoiceMissing:
		return "invoice value is missing"
	case poMissing:
		return "purchase order value is missing"
	default:
		return ""
	}
}
