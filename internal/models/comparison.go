package models

// FieldComparison records the outcome of comparing one header or line field
// between an invoice and a purchase order. Similarity is only meaningful for
// fuzzy text fields and is recorded even when the field matched, for
// transparency in the review UI.
type FieldComparison struct {
	FieldName       string      `json:"field_name"`
	InvoiceValue    interface{} `json:"invoice_value"`
	POValue         interface{} `json:"po_value"`
	Match           bool        `json:"match"`
	Similarity      float64     `json:"similarity,omitempty"`
	DiffExplanation string      `json:"diff_explanation,omitempty"`
	SeverityHint    Severity    `json:"severity_hint,omitempty"`
}

// LineMatchStatus classifies the overall outcome for one aligned line pair
type LineMatchStatus string

const (
	// LineMatchPerfect means the lines were paired by SKU and every
	// compared field matched.
	LineMatchPerfect LineMatchStatus = "perfect"

	// LineMatchPartial means the pairing relied on description similarity
	// or a non-critical field disagreed.
	LineMatchPartial LineMatchStatus = "partial"

	// LineMatchMismatch means quantity or unit price disagreed beyond
	// tolerance on a paired line.
	LineMatchMismatch LineMatchStatus = "mismatch"

	// LineMatchMissing means the line exists on only one side.
	LineMatchMissing LineMatchStatus = "missing"
)

// IsValid checks if the line match status is a known value
func (s LineMatchStatus) IsValid() bool {
	switch s {
	case LineMatchPerfect, LineMatchPartial, LineMatchMismatch, LineMatchMissing:
		return true
	default:
		return false
	}
}

// LineItemComparison pairs one invoice line with one PO line. A nil line on
// either side denotes a missing/extra line rather than an error.
type LineItemComparison struct {
	LineNumber       int                `json:"line_number"`
	InvoiceLine      *InvoiceLine       `json:"invoice_line,omitempty"`
	POLine           *POLine            `json:"po_line,omitempty"`
	FieldComparisons []*FieldComparison `json:"field_comparisons"`
	OverallMatch     LineMatchStatus    `json:"overall_match"`

	// PairedBySimilarity is true when the description pass, not the SKU
	// pass, produced the pairing.
	PairedBySimilarity bool    `json:"paired_by_similarity,omitempty"`
	PairingSimilarity  float64 `json:"pairing_similarity,omitempty"`
}
