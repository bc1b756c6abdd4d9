package models

import (
	"time"

	"github.com/google/uuid"
)

// Severity ranks how strongly an issue should block auto-approval.
// The scale unifies the header-level {critical, warning, info} and the
// line-level {low, medium, high, critical} scales found in earlier versions
// of this system into one five-level scale.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank returns the ordering index of the severity, info lowest
func (s Severity) Rank() int {
	switch s {
	case SeverityInfo:
		return 0
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return -1
	}
}

// AtLeast reports whether s ranks at or above other
func (s Severity) AtLeast(other Severity) bool {
	return s.Rank() >= other.Rank()
}

// IsValid checks if the severity is a known value
func (s Severity) IsValid() bool {
	return s.Rank() >= 0
}

// IssueCategory identifies the kind of discrepancy an issue describes
type IssueCategory string

const (
	// CategoryMissingPO means no purchase order was found for the
	// invoice's PO reference. Always critical; terminal for auto-approval.
	CategoryMissingPO IssueCategory = "missing_po"

	// CategoryDuplicateInvoice means the same invoice number was already
	// matched or approved for this vendor.
	CategoryDuplicateInvoice IssueCategory = "duplicate_invoice"

	CategoryVendorMismatch   IssueCategory = "vendor_mismatch"
	CategoryCurrencyMismatch IssueCategory = "currency_mismatch"
	CategoryTotalMismatch    IssueCategory = "total_mismatch"
	CategoryLineItemMismatch IssueCategory = "line_item_mismatch"
	CategoryLineItemMissing  IssueCategory = "line_item_missing"

	// CategoryDateAnomaly means the invoice predates its purchase order.
	// Advisory only; it never blocks a match on its own.
	CategoryDateAnomaly IssueCategory = "date_anomaly"
)

// IsValid checks if the issue category is a known value
func (c IssueCategory) IsValid() bool {
	switch c {
	case CategoryMissingPO, CategoryDuplicateInvoice, CategoryVendorMismatch,
		CategoryCurrencyMismatch, CategoryTotalMismatch,
		CategoryLineItemMismatch, CategoryLineItemMissing, CategoryDateAnomaly:
		return true
	default:
		return false
	}
}

// ResolutionAction records how a reviewer disposed of an issue
type ResolutionAction string

const (
	ResolutionAccepted   ResolutionAction = "accepted"
	ResolutionOverridden ResolutionAction = "overridden"
	ResolutionCorrected  ResolutionAction = "corrected"
)

// IsValid checks if the resolution action is a known value
func (a ResolutionAction) IsValid() bool {
	switch a {
	case ResolutionAccepted, ResolutionOverridden, ResolutionCorrected:
		return true
	default:
		return false
	}
}

// ValidationIssue is a single typed, severity-ranked discrepancy between
// invoice and PO data. Issues are created by the matching engine, mutated
// only through resolution, and never deleted.
type ValidationIssue struct {
	ID         uuid.UUID     `json:"id"`
	Category   IssueCategory `json:"category"`
	Severity   Severity      `json:"severity"`
	Message    string        `json:"message"`
	FieldName  string        `json:"field_name,omitempty"`
	LineNumber int           `json:"line_number,omitempty"`

	// Details carries enough structure (old/new values, percent
	// difference) to render a diff without re-running the comparison.
	Details map[string]interface{} `json:"details,omitempty"`

	Resolved         bool             `json:"resolved"`
	ResolutionAction ResolutionAction `json:"resolution_action,omitempty"`
	ResolutionNotes  string           `json:"resolution_notes,omitempty"`
	ResolvedBy       string           `json:"resolved_by,omitempty"`
	ResolvedAt       *time.Time       `json:"resolved_at,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// Blocking reports whether the issue still blocks a matched status:
// unresolved and at least medium severity.
func (i *ValidationIssue) Blocking() bool {
	return !i.Resolved && i.Severity.AtLeast(SeverityMedium)
}
