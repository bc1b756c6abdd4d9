package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchStatus is the overall outcome of one matching run
type MatchStatus string

const (
	// StatusMatched means no unresolved issue of medium or higher
	// severity remains.
	StatusMatched MatchStatus = "matched"

	// StatusNeedsReview means at least one unresolved issue of medium or
	// higher severity blocks auto-approval.
	StatusNeedsReview MatchStatus = "needs_review"
)

// IsValid checks if the match status is a known value
func (s MatchStatus) IsValid() bool {
	return s == StatusMatched || s == StatusNeedsReview
}

// MatchingResult is the output of one matching run. It is immutable once
// created except for confidence/status recomputation triggered by issue
// resolution.
type MatchingResult struct {
	ID              uuid.UUID             `json:"id"`
	InvoiceID       string                `json:"invoice_id"`
	POID            string                `json:"po_id,omitempty"`
	MatchStatus     MatchStatus           `json:"match_status"`
	ConfidenceScore float64               `json:"confidence_score"`
	Issues          []*ValidationIssue    `json:"issues"`
	LineComparisons []*LineItemComparison `json:"line_comparisons,omitempty"`
	Reasoning       string                `json:"reasoning"`
	MatchedBy       string                `json:"matched_by"`
	MatchedAt       time.Time             `json:"matched_at"`
}

// FindIssue returns the issue with the given id, or nil
func (r *MatchingResult) FindIssue(issueID uuid.UUID) *ValidationIssue {
	for _, issue := range r.Issues {
		if issue.ID == issueID {
			return issue
		}
	}
	return nil
}

// UnresolvedAtOrAbove returns the unresolved issues ranking at or above the
// given severity
func (r *MatchingResult) UnresolvedAtOrAbove(severity Severity) []*ValidationIssue {
	var out []*ValidationIssue
	for _, issue := range r.Issues {
		if !issue.Resolved && issue.Severity.AtLeast(severity) {
			out = append(out, issue)
		}
	}
	return out
}

// HasBlockingIssues reports whether any unresolved issue of medium or
// higher severity remains
func (r *MatchingResult) HasBlockingIssues() bool {
	return len(r.UnresolvedAtOrAbove(SeverityMedium)) > 0
}

// MaxUnresolvedSeverity returns the highest severity among unresolved
// issues, and false when every issue is resolved
func (r *MatchingResult) MaxUnresolvedSeverity() (Severity, bool) {
	max := Severity("")
	found := false
	for _, issue := range r.Issues {
		if issue.Resolved {
			continue
		}
		if !found || issue.Severity.Rank() > max.Rank() {
			max = issue.Severity
			found = true
		}
	}
	return max, found
}

// DominantUnresolvedCategory returns the category of the most severe
// unresolved issue; earlier issues win ties so the choice is deterministic
func (r *MatchingResult) DominantUnresolvedCategory() (IssueCategory, bool) {
	var dominant *ValidationIssue
	for _, issue := range r.Issues {
		if issue.Resolved {
			continue
		}
		if dominant == nil || issue.Severity.Rank() > dominant.Severity.Rank() {
			dominant = issue
		}
	}
	if dominant == nil {
		return "", false
	}
	return dominant.Category, true
}
