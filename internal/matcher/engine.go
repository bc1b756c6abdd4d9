package matcher

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"invoice-matching-service/internal/aligner"
	"invoice-matching-service/internal/comparator"
	"invoice-matching-service/internal/models"
	apperrors "invoice-matching-service/pkg/errors"

	"github.com/google/uuid"
)

// SystemActor is recorded as matched_by when no explicit actor is given.
const SystemActor = "system"

// DuplicateChecker answers whether an invoice number was already submitted
// for a vendor. The engine stays pure; callers back this with their store.
type DuplicateChecker interface {
	IsDuplicate(invoiceNumber, vendorName string) bool
}

// Engine matches invoices against purchase orders. Matching is pure and
// deterministic: the same documents and configuration always produce the
// same issues, status, and confidence (issue identifiers and timestamps
// aside).
type Engine struct {
	config  *Config
	aligner *aligner.Aligner
	dupes   DuplicateChecker
}

// NewEngine creates a matching engine with the given configuration.
// A nil configuration falls back to DefaultConfig.
func NewEngine(config *Config) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	return &Engine{
		config:  config,
		aligner: aligner.New(config.Aligner),
	}
}

// WithDuplicateChecker attaches a duplicate invoice lookup and returns the
// engine for chaining
func (e *Engine) WithDuplicateChecker(checker DuplicateChecker) *Engine {
	e.dupes = checker
	return e
}

// Config returns the engine configuration
func (e *Engine) Config() *Config {
	return e.config
}

// Match aligns an invoice against a purchase order and produces a matching
// result. A nil purchase order is the missing-PO case, not an error: it
// yields a needs_review result with zero confidence. Errors are reserved
// for structurally invalid input.
func (e *Engine) Match(invoice *models.Invoice, po *models.PurchaseOrder) (*models.MatchingResult, error) {
	if invoice == nil {
		return nil, apperrors.DataError(apperrors.CodeMissingField, "invoice", nil)
	}

	invoice.Normalize()
	if err := invoice.Validate(); err != nil {
		return nil, err
	}

	if invoice.PONumber == "" {
		return nil, apperrors.DataError(apperrors.CodeMissingPORef, "po_number", invoice.PONumber)
	}

	result := &models.MatchingResult{
		ID:        uuid.New(),
		InvoiceID: invoice.InvoiceNumber,
		MatchedBy: SystemActor,
		MatchedAt: time.Now().UTC(),
	}

	if po == nil {
		result.Issues = []*models.ValidationIssue{missingPOIssue(invoice.PONumber)}
		result.MatchStatus = models.StatusNeedsReview
		result.ConfidenceScore = 0.0
		result.Reasoning = buildReasoning(result.Issues)
		return result, nil
	}

	po.Normalize()
	if err := po.Validate(); err != nil {
		return nil, err
	}

	result.POID = po.PONumber

	var issues []*models.ValidationIssue

	if e.config.CheckDuplicates && e.dupes != nil &&
		e.dupes.IsDuplicate(invoice.InvoiceNumber, invoice.VendorName) {
		issues = append(issues, duplicateInvoiceIssue(invoice))
	}

	issues = append(issues, e.compareHeaders(invoice, po)...)

	result.LineComparisons = e.aligner.Align(invoice.Lines, po.Lines)
	for _, lic := range result.LineComparisons {
		issues = append(issues, classifyLine(lic)...)
	}

	result.Issues = issues
	e.Recompute(result)

	return result, nil
}

// compareHeaders runs the header-level field comparisons and classifies
// each failure
func (e *Engine) compareHeaders(invoice *models.Invoice, po *models.PurchaseOrder) []*models.ValidationIssue {
	var issues []*models.ValidationIssue

	vendor := comparator.CompareText("vendor_name", invoice.VendorName, po.VendorName,
		comparator.FuzzyText(e.config.VendorSimilarityThreshold))
	if !vendor.Match {
		issues = append(issues, classifyVendor(vendor))
	}

	currency := comparator.CompareText("currency", invoice.Currency, po.Currency,
		comparator.CurrencyExact())
	if !currency.Match {
		issues = append(issues, classifyCurrency(currency))
	}

	total := comparator.CompareDecimal("total_amount", &invoice.TotalAmount, &po.TotalAmount,
		comparator.NumericTolerance(e.config.TotalTolerance))
	if !total.Match {
		issues = append(issues, e.classifyTotal(total, invoice.TotalAmount, po.TotalAmount))
	}

	if e.config.CheckDateAnomaly && !invoice.InvoiceDate.IsZero() && !po.OrderDate.IsZero() &&
		invoice.InvoiceDate.Before(po.OrderDate) {
		issues = append(issues, dateAnomalyIssue(invoice.InvoiceDate, po.OrderDate))
	}

	return issues
}

// Recompute rederives confidence, status, and reasoning from the result's
// current issue set. Called after matching and again whenever an issue is
// resolved, so resolution flows through the same derivation as matching.
func (e *Engine) Recompute(result *models.MatchingResult) {
	result.ConfidenceScore = e.confidence(result.Issues)

	if result.HasBlockingIssues() {
		result.MatchStatus = models.StatusNeedsReview
	} else {
		result.MatchStatus = models.StatusMatched
	}

	result.Reasoning = buildReasoning(result.Issues)
}

// confidence computes 1.0 minus the per-issue severity penalties over the
// unresolved issues, floored at zero. An unresolved missing-PO issue
// short-circuits to exactly zero.
func (e *Engine) confidence(issues []*models.ValidationIssue) float64 {
	score := 1.0

	for _, issue := range issues {
		if issue.Resolved {
			continue
		}

		if issue.Category == models.CategoryMissingPO {
			return 0.0
		}

		switch issue.Severity {
		case models.SeverityCritical:
			score -= e.config.Penalties.Critical
		case models.SeverityHigh:
			score -= e.config.Penalties.High
		case models.SeverityMedium:
			score -= e.config.Penalties.Medium
		case models.SeverityLow:
			score -= e.config.Penalties.Low
		}
	}

	if score < 0.0 {
		return 0.0
	}
	return score
}

// buildReasoning concatenates issue messages ordered by descending
// severity. The sort is stable, so issues of equal severity keep their
// creation order and the text is deterministic.
func buildReasoning(issues []*models.ValidationIssue) string {
	unresolved := make([]*models.ValidationIssue, 0, len(issues))
	resolvedCount := 0
	for _, issue := range issues {
		if issue.Resolved {
			resolvedCount++
			continue
		}
		unresolved = append(unresolved, issue)
	}

	if len(unresolved) == 0 {
		if resolvedCount > 0 {
			return fmt.Sprintf("all %d issues resolved by review", resolvedCount)
		}
		return "all header and line item checks passed"
	}

	sort.SliceStable(unresolved, func(i, j int) bool {
		return unresolved[i].Severity.Rank() > unresolved[j].Severity.Rank()
	})

	parts := make([]string, len(unresolved))
	for i, issue := range unresolved {
		parts[i] = fmt.Sprintf("[%s] %s", issue.Severity, issue.Message)
	}

	return strings.Join(parts, "; ")
}
