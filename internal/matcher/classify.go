package matcher

import (
	"fmt"
	"time"

	"invoice-matching-service/internal/comparator"
	"invoice-matching-service/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// newIssue creates an unresolved validation issue with a fresh identifier
func newIssue(category models.IssueCategory, severity models.Severity, message string) *models.ValidationIssue {
	return &models.ValidationIssue{
		ID:        uuid.New(),
		Category:  category,
		Severity:  severity,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
}

// missingPOIssue covers the terminal case where no purchase order exists for
// the invoice's PO reference. Confidence short-circuits to zero for this
// category, so no penalty arithmetic applies.
func missingPOIssue(poNumber string) *models.ValidationIssue {
	issue := newIssue(models.CategoryMissingPO, models.SeverityCritical,
		fmt.Sprintf("no purchase order found for reference '%s'", poNumber))
	issue.FieldName = "po_number"
	issue.Details = map[string]interface{}{"po_number": poNumber}
	return issue
}

// duplicateInvoiceIssue flags an invoice number already matched or approved
// for the same vendor
func duplicateInvoiceIssue(invoice *models.Invoice) *models.ValidationIssue {
	issue := newIssue(models.CategoryDuplicateInvoice, models.SeverityCritical,
		fmt.Sprintf("invoice '%s' from vendor '%s' was already submitted",
			invoice.InvoiceNumber, invoice.VendorName))
	issue.FieldName = "invoice_number"
	issue.Details = map[string]interface{}{
		"invoice_number": invoice.InvoiceNumber,
		"vendor_name":    invoice.VendorName,
	}
	return issue
}

// classifyVendor turns a failed vendor comparison into a critical issue
func classifyVendor(fc *models.FieldComparison) *models.ValidationIssue {
	issue := newIssue(models.CategoryVendorMismatch, models.SeverityCritical,
		fmt.Sprintf("vendor name mismatch: %s", fc.DiffExplanation))
	issue.FieldName = fc.FieldName
	issue.Details = map[string]interface{}{
		"invoice_value": fc.InvoiceValue,
		"po_value":      fc.POValue,
		"similarity":    fc.Similarity,
	}
	return issue
}

// classifyCurrency turns a failed currency comparison into a critical issue.
// Currency disagreement is never tolerable because no conversion happens.
func classifyCurrency(fc *models.FieldComparison) *models.ValidationIssue {
	issue := newIssue(models.CategoryCurrencyMismatch, models.SeverityCritical,
		fmt.Sprintf("currency mismatch: %s", fc.DiffExplanation))
	issue.FieldName = fc.FieldName
	issue.Details = map[string]interface{}{
		"invoice_value": fc.InvoiceValue,
		"po_value":      fc.POValue,
	}
	return issue
}

// classifyTotal grades a failed header total comparison: medium within the
// exception threshold, high beyond it
func (e *Engine) classifyTotal(fc *models.FieldComparison, invoiceTotal, poTotal decimal.Decimal) *models.ValidationIssue {
	pct := comparator.RelativeDifference(invoiceTotal, poTotal)

	severity := models.SeverityMedium
	if pct > e.config.ExceptionThreshold {
		severity = models.SeverityHigh
	}

	issue := newIssue(models.CategoryTotalMismatch, severity,
		fmt.Sprintf("total amount mismatch: %s", fc.DiffExplanation))
	issue.FieldName = fc.FieldName
	issue.Details = map[string]interface{}{
		"invoice_value":      invoiceTotal.String(),
		"po_value":           poTotal.String(),
		"percent_difference": pct * 100,
	}
	return issue
}

// dateAnomalyIssue flags an invoice dated before its purchase order, which
// usually indicates a wrong PO reference or a backdated invoice
func dateAnomalyIssue(invoiceDate, orderDate time.Time) *models.ValidationIssue {
	issue := newIssue(models.CategoryDateAnomaly, models.SeverityLow,
		fmt.Sprintf("invoice is dated %s, before purchase order date %s",
			invoiceDate.Format("2006-01-02"), orderDate.Format("2006-01-02")))
	issue.FieldName = "invoice_date"
	issue.Details = map[string]interface{}{
		"invoice_date": invoiceDate.Format("2006-01-02"),
		"order_date":   orderDate.Format("2006-01-02"),
	}
	return issue
}

// classifyLine turns one aligned line comparison into zero or more issues
func classifyLine(lic *models.LineItemComparison) []*models.ValidationIssue {
	var issues []*models.ValidationIssue

	switch lic.OverallMatch {
	case models.LineMatchMissing:
		if lic.POLine == nil {
			// invoice billed something the PO never ordered
			issue := newIssue(models.CategoryLineItemMissing, models.SeverityHigh,
				fmt.Sprintf("invoice line %d ('%s') has no counterpart on the purchase order",
					lic.LineNumber, lic.InvoiceLine.Description))
			issue.LineNumber = lic.LineNumber
			issue.Details = map[string]interface{}{
				"side":        "invoice_only",
				"description": lic.InvoiceLine.Description,
				"sku":         lic.InvoiceLine.SKU,
			}
			issues = append(issues, issue)
		} else {
			// ordered but not billed; acceptable for partial deliveries
			issue := newIssue(models.CategoryLineItemMissing, models.SeverityMedium,
				fmt.Sprintf("purchase order line %d ('%s') was not billed on the invoice",
					lic.LineNumber, lic.POLine.Description))
			issue.LineNumber = lic.LineNumber
			issue.Details = map[string]interface{}{
				"side":        "po_only",
				"description": lic.POLine.Description,
				"sku":         lic.POLine.SKU,
			}
			issues = append(issues, issue)
		}

	case models.LineMatchMismatch:
		for _, fc := range lic.FieldComparisons {
			if fc.Match {
				continue
			}
			issue := newIssue(models.CategoryLineItemMismatch, models.SeverityHigh,
				fmt.Sprintf("line %d %s mismatch: %s", lic.LineNumber, fc.FieldName, fc.DiffExplanation))
			issue.FieldName = fc.FieldName
			issue.LineNumber = lic.LineNumber
			issue.Details = map[string]interface{}{
				"invoice_value": fc.InvoiceValue,
				"po_value":      fc.POValue,
			}
			issues = append(issues, issue)
		}

	case models.LineMatchPartial:
		issue := newIssue(models.CategoryLineItemMismatch, models.SeverityLow,
			fmt.Sprintf("line %d paired by description similarity %.2f rather than SKU",
				lic.LineNumber, lic.PairingSimilarity))
		issue.LineNumber = lic.LineNumber
		issue.Details = map[string]interface{}{
			"similarity":          lic.PairingSimilarity,
			"invoice_description": lic.InvoiceLine.Description,
			"po_description":      lic.POLine.Description,
		}
		issues = append(issues, issue)
	}

	return issues
}
