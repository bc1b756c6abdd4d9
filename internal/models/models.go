// Package models defines the normalized invoice and purchase order shapes
// the matching core operates on. Documents arrive already parsed from the
// extraction subsystem; this package only validates and normalizes them.
package models

import (
	"fmt"
	"strings"
	"time"

	apperrors "invoice-matching-service/pkg/errors"

	"github.com/shopspring/decimal"
)

// Invoice represents a normalized, extraction-produced invoice
type Invoice struct {
	InvoiceNumber string          `json:"invoice_number"`
	VendorName    string          `json:"vendor_name"`
	Currency      string          `json:"currency"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	InvoiceDate   time.Time       `json:"invoice_date"`
	PONumber      string          `json:"po_number"`
	Lines         []*InvoiceLine  `json:"lines"`
}

// InvoiceLine is a single invoice line item. LineNo is a position marker
// and is not guaranteed to be contiguous.
type InvoiceLine struct {
	LineNo      int             `json:"line_no"`
	SKU         string          `json:"sku,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// PurchaseOrder represents a normalized purchase order, looked up by PO number
type PurchaseOrder struct {
	PONumber    string          `json:"po_number"`
	VendorName  string          `json:"vendor_name"`
	Currency    string          `json:"currency"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	OrderDate   time.Time       `json:"order_date"`
	Lines       []*POLine       `json:"lines"`
}

// POLine is a single purchase order line item
type POLine struct {
	LineNo      int             `json:"line_no"`
	SKU         string          `json:"sku,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// LineTotal returns quantity × unit price. Line totals are always derived,
// never stored.
func (l *InvoiceLine) LineTotal() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}

// LineTotal returns quantity × unit price for a PO line
func (l *POLine) LineTotal() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}

// ComputedTotal returns the sum of all derived line totals
func (inv *Invoice) ComputedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range inv.Lines {
		total = total.Add(line.LineTotal())
	}
	return total
}

// ComputedTotal returns the sum of all derived line totals
func (po *PurchaseOrder) ComputedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range po.Lines {
		total = total.Add(line.LineTotal())
	}
	return total
}

// Normalize trims identifier whitespace and upper-cases the currency code
func (inv *Invoice) Normalize() {
	inv.InvoiceNumber = strings.TrimSpace(inv.InvoiceNumber)
	inv.PONumber = strings.TrimSpace(inv.PONumber)
	inv.Currency = strings.ToUpper(strings.TrimSpace(inv.Currency))
}

// Normalize trims identifier whitespace and upper-cases the currency code
func (po *PurchaseOrder) Normalize() {
	po.PONumber = strings.TrimSpace(po.PONumber)
	po.Currency = strings.ToUpper(strings.TrimSpace(po.Currency))
}

// Validate rejects malformed invoice data before matching. Business-level
// disagreements with the PO are not validation errors; only structurally
// bad input (negative quantity, empty identifiers) is rejected here.
func (inv *Invoice) Validate() error {
	if strings.TrimSpace(inv.InvoiceNumber) == "" {
		return apperrors.DataError(apperrors.CodeMissingField, "invoice_number", inv.InvoiceNumber)
	}

	if inv.TotalAmount.IsNegative() {
		return apperrors.DataError(apperrors.CodeInvalidAmount, "total_amount", inv.TotalAmount.String())
	}

	for _, line := range inv.Lines {
		if err := validateLine(line.LineNo, line.Description, line.Quantity, line.UnitPrice); err != nil {
			return err
		}
	}

	return nil
}

// Validate rejects malformed purchase order data
func (po *PurchaseOrder) Validate() error {
	if strings.TrimSpace(po.PONumber) == "" {
		return apperrors.DataError(apperrors.CodeMissingField, "po_number", po.PONumber)
	}

	if po.TotalAmount.IsNegative() {
		return apperrors.DataError(apperrors.CodeInvalidAmount, "total_amount", po.TotalAmount.String())
	}

	for _, line := range po.Lines {
		if err := validateLine(line.LineNo, line.Description, line.Quantity, line.UnitPrice); err != nil {
			return err
		}
	}

	return nil
}

func validateLine(lineNo int, description string, quantity, unitPrice decimal.Decimal) error {
	field := fmt.Sprintf("line %d", lineNo)

	if lineNo <= 0 {
		return apperrors.DataError(apperrors.CodeMissingField, "line_no", lineNo)
	}

	if strings.TrimSpace(description) == "" {
		return apperrors.DataError(apperrors.CodeMissingField, field+" description", description)
	}

	if quantity.IsNegative() {
		return apperrors.DataError(apperrors.CodeInvalidQuantity, field+" quantity", quantity.String())
	}

	if unitPrice.IsNegative() {
		return apperrors.DataError(apperrors.CodeInvalidAmount, field+" unit_price", unitPrice.String())
	}

	return nil
}

// String returns a short representation of the Invoice
func (inv *Invoice) String() string {
	return fmt.Sprintf("Invoice{Number: %s, Vendor: %s, Total: %s %s, PO: %s, Lines: %d}",
		inv.InvoiceNumber, inv.VendorName, inv.TotalAmount.String(), inv.Currency, inv.PONumber, len(inv.Lines))
}

// String returns a short representation of the PurchaseOrder
func (po *PurchaseOrder) String() string {
	return fmt.Sprintf("PurchaseOrder{Number: %s, Vendor: %s, Total: %s %s, Lines: %d}",
		po.PONumber, po.VendorName, po.TotalAmount.String(), po.Currency, len(po.Lines))
}

// ParseDecimalFromString parses a decimal value from string, tolerating
// currency symbols and thousand separators commonly left in by extraction
func ParseDecimalFromString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}

	return d, nil
}

// ParseDateWithFormats attempts to parse a date from string using the
// formats extraction output is known to produce
func ParseDateWithFormats(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date string cannot be empty")
	}

	formats := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02 15:04:05",
		"01/02/2006",
		"02-01-2006",
		"Jan 2, 2006",
		"January 2, 2006",
	}

	var lastErr error
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date '%s': %w", s, lastErr)
}
