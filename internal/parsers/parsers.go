// Package parsers loads normalized invoice and purchase order documents
// from JSON. The extraction subsystem produces these files; raw document
// parsing (PDF, OCR) is out of scope here.
package parsers

import (
	"encoding/json"
	"io"
	"os"

	"invoice-matching-service/internal/models"
	apperrors "invoice-matching-service/pkg/errors"

	"github.com/shopspring/decimal"
)

// lineDocument is the wire shape shared by invoice and PO lines
type lineDocument struct {
	LineNo      int             `json:"line_no"`
	SKU         string          `json:"sku,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// invoiceDocument is the wire shape of a normalized invoice. Dates arrive
// as strings because extraction output uses several formats.
type invoiceDocument struct {
	InvoiceNumber string          `json:"invoice_number"`
	VendorName    string          `json:"vendor_name"`
	Currency      string          `json:"currency"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	InvoiceDate   string          `json:"invoice_date,omitempty"`
	PONumber      string          `json:"po_number"`
	Lines         []lineDocument  `json:"lines"`
}

type poDocument struct {
	PONumber    string          `json:"po_number"`
	VendorName  string          `json:"vendor_name"`
	Currency    string          `json:"currency"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	OrderDate   string          `json:"order_date,omitempty"`
	Lines       []lineDocument  `json:"lines"`
}

func (doc *invoiceDocument) toModel() (*models.Invoice, error) {
	invoice := &models.Invoice{
		InvoiceNumber: doc.InvoiceNumber,
		VendorName:    doc.VendorName,
		Currency:      doc.Currency,
		TotalAmount:   doc.TotalAmount,
		PONumber:      doc.PONumber,
	}

	if doc.InvoiceDate != "" {
		parsed, err := models.ParseDateWithFormats(doc.InvoiceDate)
		if err != nil {
			return nil, apperrors.DataError(apperrors.CodeInvalidDate, "invoice_date", doc.InvoiceDate)
		}
		invoice.InvoiceDate = parsed
	}

	for _, line := range doc.Lines {
		invoice.Lines = append(invoice.Lines, &models.InvoiceLine{
			LineNo:      line.LineNo,
			SKU:         line.SKU,
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		})
	}

	invoice.Normalize()
	if err := invoice.Validate(); err != nil {
		return nil, err
	}
	return invoice, nil
}

func (doc *poDocument) toModel() (*models.PurchaseOrder, error) {
	po := &models.PurchaseOrder{
		PONumber:    doc.PONumber,
		VendorName:  doc.VendorName,
		Currency:    doc.Currency,
		TotalAmount: doc.TotalAmount,
	}

	if doc.OrderDate != "" {
		parsed, err := models.ParseDateWithFormats(doc.OrderDate)
		if err != nil {
			return nil, apperrors.DataError(apperrors.CodeInvalidDate, "order_date", doc.OrderDate)
		}
		po.OrderDate = parsed
	}

	for _, line := range doc.Lines {
		po.Lines = append(po.Lines, &models.POLine{
			LineNo:      line.LineNo,
			SKU:         line.SKU,
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		})
	}

	po.Normalize()
	if err := po.Validate(); err != nil {
		return nil, err
	}
	return po, nil
}

// ParseInvoice reads one normalized invoice from JSON
func ParseInvoice(r io.Reader) (*models.Invoice, error) {
	var doc invoiceDocument
	if err := decodeStrict(r, &doc); err != nil {
		return nil, apperrors.ParseError(apperrors.CodeInvalidFormat, "invoice", err)
	}
	return doc.toModel()
}

// ParsePurchaseOrder reads one normalized purchase order from JSON
func ParsePurchaseOrder(r io.Reader) (*models.PurchaseOrder, error) {
	var doc poDocument
	if err := decodeStrict(r, &doc); err != nil {
		return nil, apperrors.ParseError(apperrors.CodeInvalidFormat, "purchase order", err)
	}
	return doc.toModel()
}

// ParseInvoiceFile reads one normalized invoice from a JSON file
func ParseInvoiceFile(path string) (*models.Invoice, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseInvoice(f)
}

// ParsePurchaseOrderFile reads one normalized purchase order from a JSON file
func ParsePurchaseOrderFile(path string) (*models.PurchaseOrder, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParsePurchaseOrder(f)
}

// ParseInvoiceBatch reads a JSON array of normalized invoices. The whole
// batch is rejected on a malformed document so a partial batch is never
// silently processed.
func ParseInvoiceBatch(r io.Reader) ([]*models.Invoice, error) {
	var docs []invoiceDocument
	if err := decodeStrict(r, &docs); err != nil {
		return nil, apperrors.ParseError(apperrors.CodeInvalidFormat, "invoice batch", err)
	}

	invoices := make([]*models.Invoice, 0, len(docs))
	for i := range docs {
		invoice, err := docs[i].toModel()
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, invoice)
	}
	return invoices, nil
}

// ParseInvoiceBatchFile reads a JSON array of invoices from a file
func ParseInvoiceBatchFile(path string) ([]*models.Invoice, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseInvoiceBatch(f)
}

// ParsePurchaseOrderBatch reads a JSON array of normalized purchase orders
func ParsePurchaseOrderBatch(r io.Reader) ([]*models.PurchaseOrder, error) {
	var docs []poDocument
	if err := decodeStrict(r, &docs); err != nil {
		return nil, apperrors.ParseError(apperrors.CodeInvalidFormat, "purchase order batch", err)
	}

	pos := make([]*models.PurchaseOrder, 0, len(docs))
	for i := range docs {
		po, err := docs[i].toModel()
		if err != nil {
			return nil, err
		}
		pos = append(pos, po)
	}
	return pos, nil
}

// ParsePurchaseOrderBatchFile reads a JSON array of purchase orders from a file
func ParsePurchaseOrderBatchFile(path string) ([]*models.PurchaseOrder, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParsePurchaseOrderBatch(f)
}

// decodeStrict decodes JSON rejecting unknown fields and trailing content,
// so a PO file passed where an invoice is expected fails loudly
func decodeStrict(r io.Reader, v interface{}) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return io.ErrUnexpectedEOF
	}
	return nil
}

func openFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.ParseError(apperrors.CodeFileNotFound, path, err)
		}
		return nil, apperrors.ParseError(apperrors.CodeInvalidFormat, path, err)
	}
	return f, nil
}
