package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
)

// PairGenerator generates purchase order and invoice JSON files. A fraction
// of the invoices (match-ratio) are clean copies of their PO; the rest get a
// randomly chosen discrepancy injected.
type PairGenerator struct {
	Count      int
	MatchRatio float64
	StartDate  time.Time
	Seed       int64
	rng        *rand.Rand
}

// lineDoc mirrors the wire shape the parsers accept
type lineDoc struct {
	LineNo      int             `json:"line_no"`
	SKU         string          `json:"sku,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type invoiceDoc struct {
	InvoiceNumber string          `json:"invoice_number"`
	VendorName    string          `json:"vendor_name"`
	Currency      string          `json:"currency"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	InvoiceDate   string          `json:"invoice_date,omitempty"`
	PONumber      string          `json:"po_number"`
	Lines         []lineDoc       `json:"lines"`
}

type poDoc struct {
	PONumber    string          `json:"po_number"`
	VendorName  string          `json:"vendor_name"`
	Currency    string          `json:"currency"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	OrderDate   string          `json:"order_date,omitempty"`
	Lines       []lineDoc       `json:"lines"`
}

var vendors = []string{
	"Acme Industrial Supply",
	"Northwind Traders",
	"Globex Corporation",
	"Initech Office Solutions",
	"Stark Components",
	"Wayne Logistics",
}

var products = []struct {
	SKU  string
	Desc string
}{
	{"PNT-001", "Blue paint gallon"},
	{"PNT-002", "White primer gallon"},
	{"BRH-010", "Paint brush 2 inch"},
	{"BRH-011", "Paint roller 9 inch"},
	{"TPE-020", "Masking tape roll"},
	{"DRP-030", "Canvas drop cloth"},
	{"LAD-040", "Aluminum step ladder"},
	{"SCR-050", "Drywall screws box"},
}

func main() {
	var (
		outputDir  = flag.String("output-dir", "generated_pairs", "Output directory for generated files")
		count      = flag.Int("count", 100, "Number of invoice/PO pairs to generate")
		matchRatio = flag.Float64("match-ratio", 0.8, "Fraction of invoices that match their PO cleanly")
		startDate  = flag.String("start-date", "2024-01-01", "Earliest order date (YYYY-MM-DD)")
		seed       = flag.Int64("seed", time.Now().UnixNano(), "Random seed for reproducible generation")
	)
	flag.Parse()

	start, err := time.Parse("2006-01-02", *startDate)
	if err != nil {
		log.Fatalf("Invalid start date: %v", err)
	}
	if *matchRatio < 0 || *matchRatio > 1 {
		log.Fatalf("match-ratio must be between 0.0 and 1.0, got %f", *matchRatio)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	generator := &PairGenerator{
		Count:      *count,
		MatchRatio: *matchRatio,
		StartDate:  start,
		Seed:       *seed,
		rng:        rand.New(rand.NewSource(*seed)),
	}

	pos, invoices := generator.Generate()

	if err := writeJSON(filepath.Join(*outputDir, "purchase_orders.json"), pos); err != nil {
		log.Fatalf("Failed to write purchase orders: %v", err)
	}
	if err := writeJSON(filepath.Join(*outputDir, "invoices.json"), invoices); err != nil {
		log.Fatalf("Failed to write invoices: %v", err)
	}

	fmt.Printf("Generated %d purchase orders and %d invoices in %s\n", len(pos), len(invoices), *outputDir)
	fmt.Printf("Seed used: %d\n", generator.Seed)
}

// Generate produces the PO list and the invoice list. Invoices past the
// match-ratio cutoff carry one injected discrepancy each.
func (pg *PairGenerator) Generate() ([]poDoc, []invoiceDoc) {
	pos := make([]poDoc, 0, pg.Count)
	invoices := make([]invoiceDoc, 0, pg.Count)
	cleanCount := int(float64(pg.Count) * pg.MatchRatio)

	for i := 0; i < pg.Count; i++ {
		po := pg.generatePO(i)
		invoice := pg.invoiceFor(po, i)

		if i >= cleanCount {
			pg.injectDiscrepancy(&invoice, i)
		}

		pos = append(pos, po)
		invoices = append(invoices, invoice)
	}

	return pos, invoices
}

func (pg *PairGenerator) generatePO(index int) poDoc {
	lineCount := 1 + pg.rng.Intn(4)
	lines := make([]lineDoc, 0, lineCount)
	total := decimal.Zero

	picked := pg.rng.Perm(len(products))[:lineCount]
	for n, p := range picked {
		product := products[p]
		qty := decimal.NewFromInt(int64(1 + pg.rng.Intn(20)))
		price := decimal.NewFromFloat(float64(pg.rng.Intn(20000)+100) / 100).Round(2)

		lines = append(lines, lineDoc{
			LineNo:      n + 1,
			SKU:         product.SKU,
			Description: product.Desc,
			Quantity:    qty,
			UnitPrice:   price,
		})
		total = total.Add(qty.Mul(price))
	}

	orderDate := pg.StartDate.AddDate(0, 0, pg.rng.Intn(300))
	return poDoc{
		PONumber:    fmt.Sprintf("PO-2024-%04d", index+1),
		VendorName:  vendors[pg.rng.Intn(len(vendors))],
		Currency:    "USD",
		TotalAmount: total,
		OrderDate:   orderDate.Format("2006-01-02"),
		Lines:       lines,
	}
}

// invoiceFor builds a clean invoice for a PO: same vendor, currency, total
// and lines, dated a few days after the order.
func (pg *PairGenerator) invoiceFor(po poDoc, index int) invoiceDoc {
	orderDate, _ := time.Parse("2006-01-02", po.OrderDate)
	invoiceDate := orderDate.AddDate(0, 0, 1+pg.rng.Intn(14))

	lines := make([]lineDoc, len(po.Lines))
	copy(lines, po.Lines)

	return invoiceDoc{
		InvoiceNumber: fmt.Sprintf("INV-2024-%04d", index+1),
		VendorName:    po.VendorName,
		Currency:      po.Currency,
		TotalAmount:   po.TotalAmount,
		InvoiceDate:   invoiceDate.Format("2006-01-02"),
		PONumber:      po.PONumber,
		Lines:         lines,
	}
}

// injectDiscrepancy mutates one aspect of the invoice so that matching it
// against its PO raises an issue.
func (pg *PairGenerator) injectDiscrepancy(invoice *invoiceDoc, index int) {
	switch pg.rng.Intn(5) {
	case 0:
		// Total drift between 2% and 8% of the PO total
		drift := 0.02 + pg.rng.Float64()*0.06
		factor := decimal.NewFromFloat(1 + drift)
		invoice.TotalAmount = invoice.TotalAmount.Mul(factor).Round(2)
	case 1:
		invoice.Currency = "EUR"
	case 2:
		invoice.PONumber = fmt.Sprintf("PO-2024-%04d", 9000+index)
	case 3:
		// Quantity bump on the first line, total recomputed to stay consistent
		line := &invoice.Lines[0]
		line.Quantity = line.Quantity.Add(decimal.NewFromInt(int64(1 + pg.rng.Intn(5))))
		total := decimal.Zero
		for _, l := range invoice.Lines {
			total = total.Add(l.Quantity.Mul(l.UnitPrice))
		}
		invoice.TotalAmount = total
	case 4:
		// Extra line the PO never ordered
		extra := products[pg.rng.Intn(len(products))]
		qty := decimal.NewFromInt(int64(1 + pg.rng.Intn(5)))
		price := decimal.NewFromFloat(float64(pg.rng.Intn(5000)+100) / 100).Round(2)
		invoice.Lines = append(invoice.Lines, lineDoc{
			LineNo:      len(invoice.Lines) + 1,
			SKU:         extra.SKU + "-X",
			Description: extra.Desc + " deluxe",
			Quantity:    qty,
			UnitPrice:   price,
		})
		invoice.TotalAmount = invoice.TotalAmount.Add(qty.Mul(price))
	}
}

func writeJSON(path string, v interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
