package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
)

// ScenarioGenerator creates fixed datasets that exercise specific matching
// behaviors. Unlike the pair generator the output is deterministic: each
// scenario directory contains invoices.json and purchase_orders.json whose
// expected outcome is documented in the scenario description.
type ScenarioGenerator struct {
	OutputDir string
}

type scenarioLine struct {
	LineNo      int             `json:"line_no"`
	SKU         string          `json:"sku,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type scenarioInvoice struct {
	InvoiceNumber string          `json:"invoice_number"`
	VendorName    string          `json:"vendor_name"`
	Currency      string          `json:"currency"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	InvoiceDate   string          `json:"invoice_date,omitempty"`
	PONumber      string          `json:"po_number"`
	Lines         []scenarioLine  `json:"lines"`
}

type scenarioPO struct {
	PONumber    string          `json:"po_number"`
	VendorName  string          `json:"vendor_name"`
	Currency    string          `json:"currency"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	OrderDate   string          `json:"order_date,omitempty"`
	Lines       []scenarioLine  `json:"lines"`
}

func main() {
	var (
		outputDir = flag.String("output-dir", "generated_scenarios", "Output directory for scenario files")
		scenario  = flag.String("scenario", "all", "Scenario to generate: all, clean, total-drift, missing-po, line-mismatch, currency, duplicates")
	)
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	generator := &ScenarioGenerator{OutputDir: *outputDir}

	switch *scenario {
	case "clean":
		generator.GenerateCleanScenario()
	case "total-drift":
		generator.GenerateTotalDriftScenario()
	case "missing-po":
		generator.GenerateMissingPOScenario()
	case "line-mismatch":
		generator.GenerateLineMismatchScenario()
	case "currency":
		generator.GenerateCurrencyScenario()
	case "duplicates":
		generator.GenerateDuplicateScenario()
	case "all":
		generator.GenerateAllScenarios()
	default:
		log.Fatalf("Unknown scenario: %s", *scenario)
	}

	fmt.Printf("Generated scenarios in %s\n", *outputDir)
}

// GenerateAllScenarios generates all predefined scenarios
func (sg *ScenarioGenerator) GenerateAllScenarios() {
	fmt.Println("Generating all scenarios...")
	sg.GenerateCleanScenario()
	sg.GenerateTotalDriftScenario()
	sg.GenerateMissingPOScenario()
	sg.GenerateLineMismatchScenario()
	sg.GenerateCurrencyScenario()
	sg.GenerateDuplicateScenario()
}

// GenerateCleanScenario creates one invoice that matches its PO exactly,
// including a fuzzy-but-acceptable vendor name variant. Expected: matched,
// confidence 1.0.
func (sg *ScenarioGenerator) GenerateCleanScenario() {
	fmt.Println("Generating clean match scenario...")

	lines := []scenarioLine{
		{LineNo: 1, SKU: "PNT-001", Description: "Blue paint gallon", Quantity: dec("10"), UnitPrice: dec("25.00")},
		{LineNo: 2, SKU: "BRH-010", Description: "Paint brush 2 inch", Quantity: dec("5"), UnitPrice: dec("4.50")},
	}

	pos := []scenarioPO{{
		PONumber:    "PO-CLEAN-001",
		VendorName:  "Acme Industrial Supply",
		Currency:    "USD",
		TotalAmount: dec("272.50"),
		OrderDate:   "2024-03-01",
		Lines:       lines,
	}}

	invoices := []scenarioInvoice{{
		InvoiceNumber: "INV-CLEAN-001",
		VendorName:    "ACME Industrial Supply Inc.",
		Currency:      "usd",
		TotalAmount:   dec("272.50"),
		InvoiceDate:   "2024-03-08",
		PONumber:      "po-clean-001",
		Lines:         lines,
	}}

	sg.writeScenario("clean", pos, invoices)
}

// GenerateTotalDriftScenario creates three invoices against one PO: within
// tolerance (0.5%), medium drift (3%), and high drift (8%). Expected: one
// matched, two needs_review.
func (sg *ScenarioGenerator) GenerateTotalDriftScenario() {
	fmt.Println("Generating total drift scenario...")

	lines := []scenarioLine{
		{LineNo: 1, SKU: "LAD-040", Description: "Aluminum step ladder", Quantity: dec("4"), UnitPrice: dec("250.00")},
	}

	pos := []scenarioPO{{
		PONumber:    "PO-DRIFT-001",
		VendorName:  "Northwind Traders",
		Currency:    "USD",
		TotalAmount: dec("1000.00"),
		OrderDate:   "2024-04-10",
		Lines:       lines,
	}}

	invoices := []scenarioInvoice{
		driftInvoice("INV-DRIFT-OK", "1005.00", lines),
		driftInvoice("INV-DRIFT-MED", "1030.00", lines),
		driftInvoice("INV-DRIFT-HIGH", "1080.00", lines),
	}

	sg.writeScenario("total_drift", pos, invoices)
}

func driftInvoice(number, total string, lines []scenarioLine) scenarioInvoice {
	return scenarioInvoice{
		InvoiceNumber: number,
		VendorName:    "Northwind Traders",
		Currency:      "USD",
		TotalAmount:   dec(total),
		InvoiceDate:   "2024-04-18",
		PONumber:      "PO-DRIFT-001",
		Lines:         lines,
	}
}

// GenerateMissingPOScenario creates an invoice referencing a PO that does
// not exist. Expected: needs_review with a single critical missing_po issue
// and confidence 0.0.
func (sg *ScenarioGenerator) GenerateMissingPOScenario() {
	fmt.Println("Generating missing PO scenario...")

	pos := []scenarioPO{{
		PONumber:    "PO-OTHER-001",
		VendorName:  "Globex Corporation",
		Currency:    "USD",
		TotalAmount: dec("500.00"),
		OrderDate:   "2024-05-01",
		Lines: []scenarioLine{
			{LineNo: 1, Description: "Canvas drop cloth", Quantity: dec("10"), UnitPrice: dec("50.00")},
		},
	}}

	invoices := []scenarioInvoice{{
		InvoiceNumber: "INV-NOPO-001",
		VendorName:    "Globex Corporation",
		Currency:      "USD",
		TotalAmount:   dec("500.00"),
		InvoiceDate:   "2024-05-05",
		PONumber:      "PO-MISSING-999",
		Lines: []scenarioLine{
			{LineNo: 1, Description: "Canvas drop cloth", Quantity: dec("10"), UnitPrice: dec("50.00")},
		},
	}}

	sg.writeScenario("missing_po", pos, invoices)
}

// GenerateLineMismatchScenario creates a PO with three lines where the
// invoice bills only two, one of them with a quantity bump and a slightly
// reworded description. Expected: needs_review with line_item_missing and
// line_item_mismatch issues.
func (sg *ScenarioGenerator) GenerateLineMismatchScenario() {
	fmt.Println("Generating line mismatch scenario...")

	pos := []scenarioPO{{
		PONumber:    "PO-LINE-001",
		VendorName:  "Initech Office Solutions",
		Currency:    "USD",
		TotalAmount: dec("645.00"),
		OrderDate:   "2024-06-01",
		Lines: []scenarioLine{
			{LineNo: 1, SKU: "PNT-001", Description: "Blue paint gallon", Quantity: dec("10"), UnitPrice: dec("25.00")},
			{LineNo: 2, SKU: "TPE-020", Description: "Masking tape roll", Quantity: dec("30"), UnitPrice: dec("6.50")},
			{LineNo: 3, SKU: "DRP-030", Description: "Canvas drop cloth", Quantity: dec("4"), UnitPrice: dec("50.00")},
		},
	}}

	invoices := []scenarioInvoice{{
		InvoiceNumber: "INV-LINE-001",
		VendorName:    "Initech Office Solutions",
		Currency:      "USD",
		TotalAmount:   dec("520.00"),
		InvoiceDate:   "2024-06-10",
		PONumber:      "PO-LINE-001",
		Lines: []scenarioLine{
			{LineNo: 1, SKU: "PNT-001", Description: "Blue paint gal", Quantity: dec("13"), UnitPrice: dec("25.00")},
			{LineNo: 2, SKU: "TPE-020", Description: "Masking tape roll", Quantity: dec("30"), UnitPrice: dec("6.50")},
		},
	}}

	sg.writeScenario("line_mismatch", pos, invoices)
}

// GenerateCurrencyScenario creates an invoice billed in a different currency
// than its PO. Expected: needs_review with a critical currency_mismatch.
func (sg *ScenarioGenerator) GenerateCurrencyScenario() {
	fmt.Println("Generating currency mismatch scenario...")

	lines := []scenarioLine{
		{LineNo: 1, SKU: "SCR-050", Description: "Drywall screws box", Quantity: dec("20"), UnitPrice: dec("12.00")},
	}

	pos := []scenarioPO{{
		PONumber:    "PO-CUR-001",
		VendorName:  "Stark Components",
		Currency:    "USD",
		TotalAmount: dec("240.00"),
		OrderDate:   "2024-07-01",
		Lines:       lines,
	}}

	invoices := []scenarioInvoice{{
		InvoiceNumber: "INV-CUR-001",
		VendorName:    "Stark Components",
		Currency:      "EUR",
		TotalAmount:   dec("240.00"),
		InvoiceDate:   "2024-07-06",
		PONumber:      "PO-CUR-001",
		Lines:         lines,
	}}

	sg.writeScenario("currency_mismatch", pos, invoices)
}

// GenerateDuplicateScenario creates two invoices with the same invoice
// number and vendor against the same PO. Expected: the second match raises
// a critical duplicate_invoice issue.
func (sg *ScenarioGenerator) GenerateDuplicateScenario() {
	fmt.Println("Generating duplicate invoice scenario...")

	lines := []scenarioLine{
		{LineNo: 1, SKU: "BRH-011", Description: "Paint roller 9 inch", Quantity: dec("12"), UnitPrice: dec("7.25")},
	}

	pos := []scenarioPO{{
		PONumber:    "PO-DUP-001",
		VendorName:  "Wayne Logistics",
		Currency:    "USD",
		TotalAmount: dec("87.00"),
		OrderDate:   "2024-08-01",
		Lines:       lines,
	}}

	first := scenarioInvoice{
		InvoiceNumber: "INV-DUP-001",
		VendorName:    "Wayne Logistics",
		Currency:      "USD",
		TotalAmount:   dec("87.00"),
		InvoiceDate:   "2024-08-04",
		PONumber:      "PO-DUP-001",
		Lines:         lines,
	}
	second := first
	second.InvoiceDate = "2024-08-11"

	sg.writeScenario("duplicates", pos, []scenarioInvoice{first, second})
}

func (sg *ScenarioGenerator) writeScenario(name string, pos []scenarioPO, invoices []scenarioInvoice) {
	dir := filepath.Join(sg.OutputDir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Fatalf("Failed to create scenario directory %s: %v", dir, err)
	}

	sg.writeJSON(filepath.Join(dir, "purchase_orders.json"), pos)
	sg.writeJSON(filepath.Join(dir, "invoices.json"), invoices)
}

func (sg *ScenarioGenerator) writeJSON(path string, v interface{}) {
	f, err := os.Create(path)
	if err != nil {
		log.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatalf("Failed to write %s: %v", path, err)
	}
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		log.Fatalf("Invalid decimal literal %q: %v", s, err)
	}
	return d
}
