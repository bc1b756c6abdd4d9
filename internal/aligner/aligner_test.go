package aligner

import (
	"reflect"
	"testing"

	"invoice-matching-service/internal/models"

	"github.com/shopspring/decimal"
)

func invLine(no int, sku, desc string, qty, price int64) *models.InvoiceLine {
	return &models.InvoiceLine{
		LineNo:      no,
		SKU:         sku,
		Description: desc,
		Quantity:    decimal.NewFromInt(qty),
		UnitPrice:   decimal.NewFromInt(price),
	}
}

func poLine(no int, sku, desc string, qty, price int64) *models.POLine {
	return &models.POLine{
		LineNo:      no,
		SKU:         sku,
		Description: desc,
		Quantity:    decimal.NewFromInt(qty),
		UnitPrice:   decimal.NewFromInt(price),
	}
}

func TestAlignExactSKUPairing(t *testing.T) {
	a := New(DefaultConfig())

	comparisons := a.Align(
		[]*models.InvoiceLine{
			invLine(1, "SKU-A", "Blue paint gallon", 10, 25),
			invLine(2, "SKU-B", "Paint brush", 5, 4),
		},
		[]*models.POLine{
			poLine(1, "SKU-A", "Blue paint gallon", 10, 25),
			poLine(2, "SKU-B", "Paint brush", 5, 4),
		},
	)

	if len(comparisons) != 2 {
		t.Fatalf("expected 2 comparisons, got %d", len(comparisons))
	}
	for _, lic := range comparisons {
		if lic.OverallMatch != models.LineMatchPerfect {
			t.Errorf("line %d: expected perfect match, got %s", lic.LineNumber, lic.OverallMatch)
		}
		if lic.PairedBySimilarity {
			t.Errorf("line %d: SKU pairing should not be marked as similarity pairing", lic.LineNumber)
		}
	}
}

func TestAlignDuplicateSKUFallsToSimilarity(t *testing.T) {
	a := New(DefaultConfig())

	// Two PO lines share a SKU, so the SKU pass must skip them and the
	// description pass decides the pairing.
	comparisons := a.Align(
		[]*models.InvoiceLine{
			invLine(1, "SKU-A", "Blue paint gallon", 10, 25),
		},
		[]*models.POLine{
			poLine(1, "SKU-A", "Blue paint gallon", 10, 25),
			poLine(2, "SKU-A", "White primer gallon", 4, 30),
		},
	)

	if len(comparisons) != 2 {
		t.Fatalf("expected 2 comparisons, got %d", len(comparisons))
	}

	paired := comparisons[0]
	if paired.POLine == nil || paired.POLine.LineNo != 1 {
		t.Fatalf("expected invoice line paired with PO line 1, got %+v", paired.POLine)
	}
	if !paired.PairedBySimilarity {
		t.Error("ambiguous SKU should force similarity pairing")
	}
	if paired.OverallMatch != models.LineMatchPartial {
		t.Errorf("similarity pairing should classify as partial, got %s", paired.OverallMatch)
	}

	leftover := comparisons[1]
	if leftover.OverallMatch != models.LineMatchMissing || leftover.POLine == nil {
		t.Errorf("unclaimed PO line should be reported missing, got %+v", leftover)
	}
}

func TestAlignSimilarityThreshold(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		desc      string
		poDesc    string
		paired    bool
	}{
		{"close description pairs", 0.6, "Blue paint gal", "Blue paint gallon", true},
		{"unrelated description stays unpaired", 0.6, "Aluminum ladder", "Masking tape roll", false},
		{"high threshold rejects close description", 0.95, "Blue paint gal", "Blue paint gallon", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			config.DescriptionThreshold = tt.threshold
			a := New(config)

			comparisons := a.Align(
				[]*models.InvoiceLine{invLine(1, "", tt.desc, 10, 25)},
				[]*models.POLine{poLine(1, "", tt.poDesc, 10, 25)},
			)

			if tt.paired {
				if len(comparisons) != 1 {
					t.Fatalf("expected 1 comparison for a paired line, got %d", len(comparisons))
				}
				if comparisons[0].OverallMatch != models.LineMatchPartial {
					t.Errorf("expected partial match, got %s", comparisons[0].OverallMatch)
				}
				if comparisons[0].PairingSimilarity < tt.threshold {
					t.Errorf("recorded similarity %.2f below threshold %.2f", comparisons[0].PairingSimilarity, tt.threshold)
				}
			} else {
				if len(comparisons) != 2 {
					t.Fatalf("expected 2 missing markers for an unpaired line, got %d", len(comparisons))
				}
				for _, lic := range comparisons {
					if lic.OverallMatch != models.LineMatchMissing {
						t.Errorf("expected missing, got %s", lic.OverallMatch)
					}
				}
			}
		})
	}
}

func TestAlignTieBreakByPOLineNumber(t *testing.T) {
	a := New(DefaultConfig())

	// Both PO lines carry the identical description; the lower line number
	// must win the tie.
	comparisons := a.Align(
		[]*models.InvoiceLine{invLine(1, "", "Canvas drop cloth", 4, 50)},
		[]*models.POLine{
			poLine(2, "", "Canvas drop cloth", 4, 50),
			poLine(1, "", "Canvas drop cloth", 4, 50),
		},
	)

	if comparisons[0].POLine == nil || comparisons[0].POLine.LineNo != 1 {
		t.Errorf("tie should break to the lowest PO line number, got %+v", comparisons[0].POLine)
	}
}

func TestAlignQuantityMismatch(t *testing.T) {
	a := New(DefaultConfig())

	comparisons := a.Align(
		[]*models.InvoiceLine{invLine(1, "SKU-A", "Blue paint gallon", 13, 25)},
		[]*models.POLine{poLine(1, "SKU-A", "Blue paint gallon", 10, 25)},
	)

	lic := comparisons[0]
	if lic.OverallMatch != models.LineMatchMismatch {
		t.Fatalf("expected mismatch, got %s", lic.OverallMatch)
	}

	var failed []string
	for _, fc := range lic.FieldComparisons {
		if !fc.Match {
			failed = append(failed, fc.FieldName)
		}
	}
	if !reflect.DeepEqual(failed, []string{"quantity"}) {
		t.Errorf("expected only quantity to fail, got %v", failed)
	}
}

func TestAlignMissingOnBothSides(t *testing.T) {
	a := New(DefaultConfig())

	comparisons := a.Align(
		[]*models.InvoiceLine{
			invLine(1, "SKU-A", "Blue paint gallon", 10, 25),
			invLine(2, "SKU-X", "Surprise charge", 1, 99),
		},
		[]*models.POLine{
			poLine(1, "SKU-A", "Blue paint gallon", 10, 25),
			poLine(2, "SKU-B", "Masking tape roll", 30, 6),
		},
	)

	if len(comparisons) != 3 {
		t.Fatalf("expected 3 comparisons, got %d", len(comparisons))
	}

	// Invoice-side entries first, then unclaimed PO lines
	if comparisons[0].OverallMatch != models.LineMatchPerfect {
		t.Errorf("expected first entry perfect, got %s", comparisons[0].OverallMatch)
	}
	if comparisons[1].InvoiceLine == nil || comparisons[1].OverallMatch != models.LineMatchMissing {
		t.Errorf("expected invoice-only line reported missing, got %+v", comparisons[1])
	}
	if comparisons[2].POLine == nil || comparisons[2].OverallMatch != models.LineMatchMissing {
		t.Errorf("expected PO-only line reported missing, got %+v", comparisons[2])
	}
}

func TestAlignDeterministicUnderPermutation(t *testing.T) {
	a := New(DefaultConfig())

	invoiceLines := []*models.InvoiceLine{
		invLine(1, "SKU-A", "Blue paint gallon", 10, 25),
		invLine(2, "", "Paint brush 2 in", 5, 4),
	}
	poLines := []*models.POLine{
		poLine(1, "SKU-A", "Blue paint gallon", 10, 25),
		poLine(2, "SKU-B", "Paint brush 2 inch", 5, 4),
		poLine(3, "SKU-C", "Canvas drop cloth", 4, 50),
	}
	permuted := []*models.POLine{poLines[2], poLines[0], poLines[1]}

	first := a.Align(invoiceLines, poLines)
	second := a.Align(invoiceLines, permuted)

	if len(first) != len(second) {
		t.Fatalf("permutation changed comparison count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].OverallMatch != second[i].OverallMatch {
			t.Errorf("entry %d: match class changed under permutation: %s vs %s",
				i, first[i].OverallMatch, second[i].OverallMatch)
		}
		firstPO, secondPO := first[i].POLine, second[i].POLine
		if (firstPO == nil) != (secondPO == nil) {
			t.Errorf("entry %d: pairing changed under permutation", i)
			continue
		}
		if firstPO != nil && firstPO.LineNo != secondPO.LineNo {
			t.Errorf("entry %d: paired PO line changed under permutation: %d vs %d",
				i, firstPO.LineNo, secondPO.LineNo)
		}
	}
}

func TestAlignDuplicateInvoiceLineNumbers(t *testing.T) {
	a := New(DefaultConfig())

	// Extraction output can repeat a line number; both physical lines must
	// survive alignment with their own pairing.
	comparisons := a.Align(
		[]*models.InvoiceLine{
			invLine(1, "A-100", "Blue paint gallon", 10, 25),
			invLine(1, "B-200", "Masking tape roll", 30, 6),
		},
		[]*models.POLine{
			poLine(1, "A-100", "Blue paint gallon", 10, 25),
			poLine(2, "B-200", "Masking tape roll", 30, 6),
		},
	)

	if len(comparisons) != 2 {
		t.Fatalf("expected 2 comparisons, got %d", len(comparisons))
	}

	seen := make(map[string]*models.LineItemComparison)
	for _, lic := range comparisons {
		if lic.InvoiceLine == nil || lic.POLine == nil {
			t.Fatalf("expected both sides paired, got %+v", lic)
		}
		seen[lic.InvoiceLine.SKU] = lic
	}

	for _, sku := range []string{"A-100", "B-200"} {
		lic, ok := seen[sku]
		if !ok {
			t.Fatalf("invoice line with SKU %s vanished from the output", sku)
		}
		if lic.POLine.SKU != sku {
			t.Errorf("SKU %s paired with PO line carrying %s", sku, lic.POLine.SKU)
		}
		if lic.OverallMatch != models.LineMatchPerfect {
			t.Errorf("SKU %s: expected perfect match, got %s", sku, lic.OverallMatch)
		}
	}
}

func TestAlignDuplicatePOLineNumbers(t *testing.T) {
	a := New(DefaultConfig())

	// Two distinct PO lines sharing a line number both take part: one pairs,
	// the other is reported missing instead of being masked by the claim of
	// its twin.
	comparisons := a.Align(
		[]*models.InvoiceLine{invLine(1, "A-100", "Blue paint gallon", 10, 25)},
		[]*models.POLine{
			poLine(1, "A-100", "Blue paint gallon", 10, 25),
			poLine(1, "B-200", "Masking tape roll", 30, 6),
		},
	)

	if len(comparisons) != 2 {
		t.Fatalf("expected 2 comparisons, got %d", len(comparisons))
	}
	if comparisons[0].OverallMatch != models.LineMatchPerfect || comparisons[0].POLine.SKU != "A-100" {
		t.Errorf("expected SKU pairing with A-100, got %+v", comparisons[0])
	}
	if comparisons[1].OverallMatch != models.LineMatchMissing || comparisons[1].POLine == nil ||
		comparisons[1].POLine.SKU != "B-200" {
		t.Errorf("expected the unclaimed duplicate-numbered PO line reported missing, got %+v", comparisons[1])
	}
}

func TestAlignEmptyInputs(t *testing.T) {
	a := New(DefaultConfig())

	if got := a.Align(nil, nil); len(got) != 0 {
		t.Errorf("expected no comparisons for empty inputs, got %d", len(got))
	}

	poOnly := a.Align(nil, []*models.POLine{poLine(1, "SKU-A", "Blue paint gallon", 10, 25)})
	if len(poOnly) != 1 || poOnly[0].OverallMatch != models.LineMatchMissing {
		t.Errorf("PO-only input should yield one missing marker, got %+v", poOnly)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}

	invalid := []*Config{
		{DescriptionThreshold: -0.1, QuantityTolerance: 0.01, PriceTolerance: 0.01},
		{DescriptionThreshold: 0.6, QuantityTolerance: 1.1, PriceTolerance: 0.01},
		{DescriptionThreshold: 0.6, QuantityTolerance: 0.01, PriceTolerance: -1},
	}
	for i, config := range invalid {
		if err := config.Validate(); err == nil {
			t.Errorf("config %d should be invalid", i)
		}
	}
}
