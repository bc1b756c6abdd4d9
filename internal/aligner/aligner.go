// Package aligner pairs invoice lines with purchase order lines.
//
// Alignment runs in three passes:
//  1. Exact SKU pairing, greedy in invoice line order; a SKU pairs only
//     when exactly one unclaimed PO line carries it.
//  2. Description similarity pairing for the remainder, best candidate at
//     or above the threshold, ties broken by ascending PO line number.
//  3. Missing markers for lines left unpaired on either side.
//
// The passes are deterministic and order-stable: re-running alignment on
// identical input, or on a PO with permuted line order, yields identical
// pairings.
package aligner

import (
	"fmt"
	"sort"

	"invoice-matching-service/internal/comparator"
	"invoice-matching-service/internal/models"
)

// Config holds alignment parameters
type Config struct {
	// DescriptionThreshold is the minimum similarity for the description
	// pairing pass.
	DescriptionThreshold float64 `json:"description_threshold"`

	// QuantityTolerance is the relative tolerance for quantity comparison
	// on paired lines.
	QuantityTolerance float64 `json:"quantity_tolerance"`

	// PriceTolerance is the relative tolerance for unit price comparison
	// on paired lines.
	PriceTolerance float64 `json:"price_tolerance"`
}

// DefaultConfig returns alignment defaults
func DefaultConfig() *Config {
	return &Config{
		DescriptionThreshold: 0.6,
		QuantityTolerance:    0.01,
		PriceTolerance:       0.01,
	}
}

// Validate checks if the alignment configuration is valid
func (c *Config) Validate() error {
	if c.DescriptionThreshold < 0.0 || c.DescriptionThreshold > 1.0 {
		return fmt.Errorf("description threshold must be between 0.0 and 1.0: %f", c.DescriptionThreshold)
	}
	if c.QuantityTolerance < 0.0 || c.QuantityTolerance > 1.0 {
		return fmt.Errorf("quantity tolerance must be between 0.0 and 1.0: %f", c.QuantityTolerance)
	}
	if c.PriceTolerance < 0.0 || c.PriceTolerance > 1.0 {
		return fmt.Errorf("price tolerance must be between 0.0 and 1.0: %f", c.PriceTolerance)
	}
	return nil
}

// Aligner pairs invoice lines against PO lines
type Aligner struct {
	Config *Config
}

// New creates an aligner with the given configuration
func New(config *Config) *Aligner {
	if config == nil {
		config = DefaultConfig()
	}
	return &Aligner{Config: config}
}

type pairing struct {
	invoiceLine  *models.InvoiceLine
	poLine       *models.POLine
	bySimilarity bool
	similarity   float64
}

// Align produces one LineItemComparison per line in the union of both
// documents: paired lines first in invoice line order, then unclaimed PO
// lines in PO line order.
func (a *Aligner) Align(invoiceLines []*models.InvoiceLine, poLines []*models.POLine) []*models.LineItemComparison {
	index := NewPOLineIndex(poLines)

	sortedInvoice := make([]*models.InvoiceLine, len(invoiceLines))
	copy(sortedInvoice, invoiceLines)
	sort.SliceStable(sortedInvoice, func(i, j int) bool {
		return sortedInvoice[i].LineNo < sortedInvoice[j].LineNo
	})

	// Pairings are keyed by slice position, not line number: extraction
	// output can repeat a line number and every physical line must still
	// appear in the output.
	pairings := make(map[int]*pairing, len(sortedInvoice))

	// Pass 1: exact SKU pairing, greedy in invoice line order
	for i, invLine := range sortedInvoice {
		if poLine := index.UniqueUnclaimedBySKU(invLine.SKU); poLine != nil {
			index.Claim(poLine)
			pairings[i] = &pairing{invoiceLine: invLine, poLine: poLine}
		}
	}

	// Pass 2: description similarity for remaining invoice lines
	for i, invLine := range sortedInvoice {
		if _, done := pairings[i]; done {
			continue
		}

		var best *models.POLine
		bestSimilarity := 0.0
		// Unclaimed() iterates in PO line number order, so strict
		// improvement gives the ascending-line-number tie break.
		for _, poLine := range index.Unclaimed() {
			similarity := comparator.Similarity(invLine.Description, poLine.Description)
			if similarity >= a.Config.DescriptionThreshold && similarity > bestSimilarity {
				best = poLine
				bestSimilarity = similarity
			}
		}

		if best != nil {
			index.Claim(best)
			pairings[i] = &pairing{
				invoiceLine:  invLine,
				poLine:       best,
				bySimilarity: true,
				similarity:   bestSimilarity,
			}
		}
	}

	// Build output: invoice-side entries first, then unclaimed PO lines
	var comparisons []*models.LineItemComparison
	for i, invLine := range sortedInvoice {
		if p, ok := pairings[i]; ok {
			comparisons = append(comparisons, a.comparePair(p))
		} else {
			comparisons = append(comparisons, &models.LineItemComparison{
				LineNumber:   invLine.LineNo,
				InvoiceLine:  invLine,
				OverallMatch: models.LineMatchMissing,
			})
		}
	}

	for _, poLine := range index.Unclaimed() {
		comparisons = append(comparisons, &models.LineItemComparison{
			LineNumber:   poLine.LineNo,
			POLine:       poLine,
			OverallMatch: models.LineMatchMissing,
		})
	}

	return comparisons
}

// comparePair runs field comparisons on a paired line and classifies the
// overall outcome
func (a *Aligner) comparePair(p *pairing) *models.LineItemComparison {
	quantity := comparator.CompareDecimal("quantity",
		&p.invoiceLine.Quantity, &p.poLine.Quantity,
		comparator.NumericTolerance(a.Config.QuantityTolerance))

	unitPrice := comparator.CompareDecimal("unit_price",
		&p.invoiceLine.UnitPrice, &p.poLine.UnitPrice,
		comparator.NumericTolerance(a.Config.PriceTolerance))

	lic := &models.LineItemComparison{
		LineNumber:         p.invoiceLine.LineNo,
		InvoiceLine:        p.invoiceLine,
		POLine:             p.poLine,
		FieldComparisons:   []*models.FieldComparison{quantity, unitPrice},
		PairedBySimilarity: p.bySimilarity,
		PairingSimilarity:  p.similarity,
	}

	switch {
	case !quantity.Match || !unitPrice.Match:
		lic.OverallMatch = models.LineMatchMismatch
	case p.bySimilarity:
		lic.OverallMatch = models.LineMatchPartial
	default:
		lic.OverallMatch = models.LineMatchPerfect
	}

	return lic
}
