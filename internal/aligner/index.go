package aligner

import (
	"sort"

	"invoice-matching-service/internal/models"
)

// POLineIndex tracks purchase order lines during alignment, supporting SKU
// lookups and claim bookkeeping so each PO line pairs at most once.
type POLineIndex struct {
	// BySKU maps a SKU to the PO lines carrying it. SKU pairing only
	// fires when exactly one unclaimed line carries the SKU.
	BySKU map[string][]*models.POLine

	// AllLines holds every indexed PO line sorted by line number, which
	// keeps iteration independent of input order.
	AllLines []*models.POLine

	// claimed is keyed by line identity, not line number: extraction
	// output can repeat a line number and each physical line still pairs
	// at most once.
	claimed map[*models.POLine]bool
}

// NewPOLineIndex builds an index over the given PO lines
func NewPOLineIndex(lines []*models.POLine) *POLineIndex {
	index := &POLineIndex{
		BySKU:   make(map[string][]*models.POLine),
		claimed: make(map[*models.POLine]bool),
	}

	index.AllLines = make([]*models.POLine, len(lines))
	copy(index.AllLines, lines)
	sort.SliceStable(index.AllLines, func(i, j int) bool {
		return index.AllLines[i].LineNo < index.AllLines[j].LineNo
	})

	for _, line := range index.AllLines {
		if line.SKU != "" {
			index.BySKU[line.SKU] = append(index.BySKU[line.SKU], line)
		}
	}

	return index
}

// UniqueUnclaimedBySKU returns the single unclaimed PO line carrying the
// given SKU, or nil when zero or more than one candidate exists
func (idx *POLineIndex) UniqueUnclaimedBySKU(sku string) *models.POLine {
	if sku == "" {
		return nil
	}

	var found *models.POLine
	for _, line := range idx.BySKU[sku] {
		if idx.claimed[line] {
			continue
		}
		if found != nil {
			return nil // ambiguous
		}
		found = line
	}

	return found
}

// Unclaimed returns the unclaimed PO lines in line number order
func (idx *POLineIndex) Unclaimed() []*models.POLine {
	var out []*models.POLine
	for _, line := range idx.AllLines {
		if !idx.claimed[line] {
			out = append(out, line)
		}
	}
	return out
}

// Claim marks a PO line as paired
func (idx *POLineIndex) Claim(line *models.POLine) {
	idx.claimed[line] = true
}
