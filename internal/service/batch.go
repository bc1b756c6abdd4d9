package service

import (
	"invoice-matching-service/internal/models"
	"invoice-matching-service/pkg/logger"

	"github.com/google/uuid"
)

// BatchOutcome records what happened to one invoice in a batch
type BatchOutcome struct {
	InvoiceNumber string                 `json:"invoice_number"`
	PairID        uuid.UUID              `json:"pair_id,omitempty"`
	Result        *models.MatchingResult `json:"result,omitempty"`
	Err           error                  `json:"-"`
	ErrorMessage  string                 `json:"error,omitempty"`
}

// BatchSummary aggregates a batch matching run
type BatchSummary struct {
	Total       int            `json:"total"`
	Matched     int            `json:"matched"`
	NeedsReview int            `json:"needs_review"`
	Failed      int            `json:"failed"`
	Outcomes    []*BatchOutcome `json:"outcomes"`
}

// MatchBatch ingests and matches a batch of invoices. Per-invoice failures
// (malformed data) are recorded in the summary, never abort the batch; the
// remaining invoices are still processed.
func (s *Service) MatchBatch(invoices []*models.Invoice, actor string) *BatchSummary {
	summary := &BatchSummary{Total: len(invoices)}
	tracker := logger.NewProgressTracker("batch matching", int64(len(invoices)), s.log)

	for _, invoice := range invoices {
		outcome := &BatchOutcome{}
		if invoice != nil {
			outcome.InvoiceNumber = invoice.InvoiceNumber
		}
		summary.Outcomes = append(summary.Outcomes, outcome)

		pair, err := s.IngestInvoice(invoice, actor)
		if err != nil {
			outcome.Err = err
			outcome.ErrorMessage = err.Error()
			summary.Failed++
			tracker.Increment(true)
			continue
		}
		outcome.PairID = pair.ID

		result, err := s.Match(pair.ID, invoice, actor)
		if err != nil {
			outcome.Err = err
			outcome.ErrorMessage = err.Error()
			summary.Failed++
			tracker.Increment(true)
			continue
		}
		outcome.Result = result

		if result.MatchStatus == models.StatusMatched {
			summary.Matched++
		} else {
			summary.NeedsReview++
		}
		tracker.Increment(false)
	}

	tracker.Done()
	return summary
}
