// Package store defines the persistence boundary of the matching core and
// provides an in-memory implementation. The core treats storage as simple
// load/save calls; swapping in a database-backed implementation only needs
// these interfaces.
package store

import (
	"invoice-matching-service/internal/models"
	"invoice-matching-service/internal/queue"
	"invoice-matching-service/internal/workflow"

	"github.com/google/uuid"
)

// POStore looks up purchase orders by PO number. Absence is reported, not
// an error, because a missing PO is an expected matching outcome.
type POStore interface {
	SavePO(po *models.PurchaseOrder) error
	GetPO(poNumber string) (*models.PurchaseOrder, bool)
}

// PairStore persists document pairs
type PairStore interface {
	SavePair(pair *workflow.DocumentPair) error
	GetPair(id uuid.UUID) (*workflow.DocumentPair, error)
	ListPairs() []*workflow.DocumentPair
}

// ResultStore persists matching results
type ResultStore interface {
	SaveResult(result *models.MatchingResult) error
	GetResult(id uuid.UUID) (*models.MatchingResult, error)
}

// QueueStore persists review queue items
type QueueStore interface {
	SaveItem(item *queue.ReviewQueueItem) error
	GetItem(id uuid.UUID) (*queue.ReviewQueueItem, error)
	OpenItemForResult(resultID uuid.UUID) (*queue.ReviewQueueItem, bool)
	OpenItems() []*queue.ReviewQueueItem
}

// InvoiceRegistry tracks which invoice numbers have been submitted per
// vendor, backing the duplicate invoice check. Registrations carry the
// owning pair so re-matching a pair never flags its own submission.
type InvoiceRegistry interface {
	RegisterInvoice(invoiceNumber, vendorName string, pairID uuid.UUID)
	IsDuplicateInvoice(invoiceNumber, vendorName string, excludePairID uuid.UUID) bool
}

// Store is the full persistence surface the service layer depends on
type Store interface {
	POStore
	PairStore
	ResultStore
	QueueStore
	InvoiceRegistry
}
