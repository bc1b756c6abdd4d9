package store

import (
	"sort"
	"strings"
	"sync"

	"invoice-matching-service/internal/models"
	"invoice-matching-service/internal/queue"
	"invoice-matching-service/internal/workflow"
	apperrors "invoice-matching-service/pkg/errors"

	"github.com/google/uuid"
)

// MemoryStore is a thread-safe in-memory implementation of Store. It keeps
// pointers, not copies: the service layer serializes mutations per pair, so
// shared references are safe under that discipline.
type MemoryStore struct {
	mu sync.RWMutex

	pos      map[string]*models.PurchaseOrder
	pairs    map[uuid.UUID]*workflow.DocumentPair
	results  map[uuid.UUID]*models.MatchingResult
	items    map[uuid.UUID]*queue.ReviewQueueItem
	invoices map[string]map[uuid.UUID]bool
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		pos:      make(map[string]*models.PurchaseOrder),
		pairs:    make(map[uuid.UUID]*workflow.DocumentPair),
		results:  make(map[uuid.UUID]*models.MatchingResult),
		items:    make(map[uuid.UUID]*queue.ReviewQueueItem),
		invoices: make(map[string]map[uuid.UUID]bool),
	}
}

// SavePO stores a purchase order keyed by its normalized PO number
func (s *MemoryStore) SavePO(po *models.PurchaseOrder) error {
	if po == nil {
		return apperrors.DataError(apperrors.CodeMissingField, "purchase_order", nil)
	}
	po.Normalize()
	if err := po.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pos[po.PONumber] = po
	return nil
}

// GetPO looks up a purchase order by PO number
func (s *MemoryStore) GetPO(poNumber string) (*models.PurchaseOrder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	po, ok := s.pos[strings.TrimSpace(poNumber)]
	return po, ok
}

// SavePair stores a document pair
func (s *MemoryStore) SavePair(pair *workflow.DocumentPair) error {
	if pair == nil {
		return apperrors.DataError(apperrors.CodeMissingField, "pair", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pairs[pair.ID] = pair
	return nil
}

// GetPair loads a document pair by id
func (s *MemoryStore) GetPair(id uuid.UUID) (*workflow.DocumentPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pair, ok := s.pairs[id]
	if !ok {
		return nil, apperrors.NotFoundError(apperrors.CodePairNotFound, id.String())
	}
	return pair, nil
}

// ListPairs returns all pairs ordered by creation time
func (s *MemoryStore) ListPairs() []*workflow.DocumentPair {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*workflow.DocumentPair, 0, len(s.pairs))
	for _, pair := range s.pairs {
		out = append(out, pair)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// SaveResult stores a matching result
func (s *MemoryStore) SaveResult(result *models.MatchingResult) error {
	if result == nil {
		return apperrors.DataError(apperrors.CodeMissingField, "result", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.ID] = result
	return nil
}

// GetResult loads a matching result by id
func (s *MemoryStore) GetResult(id uuid.UUID) (*models.MatchingResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, ok := s.results[id]
	if !ok {
		return nil, apperrors.NotFoundError(apperrors.CodeResultNotFound, id.String())
	}
	return result, nil
}

// SaveItem stores a review queue item
func (s *MemoryStore) SaveItem(item *queue.ReviewQueueItem) error {
	if item == nil {
		return apperrors.DataError(apperrors.CodeMissingField, "queue_item", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
	return nil
}

// GetItem loads a review queue item by id
func (s *MemoryStore) GetItem(id uuid.UUID) (*queue.ReviewQueueItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, apperrors.NotFoundError(apperrors.CodeQueueItemNotFound, id.String())
	}
	return item, nil
}

// OpenItemForResult returns the open queue item referencing a result, if any
func (s *MemoryStore) OpenItemForResult(resultID uuid.UUID) (*queue.ReviewQueueItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.items {
		if item.ResultID == resultID && item.Open() {
			return item, true
		}
	}
	return nil, false
}

// OpenItems returns open queue items ordered by priority then deadline,
// most urgent first
func (s *MemoryStore) OpenItems() []*queue.ReviewQueueItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*queue.ReviewQueueItem
	for _, item := range s.items {
		if item.Open() {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority.Rank() != out[j].Priority.Rank() {
			return out[i].Priority.Rank() > out[j].Priority.Rank()
		}
		return out[i].SLADeadline.Before(out[j].SLADeadline)
	})
	return out
}

// RegisterInvoice records an invoice number as submitted for a vendor by
// the given pair
func (s *MemoryStore) RegisterInvoice(invoiceNumber, vendorName string, pairID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := invoiceKey(invoiceNumber, vendorName)
	if s.invoices[key] == nil {
		s.invoices[key] = make(map[uuid.UUID]bool)
	}
	s.invoices[key][pairID] = true
}

// IsDuplicateInvoice reports whether another pair already submitted the
// same invoice number for the vendor
func (s *MemoryStore) IsDuplicateInvoice(invoiceNumber, vendorName string, excludePairID uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for pairID := range s.invoices[invoiceKey(invoiceNumber, vendorName)] {
		if pairID != excludePairID {
			return true
		}
	}
	return false
}

func invoiceKey(invoiceNumber, vendorName string) string {
	return strings.ToLower(strings.TrimSpace(vendorName)) + "|" + strings.TrimSpace(invoiceNumber)
}
