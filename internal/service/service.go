// Package service orchestrates the matching core: it wires the engine,
// workflow state machine, review queue, and store behind the public
// operation surface (ingest, match, resolve, advance, approve, reject).
// All mutations on a document pair are serialized through a per-pair lock
// because transitions are not commutative.
package service

import (
	"strings"
	"sync"
	"time"

	"invoice-matching-service/internal/matcher"
	"invoice-matching-service/internal/models"
	"invoice-matching-service/internal/queue"
	"invoice-matching-service/internal/store"
	"invoice-matching-service/internal/workflow"
	apperrors "invoice-matching-service/pkg/errors"
	"invoice-matching-service/pkg/logger"

	"github.com/google/uuid"
)

// Config bundles the tunables of the matching service
type Config struct {
	Matching *matcher.Config  `json:"matching"`
	SLA      *queue.SLAConfig `json:"sla"`
}

// DefaultConfig returns the standard service configuration
func DefaultConfig() *Config {
	return &Config{
		Matching: matcher.DefaultConfig(),
		SLA:      queue.DefaultSLAConfig(),
	}
}

// Validate checks the nested configurations
func (c *Config) Validate() error {
	if c.Matching == nil {
		return apperrors.ConfigurationError(apperrors.CodeMissingConfig, "matching", nil)
	}
	if err := c.Matching.Validate(); err != nil {
		return apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "matching", err.Error())
	}
	if c.SLA == nil {
		return apperrors.ConfigurationError(apperrors.CodeMissingConfig, "sla", nil)
	}
	if err := c.SLA.Validate(); err != nil {
		return apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "sla", err.Error())
	}
	return nil
}

// Service is the public surface of the matching core
type Service struct {
	store  store.Store
	config *Config
	sink   EventSink
	log    logger.Logger

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// New creates a service over the given store. A nil sink discards events.
func New(s store.Store, config *Config, sink EventSink, log logger.Logger) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = NopSink{}
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	return &Service{
		store:  s,
		config: config,
		sink:   sink,
		log:    log.WithComponent("service"),
		locks:  make(map[uuid.UUID]*sync.Mutex),
	}, nil
}

// lockPair serializes mutations on one pair. Locks are never removed; the
// per-pair footprint is one mutex for the lifetime of the process.
func (s *Service) lockPair(pairID uuid.UUID) func() {
	s.mu.Lock()
	lock, ok := s.locks[pairID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[pairID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func (s *Service) emit(kind EventKind, pairID, itemID uuid.UUID, actor string, details map[string]interface{}) {
	s.sink.Publish(Event{
		Kind:    kind,
		PairID:  pairID,
		ItemID:  itemID,
		Actor:   actor,
		At:      time.Now().UTC(),
		Details: details,
	})
}

// IngestInvoice validates a normalized invoice, registers it for duplicate
// detection, and opens a document pair at the extracted stage
func (s *Service) IngestInvoice(invoice *models.Invoice, actor string) (*workflow.DocumentPair, error) {
	if invoice == nil {
		return nil, apperrors.DataError(apperrors.CodeMissingField, "invoice", nil)
	}

	invoice.Normalize()
	if err := invoice.Validate(); err != nil {
		return nil, err
	}

	pair := workflow.NewDocumentPair(invoice.InvoiceNumber, actor)
	if err := workflow.MarkExtracted(pair, actor); err != nil {
		return nil, err
	}
	if err := s.store.SavePair(pair); err != nil {
		return nil, err
	}

	s.store.RegisterInvoice(invoice.InvoiceNumber, invoice.VendorName, pair.ID)

	s.log.WithFields(logger.Fields{
		"pair_id": pair.ID,
		"invoice": invoice.InvoiceNumber,
		"vendor":  invoice.VendorName,
	}).Info("invoice ingested")

	return pair, nil
}

// registryChecker adapts the store registry to the engine's duplicate
// interface, excluding the pair being matched
type registryChecker struct {
	registry store.InvoiceRegistry
	pairID   uuid.UUID
}

func (c *registryChecker) IsDuplicate(invoiceNumber, vendorName string) bool {
	return c.registry.IsDuplicateInvoice(invoiceNumber, vendorName, c.pairID)
}

// Match runs the engine for a pair's invoice: the purchase order is looked
// up by the invoice's PO reference, the result attached to the pair, and
// the review queue synchronized. Re-matching an already matched pair
// replaces its latest result.
func (s *Service) Match(pairID uuid.UUID, invoice *models.Invoice, actor string) (*models.MatchingResult, error) {
	unlock := s.lockPair(pairID)
	defer unlock()

	pair, err := s.store.GetPair(pairID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, apperrors.DataError(apperrors.CodeMissingField, "invoice", nil)
	}

	invoice.Normalize()

	var po *models.PurchaseOrder
	if invoice.PONumber != "" {
		if found, ok := s.store.GetPO(invoice.PONumber); ok {
			po = found
		}
	}

	engine := matcher.NewEngine(s.config.Matching).
		WithDuplicateChecker(&registryChecker{registry: s.store, pairID: pairID})

	result, err := engine.Match(invoice, po)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(actor) != "" {
		result.MatchedBy = actor
	}

	if err := s.store.SaveResult(result); err != nil {
		return nil, err
	}
	if err := workflow.AttachResult(pair, result, result.MatchedBy); err != nil {
		return nil, err
	}
	if err := s.syncQueue(pair, result, result.MatchedBy); err != nil {
		return nil, err
	}
	if err := s.store.SavePair(pair); err != nil {
		return nil, err
	}

	s.log.WithFields(logger.Fields{
		"pair_id":    pair.ID,
		"invoice":    result.InvoiceID,
		"po":         result.POID,
		"status":     result.MatchStatus,
		"confidence": result.ConfidenceScore,
		"issues":     len(result.Issues),
	}).Info("matching completed")

	s.emit(EventMatchCompleted, pair.ID, uuid.Nil, result.MatchedBy, map[string]interface{}{
		"result_id":  result.ID,
		"status":     result.MatchStatus,
		"confidence": result.ConfidenceScore,
	})

	return result, nil
}

// syncQueue opens, refreshes, or closes the pair's review queue item to
// reflect the result's unresolved issues
func (s *Service) syncQueue(pair *workflow.DocumentPair, result *models.MatchingResult, actor string) error {
	open, hasOpen := s.store.OpenItemForResult(result.ID)
	if !hasOpen && pair.QueueItemID != nil {
		if item, err := s.store.GetItem(*pair.QueueItemID); err == nil && item.Open() {
			open, hasOpen = item, true
		}
	}

	if result.HasBlockingIssues() {
		if hasOpen {
			open.ResultID = result.ID
			open.Refresh(result, s.config.SLA)
			if err := s.store.SaveItem(open); err != nil {
				return err
			}
			pair.QueueItemID = &open.ID
			s.emit(EventQueueItemUpdated, pair.ID, open.ID, actor, map[string]interface{}{
				"priority": open.Priority,
			})
			return nil
		}

		item := queue.ItemFor(result, pair.ID, s.config.SLA)
		if item == nil {
			return nil
		}
		if err := s.store.SaveItem(item); err != nil {
			return err
		}
		pair.QueueItemID = &item.ID
		s.emit(EventQueueItemOpened, pair.ID, item.ID, actor, map[string]interface{}{
			"priority": item.Priority,
			"category": item.IssueCategory,
			"deadline": item.SLADeadline,
		})
		return nil
	}

	// nothing blocks anymore; close the open item if one exists
	if hasOpen {
		if err := open.Resolve(actor, "all blocking issues resolved"); err != nil {
			return err
		}
		if err := s.store.SaveItem(open); err != nil {
			return err
		}
		pair.QueueItemID = nil
		s.emit(EventQueueItemResolved, pair.ID, open.ID, actor, nil)
	}

	return nil
}

// findPairForResult locates the pair whose latest result carries the id
func (s *Service) findPairForResult(resultID uuid.UUID) (*workflow.DocumentPair, error) {
	for _, pair := range s.store.ListPairs() {
		if pair.LatestResult != nil && pair.LatestResult.ID == resultID {
			return pair, nil
		}
	}
	return nil, apperrors.NotFoundError(apperrors.CodePairNotFound, resultID.String())
}

// ResolveIssue marks one issue resolved and recomputes the result's
// confidence and status without re-running any comparison. The pair's
// overall status and queue item follow the recomputed result atomically
// under the pair lock.
func (s *Service) ResolveIssue(resultID, issueID uuid.UUID, action models.ResolutionAction, notes, actor string) (*models.ValidationIssue, error) {
	if !action.IsValid() {
		return nil, apperrors.DataError(apperrors.CodeInvalidResolution, "action", string(action))
	}
	if strings.TrimSpace(actor) == "" {
		return nil, apperrors.DataError(apperrors.CodeMissingField, "actor", actor)
	}

	owner, err := s.findPairForResult(resultID)
	if err != nil {
		return nil, err
	}

	unlock := s.lockPair(owner.ID)
	defer unlock()

	// Reload under the lock; a concurrent re-match may have swapped the
	// pair's latest result between lookup and lock.
	pair, err := s.store.GetPair(owner.ID)
	if err != nil {
		return nil, err
	}
	result, err := s.store.GetResult(resultID)
	if err != nil {
		return nil, err
	}

	issue := result.FindIssue(issueID)
	if issue == nil {
		return nil, apperrors.NotFoundError(apperrors.CodeIssueNotFound, issueID.String())
	}
	if issue.Resolved {
		return nil, apperrors.PreconditionError(apperrors.CodeAlreadyResolved, "resolve issue",
			"issue "+issueID.String()+" is already resolved")
	}

	now := time.Now().UTC()
	issue.Resolved = true
	issue.ResolutionAction = action
	issue.ResolutionNotes = strings.TrimSpace(notes)
	issue.ResolvedBy = actor
	issue.ResolvedAt = &now

	engine := matcher.NewEngine(s.config.Matching)
	engine.Recompute(result)
	pair.RefreshStatus()

	if err := s.store.SaveResult(result); err != nil {
		return nil, err
	}
	// The queue tracks the pair's latest result; when the resolved result
	// was superseded by a re-match, sync against the successor.
	queueResult := result
	if pair.LatestResult != nil && pair.LatestResult.ID != result.ID {
		queueResult = pair.LatestResult
	}
	if err := s.syncQueue(pair, queueResult, actor); err != nil {
		return nil, err
	}
	if err := s.store.SavePair(pair); err != nil {
		return nil, err
	}

	s.log.WithFields(logger.Fields{
		"pair_id":  pair.ID,
		"issue_id": issue.ID,
		"category": issue.Category,
		"action":   action,
		"actor":    actor,
		"status":   result.MatchStatus,
	}).Info("issue resolved")

	s.emit(EventIssueResolved, pair.ID, uuid.Nil, actor, map[string]interface{}{
		"result_id": result.ID,
		"issue_id":  issue.ID,
		"action":    action,
	})

	return issue, nil
}

// Advance moves a pair from matched to validated
func (s *Service) Advance(pairID uuid.UUID, actor string) (*workflow.DocumentPair, error) {
	unlock := s.lockPair(pairID)
	defer unlock()

	pair, err := s.store.GetPair(pairID)
	if err != nil {
		return nil, err
	}
	if err := workflow.Advance(pair, actor); err != nil {
		return nil, err
	}
	if err := s.store.SavePair(pair); err != nil {
		return nil, err
	}

	s.emit(EventPairAdvanced, pair.ID, uuid.Nil, actor, map[string]interface{}{
		"stage": pair.CurrentStage,
	})
	return pair, nil
}

// Approve irreversibly approves a validated pair
func (s *Service) Approve(pairID uuid.UUID, actor, notes string) (*workflow.DocumentPair, error) {
	unlock := s.lockPair(pairID)
	defer unlock()

	pair, err := s.store.GetPair(pairID)
	if err != nil {
		return nil, err
	}
	if err := workflow.Approve(pair, actor, notes); err != nil {
		return nil, err
	}
	if err := s.store.SavePair(pair); err != nil {
		return nil, err
	}

	s.log.WithFields(logger.Fields{"pair_id": pair.ID, "actor": actor}).Info("pair approved")
	s.emit(EventPairApproved, pair.ID, uuid.Nil, actor, nil)
	return pair, nil
}

// Reject irreversibly rejects a pair with a reason and closes its open
// queue item
func (s *Service) Reject(pairID uuid.UUID, actor, reason string) (*workflow.DocumentPair, error) {
	unlock := s.lockPair(pairID)
	defer unlock()

	pair, err := s.store.GetPair(pairID)
	if err != nil {
		return nil, err
	}
	if err := workflow.Reject(pair, actor, reason); err != nil {
		return nil, err
	}

	if pair.QueueItemID != nil {
		if item, err := s.store.GetItem(*pair.QueueItemID); err == nil && item.Open() {
			if err := item.Resolve(actor, "pair rejected: "+strings.TrimSpace(reason)); err == nil {
				if err := s.store.SaveItem(item); err != nil {
					return nil, err
				}
				s.emit(EventQueueItemResolved, pair.ID, item.ID, actor, nil)
			}
		}
		pair.QueueItemID = nil
	}

	if err := s.store.SavePair(pair); err != nil {
		return nil, err
	}

	s.log.WithFields(logger.Fields{"pair_id": pair.ID, "actor": actor, "reason": reason}).Info("pair rejected")
	s.emit(EventPairRejected, pair.ID, uuid.Nil, actor, map[string]interface{}{"reason": reason})
	return pair, nil
}

// ResolveQueueItem closes a review queue item at the queue level. This is
// independent from, but typically followed by, a workflow transition.
func (s *Service) ResolveQueueItem(itemID uuid.UUID, actor, notes string) (*queue.ReviewQueueItem, error) {
	item, err := s.store.GetItem(itemID)
	if err != nil {
		return nil, err
	}

	unlock := s.lockPair(item.PairID)
	defer unlock()

	if err := item.Resolve(actor, notes); err != nil {
		return nil, err
	}
	if err := s.store.SaveItem(item); err != nil {
		return nil, err
	}

	if pair, err := s.store.GetPair(item.PairID); err == nil {
		if pair.QueueItemID != nil && *pair.QueueItemID == item.ID {
			pair.QueueItemID = nil
			if err := s.store.SavePair(pair); err != nil {
				return nil, err
			}
		}
	}

	s.emit(EventQueueItemResolved, item.PairID, item.ID, actor, nil)
	return item, nil
}

// GetPair loads a pair by id
func (s *Service) GetPair(pairID uuid.UUID) (*workflow.DocumentPair, error) {
	return s.store.GetPair(pairID)
}

// GetResult loads a matching result by id
func (s *Service) GetResult(resultID uuid.UUID) (*models.MatchingResult, error) {
	return s.store.GetResult(resultID)
}

// OpenQueue returns the open review queue, most urgent first
func (s *Service) OpenQueue() []*queue.ReviewQueueItem {
	return s.store.OpenItems()
}

// Timeline returns the chronological audit trail of a pair
func (s *Service) Timeline(pairID uuid.UUID) ([]workflow.TimelineEvent, error) {
	pair, err := s.store.GetPair(pairID)
	if err != nil {
		return nil, err
	}
	return workflow.Timeline(pair), nil
}
