// Package workflow implements the document pair lifecycle: a monotonic
// stage progression from upload to approval, with rejection reachable from
// any non-terminal point. Transitions are pure given the pair and its
// latest matching result; persistence and locking belong to the caller.
package workflow

import (
	"time"

	"invoice-matching-service/internal/models"

	"github.com/google/uuid"
)

// Stage is a point in the document pair lifecycle. Stages only ever move
// forward; rejection is recorded on the overall status, not as a stage.
type Stage string

const (
	StageUploaded  Stage = "uploaded"
	StageExtracted Stage = "extracted"
	StageMatched   Stage = "matched"
	StageValidated Stage = "validated"
	StageApproved  Stage = "approved"
)

var stageOrder = []Stage{StageUploaded, StageExtracted, StageMatched, StageValidated, StageApproved}

// Index returns the position of the stage in the lifecycle, uploaded first
func (s Stage) Index() int {
	for i, stage := range stageOrder {
		if stage == s {
			return i
		}
	}
	return -1
}

// IsValid checks if the stage is a known value
func (s Stage) IsValid() bool {
	return s.Index() >= 0
}

// Next returns the following stage, or the empty stage at the end
func (s Stage) Next() Stage {
	i := s.Index()
	if i < 0 || i+1 >= len(stageOrder) {
		return ""
	}
	return stageOrder[i+1]
}

// OverallStatus summarizes where a pair stands across stages
type OverallStatus string

const (
	StatusInProgress  OverallStatus = "in_progress"
	StatusNeedsReview OverallStatus = "needs_review"
	StatusApproved    OverallStatus = "approved"
	StatusRejected    OverallStatus = "rejected"
)

// IsValid checks if the overall status is a known value
func (s OverallStatus) IsValid() bool {
	switch s {
	case StatusInProgress, StatusNeedsReview, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// DocumentPair tracks one invoice and its optional purchase order through
// the matching lifecycle. It is created once the invoice is extracted into
// normalized form and mutated on every matching run and human action until
// it reaches a terminal status.
type DocumentPair struct {
	ID        uuid.UUID `json:"id"`
	InvoiceID string    `json:"invoice_id"`
	POID      string    `json:"po_id,omitempty"`

	CurrentStage  Stage         `json:"current_stage"`
	OverallStatus OverallStatus `json:"overall_status"`

	// StageTimestamps records when each stage was entered.
	StageTimestamps map[Stage]time.Time `json:"stage_timestamps"`

	// StageActors records who drove each stage entry.
	StageActors map[Stage]string `json:"stage_actors,omitempty"`

	LatestResult *models.MatchingResult `json:"latest_result,omitempty"`

	// QueueItemID links the pair to its open review queue item, if any.
	QueueItemID *uuid.UUID `json:"queue_item_id,omitempty"`

	ApprovalNotes   string `json:"approval_notes,omitempty"`
	RejectionReason string `json:"rejection_reason,omitempty"`
	RejectedBy      string `json:"rejected_by,omitempty"`
	ApprovedBy      string `json:"approved_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewDocumentPair creates a pair at the uploaded stage for an invoice
func NewDocumentPair(invoiceID, actor string) *DocumentPair {
	now := time.Now().UTC()
	return &DocumentPair{
		ID:              uuid.New(),
		InvoiceID:       invoiceID,
		CurrentStage:    StageUploaded,
		OverallStatus:   StatusInProgress,
		StageTimestamps: map[Stage]time.Time{StageUploaded: now},
		StageActors:     map[Stage]string{StageUploaded: actor},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Terminal reports whether the pair reached a final status. Terminal pairs
// reject every further transition.
func (p *DocumentPair) Terminal() bool {
	return p.OverallStatus == StatusApproved || p.OverallStatus == StatusRejected
}

// enterStage moves the pair forward one stage and stamps it. Callers have
// already checked the transition guard; this only enforces monotonicity.
func (p *DocumentPair) enterStage(stage Stage, actor string, at time.Time) {
	p.CurrentStage = stage
	p.StageTimestamps[stage] = at
	if p.StageActors == nil {
		p.StageActors = make(map[Stage]string)
	}
	p.StageActors[stage] = actor
	p.UpdatedAt = at
}

// RefreshStatus rederives the overall status from the latest matching
// result. Terminal statuses are never overwritten. Called by transitions
// and by the service layer after issue resolution recomputes the result.
func (p *DocumentPair) RefreshStatus() {
	if p.Terminal() {
		return
	}
	if p.LatestResult != nil && p.LatestResult.HasBlockingIssues() {
		p.OverallStatus = StatusNeedsReview
	} else {
		p.OverallStatus = StatusInProgress
	}
}
