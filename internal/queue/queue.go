// Package queue implements review queue items and their SLA deadlines.
// An item is opened whenever a matching result needs review, carries a
// priority derived from the worst unresolved issue, and is closed by an
// explicit queue-level resolution.
package queue

import (
	"fmt"
	"strings"
	"time"

	"invoice-matching-service/internal/models"
	apperrors "invoice-matching-service/pkg/errors"

	"github.com/google/uuid"
)

// Priority ranks how urgently a queue item needs attention
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Rank returns the ordering index of the priority, low first
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityMedium:
		return 1
	case PriorityHigh:
		return 2
	case PriorityCritical:
		return 3
	default:
		return -1
	}
}

// IsValid checks if the priority is a known value
func (p Priority) IsValid() bool {
	return p.Rank() >= 0
}

// PriorityForSeverity maps issue severity onto queue priority. Low and info
// issues collapse onto the low priority tier.
func PriorityForSeverity(severity models.Severity) Priority {
	switch severity {
	case models.SeverityCritical:
		return PriorityCritical
	case models.SeverityHigh:
		return PriorityHigh
	case models.SeverityMedium:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// SLAConfig holds the response-time offset per priority
type SLAConfig struct {
	Critical time.Duration `json:"critical"`
	High     time.Duration `json:"high"`
	Medium   time.Duration `json:"medium"`
	Low      time.Duration `json:"low"`
}

// DefaultSLAConfig returns the standard accounts payable response targets
func DefaultSLAConfig() *SLAConfig {
	return &SLAConfig{
		Critical: 2 * time.Hour,
		High:     8 * time.Hour,
		Medium:   24 * time.Hour,
		Low:      72 * time.Hour,
	}
}

// Validate checks that every offset is positive and ordering is sensible
func (c *SLAConfig) Validate() error {
	offsets := map[string]time.Duration{
		"critical": c.Critical,
		"high":     c.High,
		"medium":   c.Medium,
		"low":      c.Low,
	}
	for name, offset := range offsets {
		if offset <= 0 {
			return fmt.Errorf("%s SLA offset must be positive: %v", name, offset)
		}
	}

	if c.Critical > c.High || c.High > c.Medium || c.Medium > c.Low {
		return fmt.Errorf("SLA offsets must not loosen with rising priority: critical=%v high=%v medium=%v low=%v",
			c.Critical, c.High, c.Medium, c.Low)
	}

	return nil
}

// Offset returns the SLA duration for a priority
func (c *SLAConfig) Offset(priority Priority) time.Duration {
	switch priority {
	case PriorityCritical:
		return c.Critical
	case PriorityHigh:
		return c.High
	case PriorityMedium:
		return c.Medium
	default:
		return c.Low
	}
}

// ReviewQueueItem is one open review task for a matching result
type ReviewQueueItem struct {
	ID       uuid.UUID `json:"id"`
	ResultID uuid.UUID `json:"result_id"`
	PairID   uuid.UUID `json:"pair_id"`

	Priority Priority `json:"priority"`

	// IssueCategory is the category of the most severe unresolved issue.
	IssueCategory models.IssueCategory `json:"issue_category"`

	SLADeadline time.Time `json:"sla_deadline"`

	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy      string     `json:"resolved_by,omitempty"`
	ResolutionNotes string     `json:"resolution_notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ItemFor creates a queue item for a result that needs review, or returns
// nil when nothing blocks the match
func ItemFor(result *models.MatchingResult, pairID uuid.UUID, sla *SLAConfig) *ReviewQueueItem {
	severity, found := result.MaxUnresolvedSeverity()
	if !found || !result.HasBlockingIssues() {
		return nil
	}

	category, _ := result.DominantUnresolvedCategory()
	priority := PriorityForSeverity(severity)
	now := time.Now().UTC()

	return &ReviewQueueItem{
		ID:            uuid.New(),
		ResultID:      result.ID,
		PairID:        pairID,
		Priority:      priority,
		IssueCategory: category,
		SLADeadline:   now.Add(sla.Offset(priority)),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Refresh rederives priority, dominant category, and deadline from the
// result's current unresolved issues. The deadline is re-anchored to the
// item's creation time so partial resolution never extends the SLA.
func (item *ReviewQueueItem) Refresh(result *models.MatchingResult, sla *SLAConfig) {
	severity, found := result.MaxUnresolvedSeverity()
	if !found {
		return
	}

	category, _ := result.DominantUnresolvedCategory()
	item.Priority = PriorityForSeverity(severity)
	item.IssueCategory = category
	item.SLADeadline = item.CreatedAt.Add(sla.Offset(item.Priority))
	item.UpdatedAt = time.Now().UTC()
}

// Open reports whether the item is still awaiting resolution
func (item *ReviewQueueItem) Open() bool {
	return item.ResolvedAt == nil
}

// Overdue reports whether an open item has passed its SLA deadline
func (item *ReviewQueueItem) Overdue(now time.Time) bool {
	return item.Open() && now.After(item.SLADeadline)
}

// Resolve closes the item with the resolver's identity and notes. Closing
// an already resolved item is a precondition error.
func (item *ReviewQueueItem) Resolve(actor, notes string) error {
	if !item.Open() {
		return apperrors.PreconditionError(apperrors.CodeAlreadyResolved, "resolve queue item",
			fmt.Sprintf("item %s was resolved at %s", item.ID, item.ResolvedAt.Format(time.RFC3339)))
	}
	if strings.TrimSpace(actor) == "" {
		return apperrors.DataError(apperrors.CodeMissingField, "actor", actor)
	}

	now := time.Now().UTC()
	item.ResolvedAt = &now
	item.ResolvedBy = actor
	item.ResolutionNotes = strings.TrimSpace(notes)
	item.UpdatedAt = now
	return nil
}
