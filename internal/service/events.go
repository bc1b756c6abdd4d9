package service

import (
	"time"

	"invoice-matching-service/pkg/logger"

	"github.com/google/uuid"
)

// EventKind identifies what happened to a pair, result, or queue item
type EventKind string

const (
	EventMatchCompleted    EventKind = "match_completed"
	EventIssueResolved     EventKind = "issue_resolved"
	EventPairAdvanced      EventKind = "pair_advanced"
	EventPairApproved      EventKind = "pair_approved"
	EventPairRejected      EventKind = "pair_rejected"
	EventQueueItemOpened   EventKind = "queue_item_opened"
	EventQueueItemUpdated  EventKind = "queue_item_updated"
	EventQueueItemResolved EventKind = "queue_item_resolved"
)

// Event is emitted on every state change so a notification or escalation
// subsystem can subscribe. The core never sends email or routes work
// itself.
type Event struct {
	Kind    EventKind              `json:"kind"`
	PairID  uuid.UUID              `json:"pair_id,omitempty"`
	ItemID  uuid.UUID              `json:"item_id,omitempty"`
	Actor   string                 `json:"actor,omitempty"`
	At      time.Time              `json:"at"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// EventSink receives lifecycle events. Publish must not block; sinks that
// do real delivery should buffer internally.
type EventSink interface {
	Publish(event Event)
}

// NopSink discards all events
type NopSink struct{}

// Publish implements EventSink
func (NopSink) Publish(Event) {}

// LogSink writes every event to the structured log, useful as a default
// sink and in development
type LogSink struct {
	Log logger.Logger
}

// Publish implements EventSink
func (s *LogSink) Publish(event Event) {
	s.Log.WithFields(logger.Fields{
		"kind":    event.Kind,
		"pair_id": event.PairID,
		"item_id": event.ItemID,
		"actor":   event.Actor,
	}).Info("lifecycle event")
}
