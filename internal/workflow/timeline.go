package workflow

import (
	"fmt"
	"sort"
	"time"
)

// TimelineEvent is one entry in a pair's audit trail
type TimelineEvent struct {
	At          time.Time `json:"at"`
	Kind        string    `json:"kind"`
	Actor       string    `json:"actor,omitempty"`
	Description string    `json:"description"`
}

// Timeline derives the chronological audit trail of a pair from its stage
// timestamps, issue resolutions, and terminal actions. The trail is derived
// on demand, never stored, so it cannot drift from the underlying records.
func Timeline(pair *DocumentPair) []TimelineEvent {
	var events []TimelineEvent

	for stage, at := range pair.StageTimestamps {
		events = append(events, TimelineEvent{
			At:          at,
			Kind:        "stage",
			Actor:       pair.StageActors[stage],
			Description: fmt.Sprintf("entered stage %s", stage),
		})
	}

	if pair.LatestResult != nil {
		for _, issue := range pair.LatestResult.Issues {
			if !issue.Resolved || issue.ResolvedAt == nil {
				continue
			}
			events = append(events, TimelineEvent{
				At:    *issue.ResolvedAt,
				Kind:  "resolution",
				Actor: issue.ResolvedBy,
				Description: fmt.Sprintf("issue %s (%s) %s: %s",
					issue.Category, issue.Severity, issue.ResolutionAction, issue.ResolutionNotes),
			})
		}
	}

	if pair.OverallStatus == StatusRejected {
		events = append(events, TimelineEvent{
			At:          pair.UpdatedAt,
			Kind:        "rejection",
			Actor:       pair.RejectedBy,
			Description: fmt.Sprintf("rejected: %s", pair.RejectionReason),
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].At.Before(events[j].At)
	})

	return events
}
