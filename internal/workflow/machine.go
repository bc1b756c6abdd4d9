package workflow

import (
	"fmt"
	"strings"
	"time"

	"invoice-matching-service/internal/models"
	apperrors "invoice-matching-service/pkg/errors"
)

// MarkExtracted advances a pair from uploaded to extracted once the
// extraction subsystem has produced a normalized invoice
func MarkExtracted(pair *DocumentPair, actor string) error {
	if pair.Terminal() {
		return apperrors.PreconditionError(apperrors.CodeTerminalState, "mark extracted",
			fmt.Sprintf("pair is %s", pair.OverallStatus))
	}
	if pair.CurrentStage != StageUploaded {
		return apperrors.PreconditionError(apperrors.CodeInvalidTransition, "mark extracted",
			fmt.Sprintf("pair is at stage %s, expected %s", pair.CurrentStage, StageUploaded))
	}

	pair.enterStage(StageExtracted, actor, time.Now().UTC())
	return nil
}

// AttachResult records a matching run on the pair. The first attachment
// advances extracted to matched; later attachments (re-matching after a
// correction) replace the latest result without regressing the stage.
// The overall status is rederived from the new result either way.
func AttachResult(pair *DocumentPair, result *models.MatchingResult, actor string) error {
	if pair.Terminal() {
		return apperrors.PreconditionError(apperrors.CodeTerminalState, "attach result",
			fmt.Sprintf("pair is %s", pair.OverallStatus))
	}
	if result == nil {
		return apperrors.DataError(apperrors.CodeMissingField, "result", nil)
	}
	if pair.CurrentStage.Index() < StageExtracted.Index() {
		return apperrors.PreconditionError(apperrors.CodeInvalidTransition, "attach result",
			fmt.Sprintf("pair is at stage %s, matching requires at least %s", pair.CurrentStage, StageExtracted))
	}

	pair.LatestResult = result
	pair.POID = result.POID

	now := time.Now().UTC()
	if pair.CurrentStage == StageExtracted {
		pair.enterStage(StageMatched, actor, now)
	} else {
		pair.UpdatedAt = now
	}

	pair.RefreshStatus()
	return nil
}

// Advance moves a matched pair to validated. The guard requires every
// blocking issue on the latest result to be resolved; a clean match
// satisfies it immediately.
func Advance(pair *DocumentPair, actor string) error {
	if pair.Terminal() {
		return apperrors.PreconditionError(apperrors.CodeTerminalState, "advance",
			fmt.Sprintf("pair is %s", pair.OverallStatus))
	}
	if pair.CurrentStage != StageMatched {
		return apperrors.PreconditionError(apperrors.CodeInvalidTransition, "advance",
			fmt.Sprintf("pair is at stage %s, expected %s", pair.CurrentStage, StageMatched))
	}
	if pair.LatestResult == nil {
		return apperrors.PreconditionError(apperrors.CodeInvalidTransition, "advance",
			"pair has no matching result attached")
	}
	if pair.LatestResult.HasBlockingIssues() {
		blocking := pair.LatestResult.UnresolvedAtOrAbove(models.SeverityMedium)
		return apperrors.PreconditionError(apperrors.CodeUnresolvedIssues, "advance",
			fmt.Sprintf("%d unresolved issues of medium or higher severity remain", len(blocking)))
	}

	pair.enterStage(StageValidated, actor, time.Now().UTC())
	pair.RefreshStatus()
	return nil
}

// Approve moves a validated pair to approved. Approval is explicit,
// irreversible, and refused while the pair still needs review.
func Approve(pair *DocumentPair, actor, notes string) error {
	if pair.Terminal() {
		return apperrors.PreconditionError(apperrors.CodeTerminalState, "approve",
			fmt.Sprintf("pair is %s", pair.OverallStatus))
	}
	if pair.CurrentStage != StageValidated {
		return apperrors.PreconditionError(apperrors.CodeInvalidTransition, "approve",
			fmt.Sprintf("pair is at stage %s, expected %s", pair.CurrentStage, StageValidated))
	}
	if pair.OverallStatus == StatusNeedsReview {
		return apperrors.PreconditionError(apperrors.CodeUnresolvedIssues, "approve",
			"pair still needs review")
	}

	pair.enterStage(StageApproved, actor, time.Now().UTC())
	pair.OverallStatus = StatusApproved
	pair.ApprovedBy = actor
	pair.ApprovalNotes = notes
	return nil
}

// Reject terminates a pair from any non-terminal stage. A non-empty reason
// is required; rejection is irreversible.
func Reject(pair *DocumentPair, actor, reason string) error {
	if pair.Terminal() {
		return apperrors.PreconditionError(apperrors.CodeTerminalState, "reject",
			fmt.Sprintf("pair is %s", pair.OverallStatus))
	}
	if strings.TrimSpace(reason) == "" {
		return apperrors.PreconditionError(apperrors.CodeMissingReason, "reject",
			"a rejection reason is required")
	}

	now := time.Now().UTC()
	pair.OverallStatus = StatusRejected
	pair.RejectedBy = actor
	pair.RejectionReason = strings.TrimSpace(reason)
	pair.UpdatedAt = now
	return nil
}
