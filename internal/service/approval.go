package service

import (
	"fmt"
	"time"

	"tem-backend/internal/model"
)

// buildReviewUpdate validates a review attempt against the hierarchical
// approval rules and returns the column set the repository applies under the
// finalized guard. Travel requests and expense claims share this algorithm;
// it is the only place the aggregate status is computed.
//
// Rules, in order:
//   - the decision must be Approved or Rejected
//   - a submitter never reviews their own request, at either tier
//   - a finalized request (admin already decided) accepts no further action
//   - a manager may only review requests of their own reports, and their
//     decision sets the aggregate status provisionally
//   - an admin may review any request; their decision always sets the
//     aggregate status and finalizes the request
func buildReviewUpdate(approval *model.Approval, submitter, reviewer *model.User, decision, comments string, now time.Time) (map[string]interface{}, error) {
	if !model.ValidDecision(decision) {
		return nil, fmt.Errorf("%w: decision must be %s or %s", ErrValidation, model.StatusApproved, model.StatusRejected)
	}

	if reviewer.ID == submitter.ID {
		return nil, fmt.Errorf("%w: you cannot approve or reject your own request", ErrForbidden)
	}

	if approval.Finalized() {
		return nil, ErrFinalized
	}

	switch reviewer.Role {
	case model.RoleManager:
		if submitter.ManagerID == nil || *submitter.ManagerID != reviewer.ID {
			return nil, fmt.Errorf("%w: you are not the assigned manager for this request", ErrForbidden)
		}
		return map[string]interface{}{
			"manager_status":      decision,
			"manager_reviewed_by": reviewer.ID,
			"manager_comments":    comments,
			"manager_reviewed_at": now,
			// Admin has not acted (finalized check above), so the manager's
			// decision is provisionally authoritative.
			"status": decision,
		}, nil

	case model.RoleAdmin:
		return map[string]interface{}{
			"admin_status":      decision,
			"admin_reviewed_by": reviewer.ID,
			"admin_comments":    comments,
			"admin_reviewed_at": now,
			// Admin decision is final and overrides any manager decision.
			"status": decision,
		}, nil

	case model.RoleEmployee:
		return nil, fmt.Errorf("%w: only a manager or admin can approve/reject requests", ErrForbidden)

	default:
		return nil, fmt.Errorf("%w: unknown reviewer role %q", ErrForbidden, reviewer.Role)
	}
}

// startOfDay truncates t to midnight in its own location. All submission
// date checks are date-only comparisons.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
