package services

import "errors"

// Validation errors surfaced synchronously to the caller; no state is
// mutated when one of these is returned.
var (
	ErrTaskTerminal      = errors.New("task is already completed or cancelled")
	ErrWrongKind         = errors.New("operation does not apply to this task kind")
	ErrLinkConflict      = errors.New("task can link to a habit or a goal, not both")
	ErrAlreadyCheckedIn  = errors.New("habit already checked in today")
	ErrAlreadyAttacked   = errors.New("boss already attacked today")
	ErrNoBoss            = errors.New("no active boss")
	ErrInsufficientCoins = errors.New("insufficient coins")
	ErrNotOwned          = errors.New("inventory entry does not belong to player")
	ErrNotEquippable     = errors.New("item has no equipment slot")
)

// VerificationRejected is a distinguished outcome, not a failure: the task
// stays active and the caller may resubmit a revised report.
type VerificationRejected struct {
	Feedback string
}

func (e *VerificationRejected) Error() string {
	return "completion report rejected: " + e.Feedback
}
