package apply

import (
	"errors"
	"fmt"
	"strings"

	"owlmap/internal/audit"
)

// ErrInvalidDecision indicates a decision cell outside the allowed set for
// its issue type. Such rows are skipped, never guessed at.
var ErrInvalidDecision = errors.New("invalid decision")

// Action is a reviewer decision.
type Action string

const (
	ActionSkip   Action = "skip"
	ActionDelete Action = "delete"
	ActionKeep   Action = "keep"
	ActionAdd    Action = "add"
)

// ParseDecision validates value for an issue of type t. Blank means skip.
func ParseDecision(value string, t audit.IssueType) (Action, error) {
	action := Action(strings.ToLower(strings.TrimSpace(value)))
	switch action {
	case "", ActionSkip:
		return ActionSkip, nil
	case ActionDelete, ActionKeep:
		if t == audit.IssueNoise || t == audit.IssueHighPriority {
			return action, nil
		}
	case ActionAdd:
		if t == audit.IssueMissed {
			return action, nil
		}
	default:
		return ActionSkip, fmt.Errorf("%w: %q", ErrInvalidDecision, value)
	}
	return ActionSkip, fmt.Errorf("%w: %q not allowed for %s", ErrInvalidDecision, value, t)
}
