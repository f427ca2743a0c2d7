package conversation

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID resolves to nothing.
var ErrSessionNotFound = errors.New("session not found")

// ErrVersionNotFound is returned when a document version lookup misses.
var ErrVersionNotFound = errors.New("document version not found")

// feedbackStates lists the feedback types a state accepts. States absent
// from the map accept none.
var feedbackStates = map[State][]FeedbackType{
	StateGenerated:        {FeedbackContentUpdate, FeedbackRejection, FeedbackApproval},
	StateAwaitingFeedback: {FeedbackContentUpdate, FeedbackRejection, FeedbackApproval},
}

// InvalidTransitionError reports feedback that the session's current
// state does not accept. The session is left unchanged.
type InvalidTransitionError struct {
	SessionID string
	State     State
	Event     FeedbackType
}

func (e *InvalidTransitionError) Error() string {
	allowed := feedbackStates[e.State]
	if len(allowed) == 0 {
		return fmt.Sprintf("session %s: state %s is terminal, %s rejected", e.SessionID, e.State, e.Event)
	}
	return fmt.Sprintf("session %s: state %s does not accept %s (allowed: %v)", e.SessionID, e.State, e.Event, allowed)
}

// accepts reports whether the state admits the feedback type.
func accepts(state State, ft FeedbackType) bool {
	for _, allowed := range feedbackStates[state] {
		if allowed == ft {
			return true
		}
	}
	return false
}
