// Package conversation tracks document-generation sessions: the state
// machine, the immutable document version history, the feedback log,
// and the append-only audit trail.
package conversation

import "time"

// State is a session lifecycle state.
type State string

const (
	StateCreated          State = "created"
	StateGenerated        State = "generated"
	StateAwaitingFeedback State = "awaiting_feedback"
	StateRevising         State = "revising"
	StateApproved         State = "approved"
	StateRejected         State = "rejected"
)

// Terminal reports whether the state accepts no further feedback.
func (s State) Terminal() bool {
	return s == StateApproved || s == StateRejected
}

// FeedbackType classifies a feedback event.
type FeedbackType string

const (
	FeedbackContentUpdate FeedbackType = "content_update"
	FeedbackRejection     FeedbackType = "rejection"
	FeedbackApproval      FeedbackType = "approval"
)

// FeedbackEvent is one piece of caller feedback on a session.
type FeedbackEvent struct {
	ID      string       `json:"id"`
	Type    FeedbackType `json:"type"`
	Comment string       `json:"comment,omitempty"`
	// Patches are field overrides merged into the sub-task input when
	// the targeted capabilities re-run.
	Patches map[string]string `json:"patches,omitempty"`
	// TargetCapability limits the re-run to one capability. Empty means
	// every capability in the session.
	TargetCapability string `json:"target_capability,omitempty"`
	// Terminal on a rejection ends the session instead of revising.
	Terminal  bool      `json:"terminal,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DocumentVersion is one immutable generated document. Revisions append
// new versions; nothing is ever edited in place.
type DocumentVersion struct {
	ID           string            `json:"id"`
	CapabilityID string            `json:"capability_id"`
	Version      int               `json:"version"`
	Title        string            `json:"title"`
	Content      string            `json:"content"`
	Fields       map[string]string `json:"fields"`
	CreatedAt    time.Time         `json:"created_at"`
}

// AuditRecord is one link in a session's audit chain. Seq is contiguous
// per session and each record's FromState equals the previous record's
// ToState.
type AuditRecord struct {
	ID        string    `json:"id"`
	Seq       int       `json:"seq"`
	FromState State     `json:"from_state"`
	ToState   State     `json:"to_state"`
	Event     string    `json:"event"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is a full session snapshot with its history.
type Session struct {
	ID          string            `json:"id"`
	State       State             `json:"state"`
	RequestText string            `json:"request_text"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Documents   []DocumentVersion `json:"document_history"`
	Feedback    []FeedbackEvent   `json:"feedback_log"`
	Audit       []AuditRecord     `json:"audit_trail"`
}

// LatestVersions returns the newest document version per capability.
func (s *Session) LatestVersions() map[string]DocumentVersion {
	out := make(map[string]DocumentVersion)
	for _, d := range s.Documents {
		if cur, ok := out[d.CapabilityID]; !ok || d.Version > cur.Version {
			out[d.CapabilityID] = d
		}
	}
	return out
}
