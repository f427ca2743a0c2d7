package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/finscribe/finscribe/internal/capability"
	"github.com/finscribe/finscribe/internal/db"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database, nil)
}

func testDoc(capabilityID string) *capability.Document {
	return &capability.Document{
		CapabilityID: capabilityID,
		Title:        "Doc for " + capabilityID,
		Content:      "# Body",
		Fields:       map[string]string{"issuer": "Acme Bank"},
	}
}

func TestCreateSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess, err := s.CreateSession(ctx, "make me a summary", []*capability.Document{
		testDoc(capability.InvestorSummary),
		testDoc(capability.PricingSupplement),
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if sess.State != StateAwaitingFeedback {
		t.Errorf("state = %s, want %s", sess.State, StateAwaitingFeedback)
	}
	if len(sess.Documents) != 2 {
		t.Errorf("documents = %d, want 2", len(sess.Documents))
	}
	if len(sess.Audit) != 2 {
		t.Fatalf("audit records = %d, want 2 (generation, delivery)", len(sess.Audit))
	}
	if sess.Audit[0].FromState != StateCreated || sess.Audit[0].ToState != StateGenerated {
		t.Errorf("first audit record = %s -> %s", sess.Audit[0].FromState, sess.Audit[0].ToState)
	}
	if sess.Audit[1].FromState != StateGenerated || sess.Audit[1].ToState != StateAwaitingFeedback {
		t.Errorf("second audit record = %s -> %s", sess.Audit[1].FromState, sess.Audit[1].ToState)
	}
}

func TestGetMissingSession(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

// A full review cycle: content update, plain rejection, then approval.
// The post-creation audit trail must contain exactly five records and
// the document history three versions.
func TestFullFeedbackCycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess, err := s.CreateSession(ctx, "summary please", []*capability.Document{
		testDoc(capability.InvestorSummary),
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	id := sess.ID

	// content_update -> REVISING -> GENERATED (version 2)
	sess, err = s.ApplyFeedback(ctx, id, FeedbackEvent{
		Type:    FeedbackContentUpdate,
		Comment: "fix the issuer name",
		Patches: map[string]string{"issuer": "Acme Bank of Canada"},
	})
	if err != nil {
		t.Fatalf("ApplyFeedback(content_update): %v", err)
	}
	if sess.State != StateRevising {
		t.Fatalf("state = %s, want %s", sess.State, StateRevising)
	}
	sess, err = s.CompleteRevision(ctx, id, []*capability.Document{testDoc(capability.InvestorSummary)}, true)
	if err != nil {
		t.Fatalf("CompleteRevision: %v", err)
	}
	if sess.State != StateGenerated {
		t.Fatalf("state = %s, want %s", sess.State, StateGenerated)
	}

	// plain rejection -> REVISING -> GENERATED (version 3)
	sess, err = s.ApplyFeedback(ctx, id, FeedbackEvent{Type: FeedbackRejection, Comment: "tone is wrong"})
	if err != nil {
		t.Fatalf("ApplyFeedback(rejection): %v", err)
	}
	if sess.State != StateRevising {
		t.Fatalf("state = %s, want %s", sess.State, StateRevising)
	}
	sess, err = s.CompleteRevision(ctx, id, []*capability.Document{testDoc(capability.InvestorSummary)}, true)
	if err != nil {
		t.Fatalf("CompleteRevision: %v", err)
	}

	// approval -> APPROVED
	sess, err = s.ApplyFeedback(ctx, id, FeedbackEvent{Type: FeedbackApproval})
	if err != nil {
		t.Fatalf("ApplyFeedback(approval): %v", err)
	}
	if sess.State != StateApproved {
		t.Fatalf("state = %s, want %s", sess.State, StateApproved)
	}

	if got := len(sess.Audit) - 2; got != 5 {
		t.Errorf("post-creation audit records = %d, want 5", got)
	}
	if len(sess.Documents) != 3 {
		t.Errorf("document versions = %d, want 3", len(sess.Documents))
	}

	// The chain must be contiguous: seq 1..n and from == previous to.
	for i, rec := range sess.Audit {
		if rec.Seq != i+1 {
			t.Errorf("audit[%d].Seq = %d, want %d", i, rec.Seq, i+1)
		}
		if i > 0 && rec.FromState != sess.Audit[i-1].ToState {
			t.Errorf("audit chain broken at %d: %s != %s", i, rec.FromState, sess.Audit[i-1].ToState)
		}
	}
}

func TestTerminalStatesRejectFeedback(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess, _ := s.CreateSession(ctx, "x", []*capability.Document{testDoc(capability.InvestorSummary)})
	if _, err := s.ApplyFeedback(ctx, sess.ID, FeedbackEvent{Type: FeedbackApproval}); err != nil {
		t.Fatalf("approval: %v", err)
	}

	_, err := s.ApplyFeedback(ctx, sess.ID, FeedbackEvent{Type: FeedbackContentUpdate})
	var invalid *InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("err = %v, want InvalidTransitionError", err)
	}
	if invalid.State != StateApproved {
		t.Errorf("error state = %s, want %s", invalid.State, StateApproved)
	}

	// The rejected feedback must leave the session untouched.
	after, err := s.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if after.State != StateApproved {
		t.Errorf("state changed to %s", after.State)
	}
	if len(after.Feedback) != 1 {
		t.Errorf("feedback log grew to %d entries", len(after.Feedback))
	}
}

func TestTerminalRejection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess, _ := s.CreateSession(ctx, "x", []*capability.Document{testDoc(capability.InvestorSummary)})
	sess, err := s.ApplyFeedback(ctx, sess.ID, FeedbackEvent{Type: FeedbackRejection, Terminal: true})
	if err != nil {
		t.Fatalf("ApplyFeedback: %v", err)
	}
	if sess.State != StateRejected {
		t.Errorf("state = %s, want %s", sess.State, StateRejected)
	}
}

func TestFailedRevisionKeepsPriorVersions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess, _ := s.CreateSession(ctx, "x", []*capability.Document{testDoc(capability.InvestorSummary)})
	if _, err := s.ApplyFeedback(ctx, sess.ID, FeedbackEvent{Type: FeedbackContentUpdate}); err != nil {
		t.Fatalf("ApplyFeedback: %v", err)
	}

	sess, err := s.CompleteRevision(ctx, sess.ID, nil, false)
	if err != nil {
		t.Fatalf("CompleteRevision: %v", err)
	}
	if sess.State != StateGenerated {
		t.Errorf("state = %s, want %s (session must stay live)", sess.State, StateGenerated)
	}
	if len(sess.Documents) != 1 {
		t.Errorf("document versions = %d, want 1", len(sess.Documents))
	}
	last := sess.Audit[len(sess.Audit)-1]
	if last.Event != "revision_failed" {
		t.Errorf("last audit event = %s, want revision_failed", last.Event)
	}
}

func TestKnowledgeDecisionAnnotation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess, _ := s.CreateSession(ctx, "x", []*capability.Document{testDoc(capability.InvestorSummary)})
	s.ApplyFeedback(ctx, sess.ID, FeedbackEvent{Type: FeedbackApproval})

	if err := s.AnnotateKnowledgeDecision(ctx, sess.ID, "accepted"); err != nil {
		t.Fatalf("AnnotateKnowledgeDecision: %v", err)
	}

	after, _ := s.Get(ctx, sess.ID)
	last := after.Audit[len(after.Audit)-1]
	if last.Event != "knowledge_update" || last.Detail != "accepted" {
		t.Errorf("annotation = %s/%s", last.Event, last.Detail)
	}
	if last.FromState != last.ToState {
		t.Error("annotation must not change state")
	}
	if after.State != StateApproved {
		t.Errorf("state = %s, want %s", after.State, StateApproved)
	}
}

func TestNotifierPublishesCommittedRecords(t *testing.T) {
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	notifier := NewNotifier()
	s := NewStore(database, notifier)
	ctx := context.Background()

	sess, err := s.CreateSession(ctx, "x", []*capability.Document{testDoc(capability.InvestorSummary)})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	ch, cancel := notifier.Subscribe(sess.ID)
	defer cancel()

	if _, err := s.ApplyFeedback(ctx, sess.ID, FeedbackEvent{Type: FeedbackApproval}); err != nil {
		t.Fatalf("ApplyFeedback: %v", err)
	}

	select {
	case rec := <-ch:
		if rec.ToState != StateApproved {
			t.Errorf("streamed record ToState = %s, want %s", rec.ToState, StateApproved)
		}
	default:
		t.Fatal("expected a streamed audit record")
	}
}
