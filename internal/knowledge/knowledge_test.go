package knowledge

import (
	"context"
	"testing"

	"github.com/finscribe/finscribe/internal/capability"
	"github.com/finscribe/finscribe/internal/conversation"
	"github.com/finscribe/finscribe/internal/db"
)

func approvedSession(t *testing.T, database *db.DB) *conversation.Session {
	t.Helper()
	convStore := conversation.NewStore(database, nil)
	ctx := context.Background()

	sess, err := convStore.CreateSession(ctx, "summary please", []*capability.Document{{
		CapabilityID: capability.InvestorSummary,
		Title:        "Investor Summary",
		Content:      "# Body",
		Fields:       map[string]string{"issuer": "Acme Bank", "currency": "CAD"},
	}})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	sess, err = convStore.ApplyFeedback(ctx, sess.ID, conversation.FeedbackEvent{Type: conversation.FeedbackApproval})
	if err != nil {
		t.Fatalf("ApplyFeedback: %v", err)
	}
	return sess
}

func TestProposeApprovedSession(t *testing.T) {
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	sess := approvedSession(t, database)
	proposer := NewProposer(NewStore(database), AcceptAll{})

	proposal, err := proposer.Propose(context.Background(), sess)
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if proposal.Decision != DecisionAccepted {
		t.Errorf("decision = %s, want %s", proposal.Decision, DecisionAccepted)
	}
	if len(proposal.Documents) != 1 {
		t.Fatalf("documents = %d, want 1", len(proposal.Documents))
	}
	if proposal.Fields["issuer"] != "Acme Bank" {
		t.Errorf("proposal should carry the final field set, got %v", proposal.Fields)
	}

	saved, err := NewStore(database).GetBySession(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("GetBySession: %v", err)
	}
	if len(saved) != 1 || saved[0].Decision != DecisionAccepted {
		t.Errorf("persisted proposal = %+v", saved)
	}
}

func TestProposeRejectsNonApprovedSession(t *testing.T) {
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	sess := &conversation.Session{ID: "s1", State: conversation.StateAwaitingFeedback}
	proposer := NewProposer(NewStore(database), AcceptAll{})

	if _, err := proposer.Propose(context.Background(), sess); err == nil {
		t.Fatal("expected error for non-approved session")
	}
}

func TestAcceptAllRejectsEmptyProposal(t *testing.T) {
	decision, err := AcceptAll{}.SubmitUpdate(context.Background(), UpdateProposal{ID: "p1"})
	if err == nil {
		t.Fatal("expected error for empty proposal")
	}
	if decision != DecisionRejected {
		t.Errorf("decision = %s, want %s", decision, DecisionRejected)
	}
}
