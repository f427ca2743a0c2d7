// Package knowledge builds update proposals from approved sessions and
// hands them to the knowledge-store collaborator. The proposer never
// writes to the knowledge store itself; the collaborator owns the
// accept/reject decision.
package knowledge

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/finscribe/finscribe/internal/conversation"
)

// Decision is the collaborator's verdict on a proposal.
type Decision string

const (
	DecisionAccepted Decision = "accepted"
	DecisionRejected Decision = "rejected"
)

// ProposalDocument is one approved document carried by a proposal.
type ProposalDocument struct {
	CapabilityID string `json:"capability_id"`
	Version      int    `json:"version"`
	Title        string `json:"title"`
	Content      string `json:"content"`
}

// UpdateProposal packages the final field set and approved document
// text of a session for the knowledge store.
type UpdateProposal struct {
	ID        string             `json:"id"`
	SessionID string             `json:"session_id"`
	Fields    map[string]string  `json:"fields"`
	Documents []ProposalDocument `json:"documents"`
	Decision  Decision           `json:"decision"`
	CreatedAt time.Time          `json:"created_at"`
}

// Collaborator is the external knowledge-store interface.
type Collaborator interface {
	// SubmitUpdate decides whether to absorb the proposal. A returned
	// error implies rejection.
	SubmitUpdate(ctx context.Context, proposal UpdateProposal) (Decision, error)
}

// Proposer builds and persists proposals for approved sessions.
type Proposer struct {
	store        *Store
	collaborator Collaborator
}

// NewProposer creates a proposer. collaborator must not be nil.
func NewProposer(store *Store, collaborator Collaborator) *Proposer {
	return &Proposer{store: store, collaborator: collaborator}
}

// Propose builds a proposal from the session's latest approved
// documents, submits it to the collaborator, and records the decision.
// Only approved sessions may be proposed.
func (p *Proposer) Propose(ctx context.Context, sess *conversation.Session) (*UpdateProposal, error) {
	if sess.State != conversation.StateApproved {
		return nil, fmt.Errorf("session %s: proposals require state %s, got %s",
			sess.ID, conversation.StateApproved, sess.State)
	}

	proposal := UpdateProposal{
		ID:        uuid.New().String(),
		SessionID: sess.ID,
		Fields:    make(map[string]string),
		CreatedAt: time.Now().UTC(),
	}
	for _, doc := range sess.LatestVersions() {
		proposal.Documents = append(proposal.Documents, ProposalDocument{
			CapabilityID: doc.CapabilityID,
			Version:      doc.Version,
			Title:        doc.Title,
			Content:      doc.Content,
		})
		for name, value := range doc.Fields {
			proposal.Fields[name] = value
		}
	}

	if err := p.store.Save(ctx, proposal); err != nil {
		return nil, err
	}

	decision, err := p.collaborator.SubmitUpdate(ctx, proposal)
	if err != nil {
		decision = DecisionRejected
	}
	proposal.Decision = decision
	if err := p.store.SetDecision(ctx, proposal.ID, decision); err != nil {
		return nil, err
	}
	return &proposal, nil
}
