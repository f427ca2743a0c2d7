// Package engine exposes the four core operations: processing a
// request into a session, submitting feedback, reading a session, and
// listing capabilities. It owns the per-session serialization queue.
package engine

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/finscribe/finscribe/internal/capability"
	"github.com/finscribe/finscribe/internal/conversation"
	"github.com/finscribe/finscribe/internal/interpreter"
	"github.com/finscribe/finscribe/internal/knowledge"
	"github.com/finscribe/finscribe/internal/orchestrator"
	"github.com/finscribe/finscribe/internal/render"
	"github.com/finscribe/finscribe/internal/router"
)

// Engine wires the interpreter, router, orchestrator, session store and
// knowledge proposer into the exposed operations. Operations on
// distinct sessions run fully in parallel; operations on one session
// are serialized in submission order.
type Engine struct {
	registry *capability.Registry
	interp   *interpreter.Interpreter
	router   *router.Router
	orch     *orchestrator.Orchestrator
	sessions *conversation.Store
	proposer *knowledge.Proposer
	notifier *conversation.Notifier
	renderer *render.Renderer

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New assembles an engine. proposer may be nil to disable knowledge
// proposals.
func New(
	registry *capability.Registry,
	interp *interpreter.Interpreter,
	rtr *router.Router,
	orch *orchestrator.Orchestrator,
	sessions *conversation.Store,
	proposer *knowledge.Proposer,
	notifier *conversation.Notifier,
	renderer *render.Renderer,
) *Engine {
	return &Engine{
		registry: registry,
		interp:   interp,
		router:   rtr,
		orch:     orch,
		sessions: sessions,
		proposer: proposer,
		notifier: notifier,
		renderer: renderer,
		locks:    make(map[string]*sync.Mutex),
	}
}

// ProcessResult is the outcome of ProcessRequest: a new session with
// its routing decision and results, or a clarification request with no
// session.
type ProcessResult struct {
	SessionID  string                   `json:"session_id,omitempty"`
	Decision   router.Decision          `json:"routing_decision"`
	Aggregated *orchestrator.Aggregated `json:"aggregated_result,omitempty"`
}

// Clarification reports whether the request needs a follow-up instead
// of a session.
func (r ProcessResult) Clarification() *router.Clarification {
	return r.Decision.Clarification
}

// ProcessRequest interprets and routes the text, fans generation out
// across the selected capabilities, and creates a session when at least
// one capability produces a document. A clarification outcome or a
// fully failed run creates no session.
func (e *Engine) ProcessRequest(ctx context.Context, text string) (*ProcessResult, error) {
	extraction := e.interp.Extract(text)
	decision := e.router.Route(text, extraction)
	result := &ProcessResult{Decision: decision}

	if decision.Clarification != nil {
		log.Printf("engine: clarification requested (confidence %.2f)", decision.Confidence)
		return result, nil
	}

	agg := e.orch.Run(ctx, decision.Selections)
	result.Aggregated = agg
	if !agg.Success {
		log.Printf("engine: all %d capabilities failed, no session created", len(decision.Selections))
		return result, nil
	}

	sess, err := e.sessions.CreateSession(ctx, text, okDocuments(agg))
	if err != nil {
		return nil, err
	}
	result.SessionID = sess.ID
	log.Printf("engine: session %s created with %d capabilities (degraded=%v)",
		sess.ID, len(decision.Selections), agg.Degraded)
	return result, nil
}

// FeedbackResult is the outcome of SubmitFeedback.
type FeedbackResult struct {
	NewState   conversation.State        `json:"new_state"`
	Aggregated *orchestrator.Aggregated  `json:"aggregated_result,omitempty"`
	Proposal   *knowledge.UpdateProposal `json:"update_proposal,omitempty"`
}

// SubmitFeedback applies one feedback event to a session. Content
// updates and plain rejections trigger a re-run of the targeted
// capabilities; approvals trigger a knowledge-update proposal.
// Concurrent submissions for one session queue in submission order.
func (e *Engine) SubmitFeedback(ctx context.Context, sessionID string, event conversation.FeedbackEvent) (*FeedbackResult, error) {
	if event.TargetCapability != "" {
		canonical, ok := e.registry.Resolve(event.TargetCapability)
		if !ok {
			return nil, fmt.Errorf("unknown capability %q", event.TargetCapability)
		}
		event.TargetCapability = canonical
	}

	lock := e.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := e.sessions.ApplyFeedback(ctx, sessionID, event)
	if err != nil {
		return nil, err
	}
	if sess.State.Terminal() {
		defer e.releaseLock(sessionID)
	}

	switch sess.State {
	case conversation.StateRevising:
		return e.revise(ctx, sess, event)
	case conversation.StateApproved:
		result := &FeedbackResult{NewState: sess.State}
		if e.proposer != nil {
			result.Proposal = e.propose(ctx, sess)
		}
		return result, nil
	default:
		return &FeedbackResult{NewState: sess.State}, nil
	}
}

// revise re-runs the capabilities the feedback targets and commits the
// new versions.
func (e *Engine) revise(ctx context.Context, sess *conversation.Session, event conversation.FeedbackEvent) (*FeedbackResult, error) {
	latest := sess.LatestVersions()

	var selections []router.Selection
	for capabilityID, doc := range latest {
		if event.TargetCapability != "" && event.TargetCapability != capabilityID {
			continue
		}
		spec, ok := e.registry.Get(capabilityID)
		if !ok {
			continue
		}

		merged := make(map[string]string, len(doc.Fields)+len(event.Patches))
		for name, value := range doc.Fields {
			merged[name] = value
		}
		for name, value := range event.Patches {
			merged[name] = value
		}
		fields, missing := spec.CompleteFields(merged)
		selections = append(selections, router.Selection{
			CapabilityID: capabilityID,
			Task: capability.SubTask{
				CapabilityID: capabilityID,
				Fields:       fields,
				Missing:      missing,
				RequestText:  sess.RequestText + "\n\nRevision note: " + event.Comment,
			},
		})
	}

	agg := e.orch.Run(ctx, selections)
	sess, err := e.sessions.CompleteRevision(ctx, sess.ID, okDocuments(agg), agg.Success)
	if err != nil {
		return nil, err
	}
	return &FeedbackResult{NewState: sess.State, Aggregated: agg}, nil
}

// propose hands the approved session to the knowledge collaborator and
// annotates the audit trail with its decision. Proposal failures never
// fail the approval.
func (e *Engine) propose(ctx context.Context, sess *conversation.Session) *knowledge.UpdateProposal {
	proposal, err := e.proposer.Propose(ctx, sess)
	if err != nil {
		log.Printf("engine: knowledge proposal for session %s failed: %v", sess.ID, err)
		return nil
	}
	if err := e.sessions.AnnotateKnowledgeDecision(ctx, sess.ID, string(proposal.Decision)); err != nil {
		log.Printf("engine: annotating session %s: %v", sess.ID, err)
	}
	return proposal
}

// GetSession returns the full session snapshot.
func (e *Engine) GetSession(ctx context.Context, sessionID string) (*conversation.Session, error) {
	return e.sessions.Get(ctx, sessionID)
}

// GetDocument returns one document version. The capability may be given
// by canonical id or alias; version < 1 means the latest version.
func (e *Engine) GetDocument(ctx context.Context, sessionID, capabilityID string, version int) (*conversation.DocumentVersion, error) {
	canonical, ok := e.registry.Resolve(capabilityID)
	if !ok {
		return nil, fmt.Errorf("unknown capability %q", capabilityID)
	}
	if version < 1 {
		sess, err := e.sessions.Get(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		doc, ok := sess.LatestVersions()[canonical]
		if !ok {
			return nil, conversation.ErrVersionNotFound
		}
		return &doc, nil
	}
	return e.sessions.GetDocument(ctx, sessionID, canonical, version)
}

// CapabilityInfo is one entry of ListCapabilities.
type CapabilityInfo struct {
	CanonicalID string   `json:"canonical_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Aliases     []string `json:"aliases"`
}

// ListCapabilities returns every capability with its legacy aliases.
func (e *Engine) ListCapabilities() []CapabilityInfo {
	specs := e.registry.All()
	out := make([]CapabilityInfo, 0, len(specs))
	for _, spec := range specs {
		out = append(out, CapabilityInfo{
			CanonicalID: spec.ID,
			Name:        spec.Name,
			Description: spec.Description,
			Aliases:     e.registry.Aliases(spec.ID),
		})
	}
	return out
}

func (e *Engine) lockFor(sessionID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[sessionID] = lock
	}
	return lock
}

// releaseLock drops a session's lock entry once the session is
// terminal. A late caller gets a fresh mutex and the store's terminal
// transition error.
func (e *Engine) releaseLock(sessionID string) {
	e.mu.Lock()
	delete(e.locks, sessionID)
	e.mu.Unlock()
}

func okDocuments(agg *orchestrator.Aggregated) []*capability.Document {
	var docs []*capability.Document
	for _, r := range agg.Results {
		if r.OK() {
			docs = append(docs, r.Document)
		}
	}
	return docs
}
