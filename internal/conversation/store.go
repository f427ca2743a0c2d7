package conversation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/finscribe/finscribe/internal/capability"
	"github.com/finscribe/finscribe/internal/db"
)

// Store persists sessions and enforces the state machine. Every
// mutation commits in a single transaction, so a cancelled operation
// leaves no partial document versions or audit records behind.
type Store struct {
	db       *db.DB
	notifier *Notifier
}

// NewStore creates a Store. notifier may be nil when nothing streams
// audit records.
func NewStore(database *db.DB, notifier *Notifier) *Store {
	return &Store{db: database, notifier: notifier}
}

// CreateSession creates a session around the initial generation
// results. The session lands in AWAITING_FEEDBACK with two audit
// records: the generation transition and the delivery transition.
func (s *Store) CreateSession(ctx context.Context, requestText string, docs []*capability.Document) (*Session, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("session requires at least one generated document")
	}
	id := uuid.New().String()

	var appended []AuditRecord
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sessions (id, state, request_text) VALUES (?, ?, ?)`,
			id, string(StateAwaitingFeedback), requestText); err != nil {
			return fmt.Errorf("inserting session: %w", err)
		}
		for _, doc := range docs {
			if err := insertVersion(ctx, tx, id, doc, 1); err != nil {
				return err
			}
		}
		rec, err := appendAudit(ctx, tx, id, StateCreated, StateGenerated, "generation", "")
		if err != nil {
			return err
		}
		appended = append(appended, rec)
		rec, err = appendAudit(ctx, tx, id, StateGenerated, StateAwaitingFeedback, "delivery", "")
		if err != nil {
			return err
		}
		appended = append(appended, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(id, appended)
	return s.Get(ctx, id)
}

// ApplyFeedback records a feedback event and performs its state
// transition. Approvals and terminal rejections finish the session;
// content updates and plain rejections move it to REVISING for the
// caller to re-run generation. Terminal states reject all feedback with
// InvalidTransitionError and leave the session untouched.
func (s *Store) ApplyFeedback(ctx context.Context, sessionID string, event FeedbackEvent) (*Session, error) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	var appended []AuditRecord
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		state, err := currentState(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if !accepts(state, event.Type) {
			return &InvalidTransitionError{SessionID: sessionID, State: state, Event: event.Type}
		}

		if err := insertFeedback(ctx, tx, sessionID, event); err != nil {
			return err
		}

		var to State
		switch {
		case event.Type == FeedbackApproval:
			to = StateApproved
		case event.Type == FeedbackRejection && event.Terminal:
			to = StateRejected
		default:
			to = StateRevising
		}

		rec, err := appendAudit(ctx, tx, sessionID, state, to, string(event.Type), event.Comment)
		if err != nil {
			return err
		}
		appended = append(appended, rec)
		return setState(ctx, tx, sessionID, to)
	})
	if err != nil {
		return nil, err
	}
	s.publish(sessionID, appended)
	return s.Get(ctx, sessionID)
}

// CompleteRevision closes a REVISING window. On success it appends the
// new document versions and transitions back to GENERATED; on failure
// it transitions back with no new versions so the session stays live.
func (s *Store) CompleteRevision(ctx context.Context, sessionID string, docs []*capability.Document, success bool) (*Session, error) {
	var appended []AuditRecord
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		state, err := currentState(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if state != StateRevising {
			return fmt.Errorf("session %s: CompleteRevision in state %s", sessionID, state)
		}

		event, detail := "revision", ""
		if success {
			for _, doc := range docs {
				version, err := nextVersion(ctx, tx, sessionID, doc.CapabilityID)
				if err != nil {
					return err
				}
				if err := insertVersion(ctx, tx, sessionID, doc, version); err != nil {
					return err
				}
			}
		} else {
			event, detail = "revision_failed", "all capabilities failed; prior versions stand"
		}

		rec, err := appendAudit(ctx, tx, sessionID, StateRevising, StateGenerated, event, detail)
		if err != nil {
			return err
		}
		appended = append(appended, rec)
		return setState(ctx, tx, sessionID, StateGenerated)
	})
	if err != nil {
		return nil, err
	}
	s.publish(sessionID, appended)
	return s.Get(ctx, sessionID)
}

// AnnotateKnowledgeDecision appends the knowledge-store collaborator's
// accept/reject decision to the audit trail without changing state.
func (s *Store) AnnotateKnowledgeDecision(ctx context.Context, sessionID, decision string) error {
	var appended []AuditRecord
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		state, err := currentState(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		rec, err := appendAudit(ctx, tx, sessionID, state, state, "knowledge_update", decision)
		if err != nil {
			return err
		}
		appended = append(appended, rec)
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(sessionID, appended)
	return nil
}

// Get loads a session snapshot with its full history.
func (s *Store) Get(ctx context.Context, sessionID string) (*Session, error) {
	sess := &Session{ID: sessionID}
	var state, createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT state, request_text, created_at, updated_at FROM sessions WHERE id = ?`,
		sessionID).Scan(&state, &sess.RequestText, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", sessionID, err)
	}
	sess.State = State(state)
	sess.CreatedAt = parseTime(createdAt)
	sess.UpdatedAt = parseTime(updatedAt)

	if sess.Documents, err = s.loadDocuments(ctx, sessionID); err != nil {
		return nil, err
	}
	if sess.Feedback, err = s.loadFeedback(ctx, sessionID); err != nil {
		return nil, err
	}
	if sess.Audit, err = s.loadAudit(ctx, sessionID); err != nil {
		return nil, err
	}
	return sess, nil
}

// GetDocument returns one specific document version.
func (s *Store) GetDocument(ctx context.Context, sessionID, capabilityID string, version int) (*DocumentVersion, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, capability_id, version, title, content, fields, created_at
		 FROM document_versions WHERE session_id = ? AND capability_id = ? AND version = ?`,
		sessionID, capabilityID, version)
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, ErrVersionNotFound
	}
	return doc, err
}

func (s *Store) loadDocuments(ctx context.Context, sessionID string) ([]DocumentVersion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, capability_id, version, title, content, fields, created_at
		 FROM document_versions WHERE session_id = ? ORDER BY capability_id, version`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentVersion
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *doc)
	}
	return out, rows.Err()
}

func (s *Store) loadFeedback(ctx context.Context, sessionID string) ([]FeedbackEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, comment, patches, target_capability, terminal, created_at
		 FROM feedback_events WHERE session_id = ? ORDER BY created_at, id`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading feedback: %w", err)
	}
	defer rows.Close()

	var out []FeedbackEvent
	for rows.Next() {
		var ev FeedbackEvent
		var typ, patchesJSON, createdAt string
		var terminal int
		if err := rows.Scan(&ev.ID, &typ, &ev.Comment, &patchesJSON, &ev.TargetCapability, &terminal, &createdAt); err != nil {
			return nil, err
		}
		ev.Type = FeedbackType(typ)
		ev.Terminal = terminal != 0
		ev.CreatedAt = parseTime(createdAt)
		if err := json.Unmarshal([]byte(patchesJSON), &ev.Patches); err != nil {
			return nil, fmt.Errorf("decoding patches for feedback %s: %w", ev.ID, err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *Store) loadAudit(ctx context.Context, sessionID string) ([]AuditRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, seq, from_state, to_state, event, detail, created_at
		 FROM audit_records WHERE session_id = ? ORDER BY seq`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading audit trail: %w", err)
	}
	defer rows.Close()

	var out []AuditRecord
	for rows.Next() {
		var rec AuditRecord
		var from, to, createdAt string
		if err := rows.Scan(&rec.ID, &rec.Seq, &from, &to, &rec.Event, &rec.Detail, &createdAt); err != nil {
			return nil, err
		}
		rec.FromState = State(from)
		rec.ToState = State(to)
		rec.CreatedAt = parseTime(createdAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *Store) publish(sessionID string, records []AuditRecord) {
	if s.notifier == nil {
		return
	}
	for _, rec := range records {
		s.notifier.Publish(sessionID, rec)
	}
}

func currentState(ctx context.Context, tx *sql.Tx, sessionID string) (State, error) {
	var state string
	err := tx.QueryRowContext(ctx, `SELECT state FROM sessions WHERE id = ?`, sessionID).Scan(&state)
	if err == sql.ErrNoRows {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("loading state for %s: %w", sessionID, err)
	}
	return State(state), nil
}

func setState(ctx context.Context, tx *sql.Tx, sessionID string, to State) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE sessions SET state = ?, updated_at = datetime('now') WHERE id = ?`,
		string(to), sessionID)
	if err != nil {
		return fmt.Errorf("updating state for %s: %w", sessionID, err)
	}
	return nil
}

func appendAudit(ctx context.Context, tx *sql.Tx, sessionID string, from, to State, event, detail string) (AuditRecord, error) {
	var seq int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM audit_records WHERE session_id = ?`,
		sessionID).Scan(&seq); err != nil {
		return AuditRecord{}, fmt.Errorf("computing audit seq: %w", err)
	}
	rec := AuditRecord{
		ID:        uuid.New().String(),
		Seq:       seq,
		FromState: from,
		ToState:   to,
		Event:     event,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO audit_records (id, session_id, seq, from_state, to_state, event, detail)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, sessionID, rec.Seq, string(rec.FromState), string(rec.ToState), rec.Event, rec.Detail)
	if err != nil {
		return AuditRecord{}, fmt.Errorf("appending audit record: %w", err)
	}
	return rec, nil
}

func insertFeedback(ctx context.Context, tx *sql.Tx, sessionID string, event FeedbackEvent) error {
	patches, err := json.Marshal(event.Patches)
	if err != nil {
		return fmt.Errorf("encoding patches: %w", err)
	}
	terminal := 0
	if event.Terminal {
		terminal = 1
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO feedback_events (id, session_id, type, comment, patches, target_capability, terminal)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID, sessionID, string(event.Type), event.Comment, string(patches), event.TargetCapability, terminal)
	if err != nil {
		return fmt.Errorf("inserting feedback event: %w", err)
	}
	return nil
}

func insertVersion(ctx context.Context, tx *sql.Tx, sessionID string, doc *capability.Document, version int) error {
	fields, err := json.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("encoding document fields: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO document_versions (id, session_id, capability_id, version, title, content, fields)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), sessionID, doc.CapabilityID, version, doc.Title, doc.Content, string(fields))
	if err != nil {
		return fmt.Errorf("inserting document version: %w", err)
	}
	return nil
}

func nextVersion(ctx context.Context, tx *sql.Tx, sessionID, capabilityID string) (int, error) {
	var version int
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM document_versions
		 WHERE session_id = ? AND capability_id = ?`,
		sessionID, capabilityID).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("computing next version: %w", err)
	}
	return version, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(sc scanner) (*DocumentVersion, error) {
	var doc DocumentVersion
	var fieldsJSON, createdAt string
	if err := sc.Scan(&doc.ID, &doc.CapabilityID, &doc.Version, &doc.Title, &doc.Content, &fieldsJSON, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(fieldsJSON), &doc.Fields); err != nil {
		return nil, fmt.Errorf("decoding fields for document %s: %w", doc.ID, err)
	}
	doc.CreatedAt = parseTime(createdAt)
	return &doc, nil
}

func parseTime(s string) time.Time {
	if t, err := time.Parse(time.DateTime, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
