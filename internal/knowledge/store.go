package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/finscribe/finscribe/internal/db"
)

// Store persists update proposals and their decisions.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Save inserts a proposal in the pending state.
func (s *Store) Save(ctx context.Context, proposal UpdateProposal) error {
	fields, err := json.Marshal(proposal.Fields)
	if err != nil {
		return fmt.Errorf("encoding proposal fields: %w", err)
	}
	docs, err := json.Marshal(proposal.Documents)
	if err != nil {
		return fmt.Errorf("encoding proposal documents: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO update_proposals (id, session_id, fields, documents) VALUES (?, ?, ?, ?)`,
		proposal.ID, proposal.SessionID, string(fields), string(docs))
	if err != nil {
		return fmt.Errorf("inserting proposal: %w", err)
	}
	return nil
}

// SetDecision records the collaborator's verdict.
func (s *Store) SetDecision(ctx context.Context, proposalID string, decision Decision) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE update_proposals SET decision = ? WHERE id = ?`,
		string(decision), proposalID)
	if err != nil {
		return fmt.Errorf("updating proposal decision: %w", err)
	}
	return nil
}

// GetBySession returns the proposals for a session, newest first.
func (s *Store) GetBySession(ctx context.Context, sessionID string) ([]UpdateProposal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, fields, documents, decision, created_at
		 FROM update_proposals WHERE session_id = ? ORDER BY created_at DESC`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading proposals: %w", err)
	}
	defer rows.Close()

	var out []UpdateProposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func scanProposal(rows *sql.Rows) (*UpdateProposal, error) {
	var p UpdateProposal
	var fieldsJSON, docsJSON, decision, createdAt string
	if err := rows.Scan(&p.ID, &p.SessionID, &fieldsJSON, &docsJSON, &decision, &createdAt); err != nil {
		return nil, err
	}
	p.Decision = Decision(decision)
	if t, err := time.Parse(time.DateTime, createdAt); err == nil {
		p.CreatedAt = t
	}
	if err := json.Unmarshal([]byte(fieldsJSON), &p.Fields); err != nil {
		return nil, fmt.Errorf("decoding proposal fields: %w", err)
	}
	if err := json.Unmarshal([]byte(docsJSON), &p.Documents); err != nil {
		return nil, fmt.Errorf("decoding proposal documents: %w", err)
	}
	return &p, nil
}
