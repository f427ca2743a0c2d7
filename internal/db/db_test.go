package db

import (
	"path/filepath"
	"testing"
)

func TestOpenMemory(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer d.Close()

	// Schema should be present.
	for _, table := range []string{"sessions", "document_versions", "feedback_events", "audit_records", "update_proposals"} {
		var name string
		err := d.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("expected table %s to exist: %v", table, err)
		}
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "finscribe.db")

	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	if _, err := d.Exec("INSERT INTO sessions (id, state, request_text) VALUES ('s1', 'created', 'hello')"); err != nil {
		t.Fatalf("insert: %v", err)
	}

	var state string
	if err := d.QueryRow("SELECT state FROM sessions WHERE id = 's1'").Scan(&state); err != nil {
		t.Fatalf("select: %v", err)
	}
	if state != "created" {
		t.Errorf("state = %q, want created", state)
	}
}

func TestSchemaRejectsUnknownState(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer d.Close()

	if _, err := d.Exec("INSERT INTO sessions (id, state, request_text) VALUES ('s1', 'limbo', 'x')"); err == nil {
		t.Error("expected CHECK constraint to reject unknown session state")
	}
}

func TestAuditSeqUnique(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer d.Close()

	if _, err := d.Exec("INSERT INTO sessions (id, state, request_text) VALUES ('s1', 'created', 'x')"); err != nil {
		t.Fatalf("insert session: %v", err)
	}
	if _, err := d.Exec("INSERT INTO audit_records (id, session_id, seq, from_state, to_state, event) VALUES ('a1', 's1', 1, 'created', 'generated', 'generation')"); err != nil {
		t.Fatalf("insert audit: %v", err)
	}
	if _, err := d.Exec("INSERT INTO audit_records (id, session_id, seq, from_state, to_state, event) VALUES ('a2', 's1', 1, 'generated', 'awaiting_feedback', 'delivery')"); err == nil {
		t.Error("expected UNIQUE(session_id, seq) to reject duplicate seq")
	}
}
