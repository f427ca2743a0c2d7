package mcp

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/finscribe/finscribe/internal/capability"
	"github.com/finscribe/finscribe/internal/conversation"
	"github.com/finscribe/finscribe/internal/db"
	"github.com/finscribe/finscribe/internal/engine"
	"github.com/finscribe/finscribe/internal/generator"
	"github.com/finscribe/finscribe/internal/interpreter"
	"github.com/finscribe/finscribe/internal/knowledge"
	"github.com/finscribe/finscribe/internal/orchestrator"
	"github.com/finscribe/finscribe/internal/render"
	"github.com/finscribe/finscribe/internal/router"
)

const summaryRequest = "Create an investor summary for an autocallable note " +
	"issued by Acme Bank, principal amount of $2 million CAD."

func newTestServer(t *testing.T) *Server {
	t.Helper()

	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	notifier := conversation.NewNotifier()
	reg := capability.NewRegistry()
	orch := orchestrator.New(generator.New(reg, nil, ""), orchestrator.Options{
		MaxConcurrency:    4,
		CapabilityTimeout: 5 * time.Second,
	})
	renderer, err := render.New()
	if err != nil {
		t.Fatalf("building renderer: %v", err)
	}

	eng := engine.New(reg, interpreter.New(reg.RequiredUnion()), router.New(reg, 0.12),
		orch, conversation.NewStore(database, notifier),
		knowledge.NewProposer(knowledge.NewStore(database), knowledge.AcceptAll{}),
		notifier, renderer)
	return NewServer(eng)
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("tool result has no content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content[0] is %T, want TextContent", result.Content[0])
	}
	return text.Text
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		name     string
		tool     mcp.Tool
		wantName string
	}{
		{"process_request", processRequestTool, "process_request"},
		{"submit_feedback", submitFeedbackTool, "submit_feedback"},
		{"get_session", getSessionTool, "get_session"},
		{"get_document", getDocumentTool, "get_document"},
		{"list_capabilities", listCapabilitiesTool, "list_capabilities"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	srv := newTestServer(t)
	if srv.mcp == nil {
		t.Fatal("MCP server not initialized")
	}
	if srv.engine == nil {
		t.Fatal("engine not set")
	}
}

func TestHandleProcessRequest(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	t.Run("creates session", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"text": summaryRequest}

		result, err := srv.handleProcessRequest(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
		if text := resultText(t, result); !strings.Contains(text, "Session") {
			t.Errorf("result missing session id:\n%s", text)
		}
	})

	t.Run("clarification for vague request", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"text": "Please schedule a meeting with the legal team.",
		}

		result, err := srv.handleProcessRequest(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatal("clarification should not be a tool error")
		}
		if text := resultText(t, result); !strings.Contains(text, "Clarification needed") {
			t.Errorf("expected a clarification, got:\n%s", text)
		}
	})

	t.Run("missing text", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{}

		result, err := srv.handleProcessRequest(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for missing text")
		}
	})
}

func createSession(t *testing.T, srv *Server) string {
	t.Helper()
	result, err := srv.engine.ProcessRequest(context.Background(), summaryRequest)
	if err != nil {
		t.Fatalf("creating session: %v", err)
	}
	if result.SessionID == "" {
		t.Fatal("no session created")
	}
	return result.SessionID
}

func TestHandleSubmitFeedback(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	sessionID := createSession(t, srv)

	t.Run("content update with patches", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"session_id":    sessionID,
			"feedback_type": "content_update",
			"comment":       "raise the coupon",
			"patches":       `{"coupon_rate": "9.0"}`,
		}

		result, err := srv.handleSubmitFeedback(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
		if text := resultText(t, result); !strings.Contains(text, "generated") {
			t.Errorf("expected revised session state, got:\n%s", text)
		}
	})

	t.Run("malformed patches", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"session_id":    sessionID,
			"feedback_type": "content_update",
			"patches":       "not json",
		}

		result, err := srv.handleSubmitFeedback(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for malformed patches")
		}
	})

	t.Run("approval yields proposal", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"session_id":    sessionID,
			"feedback_type": "approval",
		}

		result, err := srv.handleSubmitFeedback(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
		if text := resultText(t, result); !strings.Contains(text, "accepted") {
			t.Errorf("expected accepted proposal, got:\n%s", text)
		}
	})

	t.Run("feedback on terminal session", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"session_id":    sessionID,
			"feedback_type": "content_update",
		}

		result, err := srv.handleSubmitFeedback(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for feedback on approved session")
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"session_id":    "nope",
			"feedback_type": "approval",
		}

		result, err := srv.handleSubmitFeedback(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for unknown session")
		}
	})
}

func TestHandleGetSession(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	sessionID := createSession(t, srv)

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"session_id": sessionID}

	result, err := srv.handleGetSession(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %v", result.Content)
	}
	text := resultText(t, result)
	for _, want := range []string{"awaiting_feedback", "Audit trail", "v1"} {
		if !strings.Contains(text, want) {
			t.Errorf("session snapshot missing %q:\n%s", want, text)
		}
	}
}

func TestHandleGetDocument(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	sessionID := createSession(t, srv)

	t.Run("latest by alias", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"session_id": sessionID,
			"capability": "ism",
		}

		result, err := srv.handleGetDocument(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
		if text := resultText(t, result); !strings.Contains(text, "version 1") {
			t.Errorf("expected version 1, got:\n%s", text)
		}
	})

	t.Run("missing version", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"session_id": sessionID,
			"capability": "ism",
			"version":    99,
		}

		result, err := srv.handleGetDocument(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for missing version")
		}
	})

	t.Run("unknown capability", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"session_id": sessionID,
			"capability": "quarterly_report",
		}

		result, err := srv.handleGetDocument(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for unknown capability")
		}
	})
}

func TestHandleListCapabilities(t *testing.T) {
	srv := newTestServer(t)

	result, err := srv.handleListCapabilities(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %v", result.Content)
	}
	text := resultText(t, result)
	for _, want := range []string{"4 capabilities", capability.PricingSupplement, "ism"} {
		if !strings.Contains(text, want) {
			t.Errorf("listing missing %q:\n%s", want, text)
		}
	}
}
