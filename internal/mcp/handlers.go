package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/finscribe/finscribe/internal/conversation"
	"github.com/finscribe/finscribe/internal/engine"
)

// handleProcessRequest runs the full interpret-route-generate pipeline.
func (s *Server) handleProcessRequest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: text"), nil
	}

	result, err := s.engine.ProcessRequest(ctx, text)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("processing request: %v", err)), nil
	}

	if c := result.Clarification(); c != nil {
		var sb strings.Builder
		sb.WriteString("Clarification needed: ")
		sb.WriteString(c.Message)
		if len(c.MissingFields) > 0 {
			sb.WriteString("\nMissing fields: ")
			sb.WriteString(strings.Join(c.MissingFields, ", "))
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
	if result.SessionID == "" {
		return mcp.NewToolResultError("all capabilities failed, no session created"), nil
	}

	return mcp.NewToolResultText(formatProcessResult(result)), nil
}

// handleSubmitFeedback applies one feedback event to a session.
func (s *Server) handleSubmitFeedback(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}
	feedbackType, err := request.RequireString("feedback_type")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: feedback_type"), nil
	}

	event := conversation.FeedbackEvent{
		Type:             conversation.FeedbackType(feedbackType),
		Comment:          request.GetString("comment", ""),
		TargetCapability: request.GetString("target_capability", ""),
		Terminal:         request.GetBool("terminal", false),
	}
	if raw := request.GetString("patches", ""); raw != "" {
		if err := json.Unmarshal([]byte(raw), &event.Patches); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("patches must be a JSON object: %v", err)), nil
		}
	}

	result, err := s.engine.SubmitFeedback(ctx, sessionID, event)
	if err != nil {
		var invalid *conversation.InvalidTransitionError
		switch {
		case errors.Is(err, conversation.ErrSessionNotFound):
			return mcp.NewToolResultError(fmt.Sprintf("session %q not found", sessionID)), nil
		case errors.As(err, &invalid):
			return mcp.NewToolResultError(err.Error()), nil
		default:
			return mcp.NewToolResultError(fmt.Sprintf("applying feedback: %v", err)), nil
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Session %s is now %s.\n", sessionID, result.NewState)
	if result.Aggregated != nil {
		ok := 0
		for _, r := range result.Aggregated.Results {
			if r.OK() {
				ok++
			}
		}
		fmt.Fprintf(&sb, "Revision regenerated %d of %d document(s).\n",
			ok, len(result.Aggregated.Results))
	}
	if result.Proposal != nil {
		fmt.Fprintf(&sb, "Knowledge update proposal %s was %s.\n",
			result.Proposal.ID, result.Proposal.Decision)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleGetSession returns a readable session snapshot.
func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}

	sess, err := s.engine.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, conversation.ErrSessionNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("session %q not found", sessionID)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("loading session: %v", err)), nil
	}

	return mcp.NewToolResultText(formatSession(sess)), nil
}

// handleGetDocument returns the markdown of one document version.
func (s *Server) handleGetDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}
	capabilityID, err := request.RequireString("capability")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: capability"), nil
	}
	version := request.GetInt("version", 0)

	doc, err := s.engine.GetDocument(ctx, sessionID, capabilityID, version)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("# %s (version %d)\n\n%s",
		doc.Title, doc.Version, doc.Content)), nil
}

// handleListCapabilities lists the generation capabilities.
func (s *Server) handleListCapabilities(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	infos := s.engine.ListCapabilities()

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d capabilities:\n", len(infos))
	for _, info := range infos {
		fmt.Fprintf(&sb, "\n- %s (%s)\n  aliases: %s\n  %s\n",
			info.Name, info.CanonicalID, strings.Join(info.Aliases, ", "), info.Description)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// formatProcessResult renders a successful run for agent consumption.
func formatProcessResult(result *engine.ProcessResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Session %s created.\n", result.SessionID)
	fmt.Fprintf(&sb, "Extraction confidence: %.2f\n", result.Decision.Confidence)

	fmt.Fprintf(&sb, "\nSelected capabilities:\n")
	for _, sel := range result.Decision.Selections {
		fmt.Fprintf(&sb, "- %s (score %.2f)", sel.CapabilityID, sel.Score)
		if len(sel.Task.Missing) > 0 {
			fmt.Fprintf(&sb, ", defaulted fields: %s", strings.Join(sel.Task.Missing, ", "))
		}
		sb.WriteString("\n")
	}

	if result.Aggregated != nil {
		fmt.Fprintf(&sb, "\nDocuments:\n")
		for _, r := range result.Aggregated.Results {
			if r.OK() {
				fmt.Fprintf(&sb, "- %s: %s\n", r.CapabilityID, r.Document.Title)
			} else {
				fmt.Fprintf(&sb, "- %s: FAILED (%v)\n", r.CapabilityID, r.Error)
			}
		}
		if result.Aggregated.Degraded {
			sb.WriteString("\nNote: some capabilities failed; the session holds the rest.\n")
		}
	}
	return sb.String()
}

// formatSession renders a session snapshot for agent consumption.
func formatSession(sess *conversation.Session) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Session %s\n", sess.ID)
	fmt.Fprintf(&sb, "State: %s\n", sess.State)
	fmt.Fprintf(&sb, "Request: %s\n", sess.RequestText)

	fmt.Fprintf(&sb, "\nDocuments (%d versions):\n", len(sess.Documents))
	for _, doc := range sess.Documents {
		fmt.Fprintf(&sb, "- %s v%d: %s\n", doc.CapabilityID, doc.Version, doc.Title)
	}

	if len(sess.Feedback) > 0 {
		fmt.Fprintf(&sb, "\nFeedback:\n")
		for _, f := range sess.Feedback {
			fmt.Fprintf(&sb, "- %s", f.Type)
			if f.Comment != "" {
				fmt.Fprintf(&sb, ": %s", f.Comment)
			}
			sb.WriteString("\n")
		}
	}

	fmt.Fprintf(&sb, "\nAudit trail:\n")
	for _, rec := range sess.Audit {
		fmt.Fprintf(&sb, "%d. %s -> %s (%s)\n", rec.Seq, rec.FromState, rec.ToState, rec.Event)
	}
	return sb.String()
}
