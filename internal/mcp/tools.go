package mcp

import "github.com/mark3labs/mcp-go/mcp"

// processRequestTool defines the process_request MCP tool.
var processRequestTool = mcp.NewTool("process_request",
	mcp.WithDescription("Process a natural-language request for structured-note documentation. Creates a session with generated documents, or returns a clarification question when the request is too vague."),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("The request, e.g. 'Create an investor summary for a 3-year autocallable note from Acme Bank'"),
	),
)

// submitFeedbackTool defines the submit_feedback MCP tool.
var submitFeedbackTool = mcp.NewTool("submit_feedback",
	mcp.WithDescription("Submit feedback on a session. Content updates and rejections trigger a revision; approvals finalize the session and propose a knowledge-base update."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("The session to give feedback on"),
	),
	mcp.WithString("feedback_type",
		mcp.Required(),
		mcp.Description("Kind of feedback"),
		mcp.Enum("content_update", "rejection", "approval"),
	),
	mcp.WithString("comment",
		mcp.Description("Free-text note carried into the revision prompt"),
	),
	mcp.WithString("patches",
		mcp.Description("JSON object of field overrides, e.g. {\"coupon_rate\": \"8.25\"}"),
	),
	mcp.WithString("target_capability",
		mcp.Description("Limit the revision to one capability (id or alias). Empty revises all."),
	),
	mcp.WithBoolean("terminal",
		mcp.Description("On a rejection, end the session instead of revising"),
	),
)

// getSessionTool defines the get_session MCP tool.
var getSessionTool = mcp.NewTool("get_session",
	mcp.WithDescription("Get a session's state, document versions, feedback log, and audit trail."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("The session to inspect"),
	),
)

// getDocumentTool defines the get_document MCP tool.
var getDocumentTool = mcp.NewTool("get_document",
	mcp.WithDescription("Get the markdown content of one generated document version."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("The session holding the document"),
	),
	mcp.WithString("capability",
		mcp.Required(),
		mcp.Description("Capability id or alias, e.g. investor_summary or ism"),
	),
	mcp.WithNumber("version",
		mcp.Description("Document version (default: latest)"),
	),
)

// listCapabilitiesTool defines the list_capabilities MCP tool.
var listCapabilitiesTool = mcp.NewTool("list_capabilities",
	mcp.WithDescription("List the document capabilities the engine can generate, with their aliases."),
)
