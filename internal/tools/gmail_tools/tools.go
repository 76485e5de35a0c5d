package gmail_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/gmail-mcp/internal/gmail"
	"github.com/teemow/gmail-mcp/internal/server"
	"github.com/teemow/gmail-mcp/internal/tools/common"
)

// Definitions returns the schema of every tool in AllTools order.
func Definitions() []mcp.Tool {
	defs := make([]mcp.Tool, 0, len(allTools))
	for _, t := range allTools {
		defs = append(defs, Definition(t))
	}
	return defs
}

// Definition returns the schema of one tool.
func Definition(t ToolName) mcp.Tool {
	switch t {
	case ToolAuthenticate:
		return mcp.NewTool(t.String(),
			mcp.WithDescription("Authenticate with Gmail. Opens a browser for Google consent on first use; afterwards the stored credential is reused."),
		)
	case ToolListEmails:
		return mcp.NewTool(t.String(),
			mcp.WithDescription("List emails from Gmail with optional filters"),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithNumber("max_results",
				mcp.Description(fmt.Sprintf("Maximum number of emails to return (default: %d, max: %d)", gmail.DefaultMaxResults, gmail.MaxListResults)),
				mcp.Min(1),
				mcp.Max(gmail.MaxListResults),
			),
			mcp.WithString("label",
				mcp.Description("Filter by label (e.g., INBOX, STARRED, or a custom label name)"),
			),
			mcp.WithString("category",
				mcp.Description("Filter by inbox category"),
				mcp.Enum(categories...),
			),
			mcp.WithBoolean("unread_only",
				mcp.Description("Only return unread emails (default: false)"),
			),
			mcp.WithString("query",
				mcp.Description("Gmail search query, appended verbatim (e.g., 'from:alice@example.com has:attachment')"),
			),
		)
	case ToolGetEmail:
		return mcp.NewTool(t.String(),
			mcp.WithDescription("Get the full content of an email, including its attachment list"),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithString("email_id",
				mcp.Required(),
				mcp.Description("The ID of the email"),
			),
			mcp.WithString("format",
				mcp.Description("Which bodies to include (default: full)"),
				mcp.Enum(FormatFull, FormatTextOnly, FormatHTMLOnly),
			),
		)
	case ToolGetAttachments:
		return mcp.NewTool(t.String(),
			mcp.WithDescription("Download attachments of an email to a local directory"),
			mcp.WithString("email_id",
				mcp.Required(),
				mcp.Description("The ID of the email"),
			),
			mcp.WithString("filename",
				mcp.Description("Download only the attachment with this exact filename (default: all attachments)"),
			),
			mcp.WithString("save_to",
				mcp.Description("Directory to save attachments to (default: the Downloads directory)"),
			),
		)
	case ToolArchiveEmail:
		return mcp.NewTool(t.String(),
			mcp.WithDescription("Archive emails by removing them from the inbox"),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithArray("email_ids",
				mcp.Required(),
				mcp.Description("Non-empty list of email IDs to archive"),
				mcp.Items(map[string]any{"type": "string"}),
			),
		)
	case ToolAddLabel:
		return mcp.NewTool(t.String(),
			mcp.WithDescription("Apply a label to emails"),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithArray("email_ids",
				mcp.Required(),
				mcp.Description("Non-empty list of email IDs to label"),
				mcp.Items(map[string]any{"type": "string"}),
			),
			mcp.WithString("label",
				mcp.Required(),
				mcp.Description("Label name: a system label such as STARRED or IMPORTANT, or an existing custom label"),
			),
		)
	}
	panic(fmt.Sprintf("no definition for tool %q", t))
}

// RegisterGmailTools registers every tool of d with the MCP server.
func RegisterGmailTools(s *mcpserver.MCPServer, sc *server.ServerContext, d *Dispatcher) error {
	for _, t := range allTools {
		s.AddTool(Definition(t), common.InstrumentedToolHandler(t.String(), sc, d.handler(t)))
	}
	return nil
}

func (d *Dispatcher) handler(t ToolName) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, isError := d.Call(ctx, t.String(), request.GetArguments())
		if isError {
			return mcp.NewToolResultError(text), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}
