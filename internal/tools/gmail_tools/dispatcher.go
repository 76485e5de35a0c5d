package gmail_tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/teemow/gmail-mcp/internal/gmail"
	"github.com/teemow/gmail-mcp/internal/instrumentation"
	"github.com/teemow/gmail-mcp/internal/logging"
	"github.com/teemow/gmail-mcp/internal/tools/common"
)

// Authenticator runs the OAuth bootstrap and returns the account email.
type Authenticator interface {
	Authenticate(ctx context.Context) (string, error)
}

// ClientFactory returns a Gmail client for the current account, or
// gmail.ErrNotAuthenticated.
type ClientFactory interface {
	Client(ctx context.Context) (*gmail.Client, error)
}

// Config holds the dependencies of a Dispatcher.
type Config struct {
	Auth    Authenticator
	Clients ClientFactory

	// DownloadDir is the default save_to of get_attachments.
	DownloadDir string

	Logger  *slog.Logger
	Metrics *instrumentation.Metrics
}

// Dispatcher routes tool calls to their handlers and renders the result.
type Dispatcher struct {
	auth        Authenticator
	clients     ClientFactory
	downloadDir string
	logger      *slog.Logger
	metrics     *instrumentation.Metrics
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(cfg Config) *Dispatcher {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Dispatcher{
		auth:        cfg.Auth,
		clients:     cfg.Clients,
		downloadDir: cfg.DownloadDir,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
	}
}

// Call runs the tool called name with args and returns the text for the
// caller. isError is set for failures, whose text starts with "Error".
// Call never panics.
func (d *Dispatcher) Call(ctx context.Context, name string, args map[string]any) (text string, isError bool) {
	tool, err := ParseToolName(name)
	if err != nil {
		d.logger.Warn("unknown tool", logging.Tool(name))
		return fmt.Sprintf("Error: Unknown tool: %s", name), true
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("tool handler panicked",
				logging.Tool(name), slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
			text, isError = fmt.Sprintf("Error: internal error in %s: %v", name, r), true
		}
	}()

	if args == nil {
		args = map[string]any{}
	}
	text, err = d.dispatch(ctx, tool, args)
	if err != nil {
		d.logger.Info("tool failed", logging.Tool(name), logging.Err(err))
		return translateError(tool, err), true
	}
	return text, false
}

func (d *Dispatcher) dispatch(ctx context.Context, tool ToolName, args map[string]any) (string, error) {
	switch tool {
	case ToolAuthenticate:
		return d.authenticate(ctx)
	case ToolListEmails:
		return d.listEmails(ctx, args)
	case ToolGetEmail:
		return d.getEmail(ctx, args)
	case ToolGetAttachments:
		return d.getAttachments(ctx, args)
	case ToolArchiveEmail:
		return d.archiveEmail(ctx, args)
	case ToolAddLabel:
		return d.addLabel(ctx, args)
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownTool, tool)
}

// client returns the Gmail client for the call and records its account
// for the audit log.
func (d *Dispatcher) client(ctx context.Context) (*gmail.Client, error) {
	c, err := d.clients.Client(ctx)
	if errors.Is(err, gmail.ErrNotAuthenticated) {
		return nil, err
	}
	if err != nil {
		return nil, &connectError{err: err}
	}
	common.SetAccount(ctx, c.Account())
	return c, nil
}

func (d *Dispatcher) authenticate(ctx context.Context) (string, error) {
	email, err := d.auth.Authenticate(ctx)
	if err != nil {
		return "", err
	}
	common.SetAccount(ctx, email)
	return fmt.Sprintf("Successfully authenticated as %s\nGmail MCP is ready to use.", email), nil
}
