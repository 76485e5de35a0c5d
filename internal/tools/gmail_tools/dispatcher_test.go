package gmail_tools

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
	gmailv1 "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/teemow/gmail-mcp/internal/credstore"
	"github.com/teemow/gmail-mcp/internal/gmail"
	"github.com/teemow/gmail-mcp/internal/gmail/gmailtest"
	"github.com/teemow/gmail-mcp/internal/google"
)

type fakeAuth struct {
	email string
	err   error
	calls int
}

func (f *fakeAuth) Authenticate(context.Context) (string, error) {
	f.calls++
	return f.email, f.err
}

type fakeClients struct {
	client *gmail.Client
	err    error
	panic  string
}

func (f *fakeClients) Client(context.Context) (*gmail.Client, error) {
	if f.panic != "" {
		panic(f.panic)
	}
	return f.client, f.err
}

type fixture struct {
	srv        *gmailtest.Server
	dispatcher *Dispatcher
	downloads  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := gmailtest.NewServer(t)
	c, err := gmail.NewClient(context.Background(), "jane@example.com", nil, srv.ClientOptions()...)
	require.NoError(t, err)

	downloads := filepath.Join(t.TempDir(), "Downloads")
	return &fixture{
		srv:       srv,
		downloads: downloads,
		dispatcher: NewDispatcher(Config{
			Auth:        &fakeAuth{email: "jane@example.com"},
			Clients:     &fakeClients{client: c},
			DownloadDir: downloads,
			Logger:      slog.New(slog.DiscardHandler),
		}),
	}
}

func (f *fixture) call(t *testing.T, name string, args map[string]any) (string, bool) {
	t.Helper()
	return f.dispatcher.Call(context.Background(), name, args)
}

func (f *fixture) addMessage(id string, labels []string, headers ...string) {
	f.srv.AddMessage(&gmailv1.Message{
		Id:       id,
		LabelIds: labels,
		Snippet:  "snippet of " + id,
		Payload: &gmailv1.MessagePart{
			MimeType: "multipart/mixed",
			Headers:  gmailtest.Headers(headers...),
			Parts: []*gmailv1.MessagePart{{
				MimeType: "multipart/alternative",
				Parts: []*gmailv1.MessagePart{
					gmailtest.TextPart("text/plain", "Hello "+id+"\r\n"),
					gmailtest.TextPart("text/html", "<p>Hello "+id+"</p>"),
				},
			}},
		},
	})
}

func TestParseToolName(t *testing.T) {
	for _, tool := range AllTools() {
		got, err := ParseToolName(tool.String())
		require.NoError(t, err)
		assert.Equal(t, tool, got)
	}

	_, err := ParseToolName("send_email")
	assert.ErrorIs(t, err, ErrUnknownTool)

	assert.Equal(t, []ToolName{
		ToolAuthenticate, ToolListEmails, ToolGetEmail, ToolGetAttachments, ToolArchiveEmail, ToolAddLabel,
	}, AllTools())
}

func TestDefinitions(t *testing.T) {
	defs := Definitions()
	require.Len(t, defs, len(AllTools()))
	for i, tool := range AllTools() {
		assert.Equal(t, tool.String(), defs[i].Name)
		assert.NotEmpty(t, defs[i].Description)
	}

	required := map[ToolName][]string{
		ToolGetEmail:       {"email_id"},
		ToolGetAttachments: {"email_id"},
		ToolArchiveEmail:   {"email_ids"},
		ToolAddLabel:       {"email_ids", "label"},
	}
	for tool, want := range required {
		assert.ElementsMatch(t, want, Definition(tool).InputSchema.Required, tool)
	}
	assert.Empty(t, Definition(ToolListEmails).InputSchema.Required)
}

func TestDispatcher_UnknownTool(t *testing.T) {
	f := newFixture(t)
	text, isError := f.call(t, "send_email", nil)
	assert.True(t, isError)
	assert.Equal(t, "Error: Unknown tool: send_email", text)
}

func TestDispatcher_NotAuthenticated(t *testing.T) {
	keyring.MockInit()
	srv := gmailtest.NewServer(t)
	factory := gmail.NewFactory(gmail.FactoryConfig{
		Store:           credstore.NewKeyringStore(),
		CredentialsPath: filepath.Join(t.TempDir(), "credentials.json"),
		Options:         []option.ClientOption{srv.Endpoint()},
	})
	d := NewDispatcher(Config{Auth: &fakeAuth{}, Clients: factory, Logger: slog.New(slog.DiscardHandler)})

	for _, tool := range AllTools() {
		if tool == ToolAuthenticate {
			continue
		}
		t.Run(tool.String(), func(t *testing.T) {
			text, isError := d.Call(context.Background(), tool.String(), map[string]any{
				"email_id": "m1", "email_ids": []any{"m1"}, "label": "STARRED",
			})
			assert.True(t, isError)
			assert.Equal(t, "Error: Not authenticated. Please call the 'authenticate' tool first.", text)
		})
	}
	assert.Empty(t, srv.Requests())
}

func TestDispatcher_Authenticate(t *testing.T) {
	tests := []struct {
		name      string
		auth      *fakeAuth
		want      string
		wantError bool
	}{
		{
			name: "success",
			auth: &fakeAuth{email: "jane@example.com"},
			want: "Successfully authenticated as jane@example.com\nGmail MCP is ready to use.",
		},
		{
			name:      "missing credentials file",
			auth:      &fakeAuth{err: &google.MissingCredentialsError{Path: "/home/jane/.config/gmail-mcp/credentials.json"}},
			want:      "Error: credentials.json not found at /home/jane/.config/gmail-mcp/credentials.json\nPlease download OAuth credentials from Google Cloud Console and save them there.",
			wantError: true,
		},
		{
			name:      "flow failure",
			auth:      &fakeAuth{err: google.ErrCallbackTimeout},
			want:      "Error during authentication: " + google.ErrCallbackTimeout.Error(),
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDispatcher(Config{Auth: tt.auth, Clients: &fakeClients{}, Logger: slog.New(slog.DiscardHandler)})
			text, isError := d.Call(context.Background(), "authenticate", nil)
			assert.Equal(t, tt.wantError, isError)
			assert.Equal(t, tt.want, text)
			assert.Equal(t, 1, tt.auth.calls)
		})
	}
}

func TestDispatcher_ClientFailures(t *testing.T) {
	tests := []struct {
		name    string
		clients *fakeClients
		want    string
	}{
		{
			name:    "keyring unavailable",
			clients: &fakeClients{err: errors.New("keyring locked")},
			want:    "Error: Failed to connect to Gmail. Please re-authenticate.",
		},
		{
			name:    "handler panic",
			clients: &fakeClients{panic: "boom"},
			want:    "Error: internal error in list_emails: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDispatcher(Config{Auth: &fakeAuth{}, Clients: tt.clients, Logger: slog.New(slog.DiscardHandler)})
			text, isError := d.Call(context.Background(), "list_emails", nil)
			assert.True(t, isError)
			assert.Equal(t, tt.want, text)
		})
	}
}

func TestDispatcher_Handler(t *testing.T) {
	f := newFixture(t)

	result, err := f.dispatcher.handler(ToolGetEmail)(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, result.IsError)

	f.addMessage("m1", []string{"INBOX"})
	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"email_id": "m1"}
	result, err = f.dispatcher.handler(ToolGetEmail)(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, result.IsError)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func lines(s string) []string {
	return strings.Split(s, "\n")
}
