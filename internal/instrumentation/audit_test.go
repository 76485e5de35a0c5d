package instrumentation

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teemow/gmail-mcp/internal/logging"
)

func TestToolInvocation_Complete(t *testing.T) {
	ti := NewToolInvocation(context.Background(), "archive_email").WithAccount("jane@example.com")
	assert.NotEmpty(t, ti.ID)
	assert.False(t, ti.StartTime.IsZero())

	ti.Complete(true, "ignored on success")
	assert.True(t, ti.Success)
	assert.Empty(t, ti.Error)
	assert.Equal(t, StatusSuccess, ti.Status())

	ti.Complete(false, "Error: Not found")
	assert.Equal(t, StatusError, ti.Status())
	assert.Equal(t, "Error: Not found", ti.Error)
}

func TestAuditLogger_HashesAccount(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewTextHandler(&buf, nil)), AuditLoggingConfig{Enabled: true})

	ti := NewToolInvocation(context.Background(), "list_emails").WithAccount("jane@example.com").Complete(true, "")
	al.LogToolInvocation(ti)

	out := buf.String()
	assert.Contains(t, out, "tool_executed")
	assert.Contains(t, out, "tool=list_emails")
	assert.Contains(t, out, logging.AnonymizeEmail("jane@example.com"))
	assert.NotContains(t, out, "jane@example.com")
}

func TestAuditLogger_IncludePII(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewTextHandler(&buf, nil)), AuditLoggingConfig{Enabled: true, IncludePII: true})

	ti := NewToolInvocation(context.Background(), "get_email").WithAccount("jane@example.com").Complete(false, "boom")
	al.LogToolInvocation(ti)

	out := buf.String()
	assert.Contains(t, out, "tool_failed")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "account=jane@example.com")
	assert.Contains(t, out, "error=boom")
}

func TestAuditLogger_Disabled(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewTextHandler(&buf, nil)), AuditLoggingConfig{Enabled: false})
	al.LogToolInvocation(NewToolInvocation(context.Background(), "x").Complete(true, ""))
	assert.Empty(t, buf.String())

	var nilLogger *AuditLogger
	nilLogger.LogToolInvocation(NewToolInvocation(context.Background(), "x"))
}
