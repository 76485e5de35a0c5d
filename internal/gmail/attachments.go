package gmail

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/gmail-mcp/internal/instrumentation"
)

const (
	// MaxAttachmentSize defines the maximum attachment size in bytes (25MB)
	MaxAttachmentSize = 25 * 1024 * 1024

	// maxFilenameBytes is the common filesystem limit for one path element.
	maxFilenameBytes = 255

	fallbackFilename = "attachment"
)

// ListAttachments fetches the message again and returns its attachments,
// each with the attachment id of this fetch.
func (c *Client) ListAttachments(ctx context.Context, messageID string) ([]*AttachmentInfo, error) {
	msg, err := c.getFull(ctx, messageID)
	if err != nil {
		return nil, err
	}
	return ExtractContent(messageID, msg.Payload).Attachments, nil
}

// GetAttachment returns the decoded bytes of att. Attachments over
// MaxAttachmentSize are refused.
func (c *Client) GetAttachment(ctx context.Context, att *AttachmentInfo) (data []byte, err error) {
	if att.Size > MaxAttachmentSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrAttachmentTooLarge, att.Size)
	}
	if att.AttachmentID == "" {
		if att.inline == "" {
			return []byte{}, nil
		}
		return DecodeData(att.inline)
	}

	ctx, done := c.observe(ctx, instrumentation.OperationAttachmentGet, attribute.String(instrumentation.SpanAttrEmailID, att.MessageID))
	defer func() { done(err) }()

	body, err := c.svc.Messages.Attachments.Get(userID, att.MessageID, att.AttachmentID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get attachment %s: %w", att.Filename, err)
	}
	if body.Size > MaxAttachmentSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrAttachmentTooLarge, body.Size)
	}
	return DecodeData(body.Data)
}

// SanitizeFilename turns an attachment name into a safe single path
// element: directories are dropped, reserved and control characters become
// '_', and dot-files and empty names get an "attachment" stem. The result
// is at most 255 bytes and keeps its extension.
func SanitizeFilename(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, `\`, "/"))

	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20 || r == 0x7f:
			return '_'
		case strings.ContainsRune(`/\<>:"|?*`, r):
			return '_'
		}
		return r
	}, name)
	name = strings.TrimSpace(name)

	switch {
	case name == "" || name == "." || name == "..":
		return fallbackFilename
	case strings.HasPrefix(name, "."):
		name = fallbackFilename + name
	}

	if len(name) > maxFilenameBytes {
		ext := path.Ext(name)
		if len(ext) >= maxFilenameBytes/2 {
			ext = ""
		}
		name = truncateUTF8(strings.TrimSuffix(name, ext), maxFilenameBytes-len(ext)) + ext
	}
	return name
}

func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}

// UniqueFilename returns name, or name_1, name_2, ... before the extension,
// choosing the first that is neither in taken nor present in dir. The
// chosen name is added to taken.
func UniqueFilename(dir, name string, taken map[string]bool) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	candidate := name
	for i := 1; ; i++ {
		if !taken[candidate] && !exists(filepath.Join(dir, candidate)) {
			taken[candidate] = true
			return candidate
		}
		candidate = fmt.Sprintf("%s_%d%s", stem, i, ext)
	}
}

func exists(p string) bool {
	_, err := os.Lstat(p)
	return !errors.Is(err, fs.ErrNotExist)
}

// EnsureDir creates dir with mode 0700 when it does not exist and returns
// its absolute form.
func EnsureDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o700); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", abs, err)
	}
	return abs, nil
}

// WriteAttachment writes data to dir/name with mode 0600 and returns the
// absolute path. It refuses names that resolve outside dir and never
// overwrites an existing file.
func WriteAttachment(dir, name string, data []byte) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	target := filepath.Join(absDir, name)
	if filepath.Dir(target) != absDir {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", target, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(target)
		return "", fmt.Errorf("failed to write %s: %w", target, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", target, err)
	}
	return target, nil
}
