package gmail_tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/teemow/gmail-mcp/internal/gmail"
	"github.com/teemow/gmail-mcp/internal/logging"
	"github.com/teemow/gmail-mcp/internal/tools/common"
)

func (d *Dispatcher) getAttachments(ctx context.Context, args map[string]any) (string, error) {
	c, err := d.client(ctx)
	if err != nil {
		return "", err
	}

	id, err := common.RequiredString(args, "email_id")
	if err != nil {
		return "", err
	}
	filename, err := common.OptionalString(args, "filename", "")
	if err != nil {
		return "", err
	}
	saveTo, err := common.OptionalString(args, "save_to", d.downloadDir)
	if err != nil {
		return "", err
	}
	if saveTo == "" {
		return "", common.ArgError("save_to is required when no download directory is configured")
	}
	saveTo, err = expandHome(saveTo)
	if err != nil {
		return "", err
	}

	// Attachment ids are only valid for the fetch that returned them.
	atts, err := c.ListAttachments(ctx, id)
	if err != nil {
		return "", err
	}
	if len(atts) == 0 {
		return "No attachments found.", nil
	}
	if filename != "" {
		atts = filterByFilename(atts, filename)
		if len(atts) == 0 {
			return "", &gmail.AttachmentNotFoundError{Filename: filename}
		}
	}

	dir, err := gmail.EnsureDir(saveTo)
	if err != nil {
		return "", err
	}

	taken := map[string]bool{}
	var saved, failed []string
	for _, att := range atts {
		if err := ctx.Err(); err != nil {
			failed = append(failed, fmt.Sprintf("  - %s: %s", att.Filename, err))
			continue
		}
		path, err := d.saveAttachment(ctx, c, att, dir, taken)
		if err != nil {
			d.logger.Warn("attachment download failed", logging.EmailID(id), logging.Err(err))
			failed = append(failed, fmt.Sprintf("  - %s: %s", att.Filename, gmail.Reason(err)))
			continue
		}
		saved = append(saved, "- "+path)
	}

	var lines []string
	if len(saved) > 0 || len(failed) == 0 {
		lines = append(lines, fmt.Sprintf("Downloaded %d attachment(s) to %s:", len(saved), dir))
		lines = append(lines, saved...)
	}
	if len(failed) > 0 {
		lines = append(lines, fmt.Sprintf("Failed to download %d attachment(s):", len(failed)))
		lines = append(lines, failed...)
	}
	return strings.Join(lines, "\n"), nil
}

func (d *Dispatcher) saveAttachment(ctx context.Context, c *gmail.Client, att *gmail.AttachmentInfo, dir string, taken map[string]bool) (string, error) {
	data, err := c.GetAttachment(ctx, att)
	if err != nil {
		return "", err
	}
	name := gmail.UniqueFilename(dir, gmail.SanitizeFilename(att.Filename), taken)
	path, err := gmail.WriteAttachment(dir, name, data)
	if err != nil {
		return "", err
	}
	d.metrics.RecordAttachmentWritten(ctx, len(data))
	return path, nil
}

func filterByFilename(atts []*gmail.AttachmentInfo, filename string) []*gmail.AttachmentInfo {
	var out []*gmail.AttachmentInfo
	for _, a := range atts {
		if a.Filename == filename {
			out = append(out, a)
		}
	}
	return out
}

// expandHome resolves a leading "~/" against the user's home directory.
func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}
