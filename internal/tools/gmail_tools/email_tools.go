package gmail_tools

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/teemow/gmail-mcp/internal/gmail"
	"github.com/teemow/gmail-mcp/internal/tools/common"
)

// Body formats of get_email.
const (
	FormatFull     = "full"
	FormatTextOnly = "text_only"
	FormatHTMLOnly = "html_only"
)

// Categories accepted by list_emails.
var categories = []string{"primary", "social", "promotions", "updates", "forums"}

const snippetRunes = 100

func (d *Dispatcher) listEmails(ctx context.Context, args map[string]any) (string, error) {
	c, err := d.client(ctx)
	if err != nil {
		return "", err
	}

	filter, err := parseListFilter(args)
	if err != nil {
		return "", err
	}

	msgs, err := c.ListMessages(ctx, filter)
	if err != nil {
		return "", err
	}
	if len(msgs) == 0 {
		return "No emails found.", nil
	}

	lines := []string{fmt.Sprintf("Found %d emails:\n", len(msgs))}
	for i, m := range msgs {
		lines = append(lines, fmt.Sprintf("%d. ID: %s\n   From: %s\n   Subject: %s\n   Date: %s\n   Snippet: %s\n",
			i+1, m.ID,
			orDefault(m.From, "Unknown"),
			orDefault(m.Subject, "No Subject"),
			orDefault(m.Date, "Unknown"),
			truncateSnippet(m.Snippet),
		))
	}
	return strings.Join(lines, "\n"), nil
}

func parseListFilter(args map[string]any) (gmail.ListFilter, error) {
	var f gmail.ListFilter
	var err error

	if f.MaxResults, err = common.OptionalInt(args, "max_results", gmail.DefaultMaxResults); err != nil {
		return f, err
	}
	f.MaxResults = gmail.ClampMaxResults(f.MaxResults)

	if f.Label, err = common.OptionalString(args, "label", ""); err != nil {
		return f, err
	}
	if f.Category, err = common.OptionalString(args, "category", ""); err != nil {
		return f, err
	}
	if f.Category != "" {
		f.Category = strings.ToLower(f.Category)
		if err := common.OneOf("category", f.Category, categories...); err != nil {
			return f, err
		}
	}
	if f.UnreadOnly, err = common.OptionalBool(args, "unread_only", false); err != nil {
		return f, err
	}
	if f.Query, err = common.OptionalString(args, "query", ""); err != nil {
		return f, err
	}
	return f, nil
}

func truncateSnippet(s string) string {
	if utf8.RuneCountInString(s) <= snippetRunes {
		return s
	}
	return string([]rune(s)[:snippetRunes]) + "..."
}

func (d *Dispatcher) getEmail(ctx context.Context, args map[string]any) (string, error) {
	c, err := d.client(ctx)
	if err != nil {
		return "", err
	}

	id, err := common.RequiredString(args, "email_id")
	if err != nil {
		return "", err
	}
	format, err := common.OptionalString(args, "format", FormatFull)
	if err != nil {
		return "", err
	}
	if err := common.OneOf("format", format, FormatFull, FormatTextOnly, FormatHTMLOnly); err != nil {
		return "", err
	}

	msg, err := c.GetMessage(ctx, id)
	if err != nil {
		return "", err
	}
	return formatMessage(msg, format), nil
}

func formatMessage(msg *gmail.Message, format string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ID: %s\n", msg.ID)
	fmt.Fprintf(&b, "From: %s\n", orDefault(msg.From, "Unknown"))
	fmt.Fprintf(&b, "To: %s\n", orDefault(msg.To, "Unknown"))
	fmt.Fprintf(&b, "Date: %s\n", orDefault(msg.Date, "Unknown"))
	fmt.Fprintf(&b, "Subject: %s\n", orDefault(msg.Subject, "No Subject"))
	fmt.Fprintf(&b, "Labels: %s\n", orDefault(strings.Join(msg.LabelIDs, ", "), "(none)"))

	if format == FormatFull || format == FormatTextOnly {
		b.WriteString("\n--- Body (Text) ---\n")
		if msg.HasText {
			b.WriteString(strings.TrimRight(msg.TextBody, "\r\n"))
		} else {
			b.WriteString("(no text body)")
		}
		b.WriteString("\n")
	}
	if format == FormatFull || format == FormatHTMLOnly {
		b.WriteString("\n--- Body (HTML) ---\n")
		if msg.HasHTML {
			b.WriteString(strings.TrimRight(msg.HTMLBody, "\r\n"))
		} else {
			b.WriteString("(no html body)")
		}
		b.WriteString("\n")
	}

	if len(msg.Attachments) > 0 {
		fmt.Fprintf(&b, "\n--- Attachments (%d) ---\n", len(msg.Attachments))
		for _, a := range msg.Attachments {
			fmt.Fprintf(&b, "- %s (%s, %s)\n", a.Filename, orDefault(a.MimeType, "application/octet-stream"), humanize.Bytes(uint64(max(a.Size, 0))))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
