package gmail

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	gmail "google.golang.org/api/gmail/v1"

	"github.com/teemow/gmail-mcp/internal/instrumentation"
)

// summaryHeaders are fetched for each listed message.
var summaryHeaders = []string{"From", "Subject", "Date"}

// ListMessages runs one list call with the filter's query, then fetches the
// summary headers of every returned message in order.
func (c *Client) ListMessages(ctx context.Context, filter ListFilter) ([]*MessageSummary, error) {
	refs, err := c.listMessageRefs(ctx, filter)
	if err != nil {
		return nil, err
	}

	summaries := make([]*MessageSummary, 0, len(refs))
	for _, ref := range refs {
		msg, err := c.getMetadata(ctx, ref.Id)
		if err != nil {
			return nil, err
		}
		var headers []*gmail.MessagePartHeader
		if msg.Payload != nil {
			headers = msg.Payload.Headers
		}
		summaries = append(summaries, &MessageSummary{
			ID:      ref.Id,
			From:    headerValue(headers, "From"),
			Subject: headerValue(headers, "Subject"),
			Date:    headerValue(headers, "Date"),
			Snippet: msg.Snippet,
		})
	}
	return summaries, nil
}

func (c *Client) listMessageRefs(ctx context.Context, filter ListFilter) (refs []*gmail.Message, err error) {
	ctx, done := c.observe(ctx, instrumentation.OperationList)
	defer func() { done(err) }()

	call := c.svc.Messages.List(userID).MaxResults(int64(ClampMaxResults(filter.MaxResults)))
	if q := filter.Build(); q != "" {
		call = call.Q(q)
	}
	res, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return res.Messages, nil
}

func (c *Client) getMetadata(ctx context.Context, id string) (msg *gmail.Message, err error) {
	ctx, done := c.observe(ctx, instrumentation.OperationGet, attribute.String(instrumentation.SpanAttrEmailID, id))
	defer func() { done(err) }()

	msg, err = c.svc.Messages.Get(userID, id).
		Format("metadata").
		MetadataHeaders(summaryHeaders...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}
	return msg, nil
}

func (c *Client) getFull(ctx context.Context, id string) (msg *gmail.Message, err error) {
	ctx, done := c.observe(ctx, instrumentation.OperationGet, attribute.String(instrumentation.SpanAttrEmailID, id))
	defer func() { done(err) }()

	msg, err = c.svc.Messages.Get(userID, id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}
	return msg, nil
}

// GetMessage fetches a message in full format and extracts its headers,
// bodies and attachment metadata.
func (c *Client) GetMessage(ctx context.Context, id string) (*Message, error) {
	raw, err := c.getFull(ctx, id)
	if err != nil {
		return nil, err
	}

	var headers []*gmail.MessagePartHeader
	if raw.Payload != nil {
		headers = raw.Payload.Headers
	}
	return &Message{
		ID:       raw.Id,
		From:     headerValue(headers, "From"),
		To:       headerValue(headers, "To"),
		Date:     headerValue(headers, "Date"),
		Subject:  headerValue(headers, "Subject"),
		LabelIDs: raw.LabelIds,
		Content:  ExtractContent(raw.Id, raw.Payload),
	}, nil
}

// Profile returns the mailbox summary of the authenticated user.
func (c *Client) Profile(ctx context.Context) (p *Profile, err error) {
	ctx, done := c.observe(ctx, instrumentation.OperationProfile)
	defer func() { done(err) }()

	res, err := c.svc.GetProfile(userID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &Profile{
		EmailAddress:  res.EmailAddress,
		MessagesTotal: res.MessagesTotal,
		ThreadsTotal:  res.ThreadsTotal,
	}, nil
}
