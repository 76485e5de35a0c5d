package gmail

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	gmail "google.golang.org/api/gmail/v1"

	"github.com/teemow/gmail-mcp/internal/instrumentation"
)

// ListLabels returns every label of the mailbox.
func (c *Client) ListLabels(ctx context.Context) (labels []*gmail.Label, err error) {
	ctx, done := c.observe(ctx, instrumentation.OperationLabelsList)
	defer func() { done(err) }()

	res, err := c.svc.Labels.List(userID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	return res.Labels, nil
}

// ResolveLabelID maps a label name to its id. System names resolve without
// a request; custom names are matched case-insensitively against the label
// list. An unknown name yields a *LabelNotFoundError.
func (c *Client) ResolveLabelID(ctx context.Context, name string) (string, error) {
	if id, ok := SystemLabelID(name); ok {
		return id, nil
	}

	labels, err := c.ListLabels(ctx)
	if err != nil {
		return "", err
	}
	want := strings.TrimSpace(name)
	for _, l := range labels {
		if strings.EqualFold(l.Name, want) {
			return l.Id, nil
		}
	}
	return "", &LabelNotFoundError{Name: name}
}

// Archive removes the INBOX label from a message. Archiving an archived
// message succeeds.
func (c *Client) Archive(ctx context.Context, id string) error {
	return c.modify(ctx, id, &gmail.ModifyMessageRequest{RemoveLabelIds: []string{"INBOX"}})
}

// AddLabel applies labelID to a message.
func (c *Client) AddLabel(ctx context.Context, id, labelID string) error {
	return c.modify(ctx, id, &gmail.ModifyMessageRequest{AddLabelIds: []string{labelID}})
}

func (c *Client) modify(ctx context.Context, id string, req *gmail.ModifyMessageRequest) (err error) {
	ctx, done := c.observe(ctx, instrumentation.OperationModify, attribute.String(instrumentation.SpanAttrEmailID, id))
	defer func() { done(err) }()

	if _, err = c.svc.Messages.Modify(userID, id, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to modify message %s: %w", id, err)
	}
	return nil
}
