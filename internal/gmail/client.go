package gmail

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/teemow/gmail-mcp/internal/instrumentation"
)

// userID addresses the authenticated user in every Gmail call.
const userID = "me"

// Client wraps the Gmail Users service for one account.
type Client struct {
	svc     *gmail.UsersService
	account string
	metrics *instrumentation.Metrics
}

// NewClient builds a Client. opts must carry the authenticated HTTP client.
func NewClient(ctx context.Context, account string, metrics *instrumentation.Metrics, opts ...option.ClientOption) (*Client, error) {
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return &Client{
		svc:     svc.Users,
		account: account,
		metrics: metrics,
	}, nil
}

// Account returns the email address this client acts for.
func (c *Client) Account() string {
	return c.account
}

// observe opens a span for one Gmail call; the returned func ends it and
// records the request metric.
func (c *Client) observe(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := instrumentation.StartGmailSpan(ctx, operation, attrs...)
	return ctx, func(err error) {
		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
		}
		c.metrics.RecordGmailRequest(ctx, operation, status, time.Since(start))
		instrumentation.EndSpan(span, err)
	}
}
