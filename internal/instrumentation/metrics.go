package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrResult    = "result"
	attrTool      = "tool"
)

// Gmail operation names used as the operation label.
const (
	OperationList          = "messages.list"
	OperationGet           = "messages.get"
	OperationModify        = "messages.modify"
	OperationAttachmentGet = "attachments.get"
	OperationLabelsList    = "labels.list"
	OperationProfile       = "profile.get"
)

// Credential store operation names.
const (
	CredentialOpStore    = "store"
	CredentialOpRetrieve = "retrieve"
	CredentialOpErase    = "erase"
)

var durationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0}

// Metrics records gmail-mcp's instruments. The zero value is a valid no-op
// recorder, which is what a disabled Provider hands out.
type Metrics struct {
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	gmailRequestsTotal metric.Int64Counter
	gmailDuration      metric.Float64Histogram

	authTotal         metric.Int64Counter
	tokenRefreshTotal metric.Int64Counter

	credentialOpsTotal metric.Int64Counter

	batchItemsTotal         metric.Int64Counter
	attachmentBytesTotal    metric.Int64Counter
	attachmentsWrittenTotal metric.Int64Counter

	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram
}

// NewMetrics creates every instrument on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&m.toolInvocationsTotal, "mcp_tool_invocations_total", "Total number of MCP tool invocations", "{invocation}"},
		{&m.gmailRequestsTotal, "gmail_api_requests_total", "Total number of Gmail API requests", "{request}"},
		{&m.authTotal, "oauth_auth_total", "OAuth bootstrap outcomes", "{attempt}"},
		{&m.tokenRefreshTotal, "oauth_token_refresh_total", "Access token refreshes", "{attempt}"},
		{&m.credentialOpsTotal, "credential_store_operations_total", "Keyring operations", "{operation}"},
		{&m.batchItemsTotal, "batch_items_total", "Per-item outcomes of batch tools", "{item}"},
		{&m.attachmentBytesTotal, "attachment_bytes_written_total", "Bytes of attachments written to disk", "By"},
		{&m.attachmentsWrittenTotal, "attachments_written_total", "Attachments written to disk", "{file}"},
		{&m.httpRequestsTotal, "http_requests_total", "Total number of HTTP requests", "{request}"},
	}
	for _, c := range counters {
		*c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return nil, fmt.Errorf("failed to create %s counter: %w", c.name, err)
		}
	}

	histograms := []struct {
		dst  *metric.Float64Histogram
		name string
		desc string
	}{
		{&m.toolDuration, "mcp_tool_duration_seconds", "MCP tool execution duration in seconds"},
		{&m.gmailDuration, "gmail_api_request_duration_seconds", "Gmail API request duration in seconds"},
		{&m.httpRequestDuration, "http_request_duration_seconds", "HTTP request duration in seconds"},
	}
	for _, h := range histograms {
		*h.dst, err = meter.Float64Histogram(h.name,
			metric.WithDescription(h.desc),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(durationBuckets...),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s histogram: %w", h.name, err)
		}
	}

	return m, nil
}

// RecordToolInvocation records one MCP tool call.
func (m *Metrics) RecordToolInvocation(ctx context.Context, tool, status string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrTool, tool),
		attribute.String(attrStatus, status),
	)
	m.toolInvocationsTotal.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordGmailRequest records one Gmail API call.
func (m *Metrics) RecordGmailRequest(ctx context.Context, operation, status string, duration time.Duration) {
	if m == nil || m.gmailRequestsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
	m.gmailRequestsTotal.Add(ctx, 1, attrs)
	m.gmailDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordAuth records the outcome of an OAuth bootstrap: consent, reused or failure.
func (m *Metrics) RecordAuth(ctx context.Context, result string) {
	if m == nil || m.authTotal == nil {
		return
	}
	m.authTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordTokenRefresh records an access-token refresh.
func (m *Metrics) RecordTokenRefresh(ctx context.Context, result string) {
	if m == nil || m.tokenRefreshTotal == nil {
		return
	}
	m.tokenRefreshTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordCredentialOperation records a keyring access.
func (m *Metrics) RecordCredentialOperation(ctx context.Context, operation, status string) {
	if m == nil || m.credentialOpsTotal == nil {
		return
	}
	m.credentialOpsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	))
}

// RecordBatchItems records the per-item outcome counts of a batch tool.
func (m *Metrics) RecordBatchItems(ctx context.Context, tool string, succeeded, failed int) {
	if m == nil || m.batchItemsTotal == nil {
		return
	}
	if succeeded > 0 {
		m.batchItemsTotal.Add(ctx, int64(succeeded), metric.WithAttributes(
			attribute.String(attrTool, tool), attribute.String(attrStatus, StatusSuccess)))
	}
	if failed > 0 {
		m.batchItemsTotal.Add(ctx, int64(failed), metric.WithAttributes(
			attribute.String(attrTool, tool), attribute.String(attrStatus, StatusError)))
	}
}

// RecordAttachmentWritten records one attachment saved to disk.
func (m *Metrics) RecordAttachmentWritten(ctx context.Context, bytes int) {
	if m == nil || m.attachmentsWrittenTotal == nil {
		return
	}
	m.attachmentsWrittenTotal.Add(ctx, 1)
	m.attachmentBytesTotal.Add(ctx, int64(bytes))
}

// RecordHTTPRequest records a request on the streamable-http listener.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	)
	m.httpRequestsTotal.Add(ctx, 1, attrs)
	m.httpRequestDuration.Record(ctx, duration.Seconds(), attrs)
}
