package instrumentation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp.Meter("test"))
	require.NoError(t, err)
	return m, reader
}

// sumFor returns the value of the int64 sum named name whose data point
// carries every attribute in want.
func sumFor(t *testing.T, reader *sdkmetric.ManualReader, name string, want ...attribute.KeyValue) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				if hasAll(dp.Attributes, want) {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func hasAll(set attribute.Set, want []attribute.KeyValue) bool {
	for _, kv := range want {
		v, ok := set.Value(kv.Key)
		if !ok || v != kv.Value {
			return false
		}
	}
	return true
}

func TestMetrics_RecordToolInvocation(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordToolInvocation(ctx, "list_emails", StatusSuccess, 10*time.Millisecond)
	m.RecordToolInvocation(ctx, "list_emails", StatusSuccess, 20*time.Millisecond)
	m.RecordToolInvocation(ctx, "get_email", StatusError, 5*time.Millisecond)

	assert.Equal(t, int64(2), sumFor(t, reader, "mcp_tool_invocations_total",
		attribute.String("tool", "list_emails"), attribute.String("status", StatusSuccess)))
	assert.Equal(t, int64(1), sumFor(t, reader, "mcp_tool_invocations_total",
		attribute.String("tool", "get_email"), attribute.String("status", StatusError)))
}

func TestMetrics_RecordGmailRequest(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordGmailRequest(ctx, OperationModify, StatusSuccess, time.Millisecond)
	m.RecordGmailRequest(ctx, OperationModify, StatusError, time.Millisecond)

	assert.Equal(t, int64(2), sumFor(t, reader, "gmail_api_requests_total",
		attribute.String("operation", OperationModify)))
}

func TestMetrics_AuthAndCredentials(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordAuth(ctx, AuthResultReused)
	m.RecordTokenRefresh(ctx, RefreshResultSuccess)
	m.RecordCredentialOperation(ctx, CredentialOpRetrieve, StatusSuccess)

	assert.Equal(t, int64(1), sumFor(t, reader, "oauth_auth_total", attribute.String("result", AuthResultReused)))
	assert.Equal(t, int64(1), sumFor(t, reader, "oauth_token_refresh_total"))
	assert.Equal(t, int64(1), sumFor(t, reader, "credential_store_operations_total",
		attribute.String("operation", CredentialOpRetrieve)))
}

func TestMetrics_RecordBatchItems(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordBatchItems(ctx, "archive_email", 2, 1)
	m.RecordBatchItems(ctx, "archive_email", 0, 0)

	assert.Equal(t, int64(2), sumFor(t, reader, "batch_items_total", attribute.String("status", StatusSuccess)))
	assert.Equal(t, int64(1), sumFor(t, reader, "batch_items_total", attribute.String("status", StatusError)))
}

func TestMetrics_RecordAttachmentWritten(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordAttachmentWritten(ctx, 1024)
	m.RecordAttachmentWritten(ctx, 24)

	assert.Equal(t, int64(2), sumFor(t, reader, "attachments_written_total"))
	assert.Equal(t, int64(1048), sumFor(t, reader, "attachment_bytes_written_total"))
}

func TestMetrics_RecordHTTPRequest(t *testing.T) {
	m, reader := newTestMetrics(t)

	m.RecordHTTPRequest(context.Background(), "POST", "/mcp", 200, time.Millisecond)

	assert.Equal(t, int64(1), sumFor(t, reader, "http_requests_total",
		attribute.String("method", "POST"), attribute.String("status", "200")))
}

func TestMetrics_ZeroValueIsNoop(t *testing.T) {
	ctx := context.Background()
	for _, m := range []*Metrics{{}, nil} {
		m.RecordToolInvocation(ctx, "x", StatusSuccess, time.Second)
		m.RecordGmailRequest(ctx, OperationGet, StatusSuccess, time.Second)
		m.RecordAuth(ctx, AuthResultConsent)
		m.RecordTokenRefresh(ctx, RefreshResultFailure)
		m.RecordCredentialOperation(ctx, CredentialOpErase, StatusError)
		m.RecordBatchItems(ctx, "add_label", 1, 1)
		m.RecordAttachmentWritten(ctx, 1)
		m.RecordHTTPRequest(ctx, "GET", "/healthz", 200, time.Second)
	}
}
