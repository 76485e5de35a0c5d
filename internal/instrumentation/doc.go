// Package instrumentation provides OpenTelemetry metrics, tracing and audit
// logging for gmail-mcp.
//
// # Metrics
//
//   - mcp_tool_invocations_total, mcp_tool_duration_seconds: by tool and status
//   - gmail_api_requests_total, gmail_api_request_duration_seconds: by operation and status
//   - oauth_auth_total: bootstrap outcomes (consent, reused, failure)
//   - oauth_token_refresh_total: access-token refreshes
//   - credential_store_operations_total: keyring store/retrieve/erase
//   - batch_items_total: per-item outcomes of archive_email and add_label
//   - attachments_written_total, attachment_bytes_written_total
//   - http_requests_total, http_request_duration_seconds: streamable-http only
//
// # Configuration
//
//   - INSTRUMENTATION_ENABLED (default: true)
//   - METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_INSECURE
//   - OTEL_TRACES_SAMPLER_ARG (default: 1.0)
//   - AUDIT_LOGGING_ENABLED, AUDIT_LOGGING_INCLUDE_PII
//
// Stdout is never used by any exporter; the stdio transport owns it.
package instrumentation
