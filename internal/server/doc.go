// Package server holds the process-wide MCP server context and the HTTP
// listeners that sit next to the stdio transport.
//
// ServerContext carries the shutdown context, the logger and the optional
// instrumentation (metrics and audit logger) that tool handlers read.
//
// HTTPServer exposes the MCP server over streamable-http together with
// /healthz, /readyz and /healthz/detailed. The transport has no
// authentication of its own, so it only binds to loopback addresses.
//
// MetricsServer serves the Prometheus /metrics endpoint on its own port.
package server
