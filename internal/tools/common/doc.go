// Package common provides the helpers shared by the MCP tool handlers:
// argument parsing with ArgumentError, the per-call account slot, and the
// instrumentation wrapper that records metrics, spans and audit lines.
package common
