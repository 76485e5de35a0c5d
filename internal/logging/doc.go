// Package logging provides structured logging helpers for gmail-mcp.
//
// All logging goes through log/slog. Setup wires the process logger to
// stderr and, optionally, a size-rotated file. Stdout is reserved for the
// MCP stdio stream and is never written to.
//
// # Usage Patterns
//
//	logger := logging.WithTool(slog.Default(), "archive_email")
//	logger.Info("batch finished", logging.Count(3), logging.Err(err))
//
// Email addresses are hashed before logging:
//
//	logger.Info("authenticated", logging.UserHash(email))
package logging
