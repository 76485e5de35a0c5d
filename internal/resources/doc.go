// Package resources exposes read-only mailbox data as MCP resources:
// gmail://profile with the account's counters and gmail://labels with the
// label list. Both are read through the same client factory as the tools,
// so they follow the active account.
package resources
