// Package credstore keeps OAuth credentials in the operating system keyring.
//
// Secrets live under the service "gmail-mcp" keyed by account email. Since
// keyrings cannot enumerate their entries, a pointer entry records the most
// recently authenticated account.
package credstore
