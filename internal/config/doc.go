// Package config resolves gmail-mcp's on-disk locations and tunables.
//
// The config directory defaults to $XDG_CONFIG_HOME/gmail-mcp and holds
// the OAuth client identity file (credentials.json, downloaded from the
// Google Cloud Console) and an optional .env file. Tokens are never written
// here; they live in the OS keyring.
package config
