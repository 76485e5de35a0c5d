// Package gmail wraps the Gmail API calls behind the MCP tools.
//
// A Factory resolves the current account from the credential store and
// builds a Client whose HTTP stack paces requests, attaches the OAuth
// bearer token and persists refreshed tokens. Client methods take a
// context, record a span and a gmail_api_requests_total sample per call,
// and return the Gmail API error wrapped so callers can inspect it with
// errors.As(err, **googleapi.Error).
//
// The package also owns the message-shaping helpers: the list query
// builder, the MIME part walker and attachment filename sanitization.
package gmail
