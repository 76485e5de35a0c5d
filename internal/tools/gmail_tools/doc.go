// Package gmail_tools exposes the Gmail adapter as MCP tools.
//
// The tool set is closed:
//   - authenticate: run the OAuth bootstrap, or reuse the stored credential
//   - list_emails: search the mailbox with label, category, unread and raw query filters
//   - get_email: headers, bodies and the attachment listing of one message
//   - get_attachments: download attachments of one message to a directory
//   - archive_email: remove messages from the inbox
//   - add_label: apply a label to messages
//
// A Dispatcher owns the handlers. It is built from an Authenticator and a
// ClientFactory, so there is no package-level account state, and it turns
// every handler error into a text result starting with "Error:". Results
// are plain text meant for an assistant to read.
package gmail_tools
