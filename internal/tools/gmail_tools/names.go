package gmail_tools

import (
	"errors"
	"fmt"
)

// ToolName names one of the tools. The set is closed; see AllTools.
type ToolName string

const (
	ToolAuthenticate   ToolName = "authenticate"
	ToolListEmails     ToolName = "list_emails"
	ToolGetEmail       ToolName = "get_email"
	ToolGetAttachments ToolName = "get_attachments"
	ToolArchiveEmail   ToolName = "archive_email"
	ToolAddLabel       ToolName = "add_label"
)

// ErrUnknownTool is returned by ParseToolName for names outside the set.
var ErrUnknownTool = errors.New("unknown tool")

var allTools = []ToolName{
	ToolAuthenticate,
	ToolListEmails,
	ToolGetEmail,
	ToolGetAttachments,
	ToolArchiveEmail,
	ToolAddLabel,
}

// AllTools returns every tool in declaration order.
func AllTools() []ToolName {
	return append([]ToolName(nil), allTools...)
}

// ParseToolName maps a wire name to a ToolName.
func ParseToolName(name string) (ToolName, error) {
	for _, t := range allTools {
		if string(t) == name {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
}

func (t ToolName) String() string { return string(t) }
