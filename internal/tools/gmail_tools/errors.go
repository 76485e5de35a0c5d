package gmail_tools

import (
	"errors"
	"fmt"

	"google.golang.org/api/googleapi"

	"github.com/teemow/gmail-mcp/internal/gmail"
	"github.com/teemow/gmail-mcp/internal/google"
)

const (
	notAuthenticatedMessage = "Error: Not authenticated. Please call the 'authenticate' tool first."
	connectFailedMessage    = "Error: Failed to connect to Gmail. Please re-authenticate."
)

// connectError is a client construction failure other than a missing
// credential, such as an unreachable keyring.
type connectError struct {
	err error
}

func (e *connectError) Error() string { return "failed to create Gmail client: " + e.err.Error() }

func (e *connectError) Unwrap() error { return e.err }

// translateError renders a handler error for the caller.
func translateError(tool ToolName, err error) string {
	var missing *google.MissingCredentialsError
	switch {
	case errors.As(err, &missing):
		return "Error: " + missing.Error()
	case tool == ToolAuthenticate:
		return "Error during authentication: " + err.Error()
	case errors.Is(err, gmail.ErrNotAuthenticated):
		return notAuthenticatedMessage
	}
	var connErr *connectError
	if errors.As(err, &connErr) {
		return connectFailedMessage
	}
	return "Error: " + errorMessage(err)
}

// errorMessage prefers the Gmail API's own message over the wrapped chain.
func errorMessage(err error) string {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fmt.Sprintf("HTTP %d", apiErr.Code)
	}
	var attErr *gmail.AttachmentNotFoundError
	if errors.As(err, &attErr) {
		return attErr.Error()
	}
	var labelErr *gmail.LabelNotFoundError
	if errors.As(err, &labelErr) {
		return labelErr.Error()
	}
	return err.Error()
}
