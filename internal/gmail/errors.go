package gmail

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

var (
	// ErrNotAuthenticated means there is no usable stored credential.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrAttachmentNotFound means a filename filter matched no attachment.
	ErrAttachmentNotFound = errors.New("attachment not found")

	// ErrLabelNotFound means a custom label name did not resolve.
	ErrLabelNotFound = errors.New("label not found")

	// ErrAttachmentTooLarge means an attachment exceeds MaxAttachmentSize.
	ErrAttachmentTooLarge = errors.New("attachment exceeds maximum size")

	// ErrUnsafePath means a download target escaped its directory.
	ErrUnsafePath = errors.New("path escapes the download directory")
)

// AttachmentNotFoundError names the filename that matched nothing.
type AttachmentNotFoundError struct {
	Filename string
}

func (e *AttachmentNotFoundError) Error() string {
	return fmt.Sprintf("Attachment '%s' not found", e.Filename)
}

func (e *AttachmentNotFoundError) Unwrap() error { return ErrAttachmentNotFound }

// LabelNotFoundError names the label that did not resolve.
type LabelNotFoundError struct {
	Name string
}

func (e *LabelNotFoundError) Error() string {
	return fmt.Sprintf("Label '%s' not found", e.Name)
}

func (e *LabelNotFoundError) Unwrap() error { return ErrLabelNotFound }

// IsNotFound reports whether err carries a Gmail 404.
func IsNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}

// Reason renders err as a short per-item failure reason: "Not found" for a
// 404, the API message for other Gmail errors, the error text otherwise.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	if IsNotFound(err) {
		return "Not found"
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fmt.Sprintf("HTTP %d", apiErr.Code)
	}
	return err.Error()
}
