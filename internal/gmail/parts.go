package gmail

import (
	"encoding/base64"
	"fmt"
	"strings"

	gmail "google.golang.org/api/gmail/v1"
)

// WalkParts visits part and then each descendant depth-first in order.
func WalkParts(part *gmail.MessagePart, visit func(*gmail.MessagePart)) {
	if part == nil {
		return
	}
	visit(part)
	for _, child := range part.Parts {
		WalkParts(child, visit)
	}
}

// ExtractContent collects the first text/plain body, the first text/html
// body and every part with a filename. Parts with a filename are never
// treated as bodies.
func ExtractContent(messageID string, payload *gmail.MessagePart) Content {
	var c Content
	WalkParts(payload, func(part *gmail.MessagePart) {
		if part.Filename != "" {
			c.Attachments = append(c.Attachments, attachmentInfo(messageID, part))
			return
		}
		if part.Body == nil || part.Body.Data == "" {
			return
		}
		switch mimeType(part.MimeType) {
		case "text/plain":
			if !c.HasText {
				if data, err := DecodeData(part.Body.Data); err == nil {
					c.TextBody, c.HasText = string(data), true
				}
			}
		case "text/html":
			if !c.HasHTML {
				if data, err := DecodeData(part.Body.Data); err == nil {
					c.HTMLBody, c.HasHTML = string(data), true
				}
			}
		}
	})
	return c
}

func attachmentInfo(messageID string, part *gmail.MessagePart) *AttachmentInfo {
	info := &AttachmentInfo{
		MessageID: messageID,
		PartID:    part.PartId,
		Filename:  part.Filename,
		MimeType:  part.MimeType,
	}
	if part.Body != nil {
		info.AttachmentID = part.Body.AttachmentId
		info.Size = part.Body.Size
		if part.Body.AttachmentId == "" {
			info.inline = part.Body.Data
		}
	}
	return info
}

// mimeType drops parameters and normalizes case.
func mimeType(v string) string {
	if i := strings.IndexByte(v, ';'); i >= 0 {
		v = v[:i]
	}
	return strings.ToLower(strings.TrimSpace(v))
}

// DecodeData decodes a Gmail body. Gmail uses base64url; padded, unpadded
// and standard alphabets are accepted.
func DecodeData(s string) ([]byte, error) {
	if data, err := base64.URLEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	if data, err := base64.RawURLEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("failed to decode body data: %w", err)
	}
	return data, nil
}

// headerValue returns the first header named name, case-insensitively.
func headerValue(headers []*gmail.MessagePartHeader, name string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}
