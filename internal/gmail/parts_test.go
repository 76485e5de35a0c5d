package gmail

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmail "google.golang.org/api/gmail/v1"
)

func b64(s string) string { return base64.URLEncoding.EncodeToString([]byte(s)) }

func TestWalkParts(t *testing.T) {
	tests := []struct {
		name string
		part *gmail.MessagePart
		want []string
	}{
		{
			name: "single part",
			part: &gmail.MessagePart{PartId: "0", MimeType: "text/plain"},
			want: []string{"0"},
		},
		{
			name: "deeply nested parts",
			part: &gmail.MessagePart{
				PartId:   "",
				MimeType: "multipart/mixed",
				Parts: []*gmail.MessagePart{
					{
						PartId:   "0",
						MimeType: "multipart/alternative",
						Parts: []*gmail.MessagePart{
							{PartId: "0.0", MimeType: "text/plain"},
							{PartId: "0.1", MimeType: "text/html"},
						},
					},
					{PartId: "1", MimeType: "application/pdf"},
				},
			},
			want: []string{"", "0", "0.0", "0.1", "1"},
		},
		{
			name: "nil part",
			part: nil,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			WalkParts(tt.part, func(p *gmail.MessagePart) { got = append(got, p.PartId) })
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractContent(t *testing.T) {
	payload := &gmail.MessagePart{
		MimeType: "multipart/mixed",
		Parts: []*gmail.MessagePart{
			{
				MimeType: "multipart/alternative",
				Parts: []*gmail.MessagePart{
					{MimeType: "text/plain; charset=UTF-8", Body: &gmail.MessagePartBody{Data: b64("plain body")}},
					{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: b64("<p>html body</p>")}},
				},
			},
			{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: b64("second plain")}},
			{
				PartId:   "2",
				MimeType: "text/plain",
				Filename: "notes.txt",
				Body:     &gmail.MessagePartBody{AttachmentId: "att-1", Size: 42},
			},
			{
				PartId:   "3",
				MimeType: "image/png",
				Filename: "logo.png",
				Body:     &gmail.MessagePartBody{Data: b64("png"), Size: 3},
			},
		},
	}

	c := ExtractContent("msg-1", payload)
	assert.True(t, c.HasText)
	assert.Equal(t, "plain body", c.TextBody)
	assert.True(t, c.HasHTML)
	assert.Equal(t, "<p>html body</p>", c.HTMLBody)

	require.Len(t, c.Attachments, 2)
	assert.Equal(t, &AttachmentInfo{
		MessageID: "msg-1", PartID: "2", AttachmentID: "att-1",
		Filename: "notes.txt", MimeType: "text/plain", Size: 42,
	}, c.Attachments[0])
	assert.Equal(t, "logo.png", c.Attachments[1].Filename)
	assert.Empty(t, c.Attachments[1].AttachmentID)
}

func TestExtractContent_SinglePartHTML(t *testing.T) {
	c := ExtractContent("m", &gmail.MessagePart{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: b64("<b>hi</b>")}})
	assert.False(t, c.HasText)
	assert.True(t, c.HasHTML)
	assert.Equal(t, "<b>hi</b>", c.HTMLBody)
	assert.Empty(t, c.Attachments)
}

func TestDecodeData(t *testing.T) {
	raw := "hello?>>world"
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"url padded", base64.URLEncoding.EncodeToString([]byte(raw)), raw, false},
		{"url unpadded", base64.RawURLEncoding.EncodeToString([]byte(raw)), raw, false},
		{"standard", base64.StdEncoding.EncodeToString([]byte(raw)), raw, false},
		{"garbage", "!!!", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeData(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestHeaderValue(t *testing.T) {
	headers := []*gmail.MessagePartHeader{{Name: "From", Value: "a@example.com"}, {Name: "subject", Value: "Hi"}}
	assert.Equal(t, "a@example.com", headerValue(headers, "from"))
	assert.Equal(t, "Hi", headerValue(headers, "Subject"))
	assert.Empty(t, headerValue(headers, "Date"))
}
