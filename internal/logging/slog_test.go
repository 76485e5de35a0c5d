package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestWithTool(t *testing.T) {
	var buf bytes.Buffer
	logger := WithTool(slog.New(slog.NewTextHandler(&buf, nil)), "list_emails")
	logger.Info("hello")

	if !strings.Contains(buf.String(), "tool=list_emails") {
		t.Errorf("log line %q does not carry the tool attribute", buf.String())
	}
}

func TestAttrs(t *testing.T) {
	tests := []struct {
		name    string
		attr    slog.Attr
		wantKey string
		wantVal string
	}{
		{"tool", Tool("get_email"), KeyTool, "get_email"},
		{"email id", EmailID("18c2f"), KeyEmailID, "18c2f"},
		{"count", Count(3), KeyCount, "3"},
		{"status", Status(StatusSuccess), KeyStatus, "success"},
		{"error", Err(errors.New("boom")), KeyError, "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attr.Key != tt.wantKey {
				t.Errorf("key = %q, want %q", tt.attr.Key, tt.wantKey)
			}
			if got := tt.attr.Value.String(); got != tt.wantVal {
				t.Errorf("value = %q, want %q", got, tt.wantVal)
			}
		})
	}
}

func TestErr_Nil(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	logger.Info("no error", Err(nil))

	if strings.Contains(buf.String(), KeyError) {
		t.Errorf("nil error should be omitted, got %q", buf.String())
	}
}

func TestAnonymizeEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
	}{
		{"regular", "jane@example.com"},
		{"mixed case", "Jane@Example.com"},
	}

	want := AnonymizeEmail("jane@example.com")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnonymizeEmail(tt.email)
			if got != want {
				t.Errorf("AnonymizeEmail(%q) = %q, want %q", tt.email, got, want)
			}
			if strings.Contains(got, "jane") {
				t.Errorf("hash leaks the local part: %q", got)
			}
			if !strings.HasPrefix(got, "user:") {
				t.Errorf("hash %q is missing the user: prefix", got)
			}
		})
	}

	if AnonymizeEmail("") != "" {
		t.Error("empty email should stay empty")
	}
}

func TestUserHash(t *testing.T) {
	attr := UserHash("jane@example.com")
	if attr.Key != KeyUserHash {
		t.Errorf("key = %q, want %q", attr.Key, KeyUserHash)
	}
	if attr.Value.String() != AnonymizeEmail("jane@example.com") {
		t.Errorf("value = %q", attr.Value.String())
	}
}

func TestSanitizeToken(t *testing.T) {
	if got := SanitizeToken(""); got != "<empty>" {
		t.Errorf("SanitizeToken(\"\") = %q", got)
	}
	got := SanitizeToken("ya29.secret")
	if strings.Contains(got, "ya29") {
		t.Errorf("SanitizeToken leaked token content: %q", got)
	}
	if got != "[token:11 chars]" {
		t.Errorf("SanitizeToken = %q, want [token:11 chars]", got)
	}
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"jane@example.com", "example.com"},
		{"a@b@gmail.com", "gmail.com"},
		{"invalid", ""},
		{"@nolocal.com", ""},
		{"trailing@", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := ExtractDomain(tt.email); got != tt.want {
				t.Errorf("ExtractDomain(%q) = %q, want %q", tt.email, got, tt.want)
			}
		})
	}
}

func TestDomain(t *testing.T) {
	attr := Domain("jane@example.com")
	if attr.Key != "user_domain" || attr.Value.String() != "example.com" {
		t.Errorf("Domain attr = %v", attr)
	}
}
