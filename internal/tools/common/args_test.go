package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequiredString(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]any
		want    string
		wantErr string
	}{
		{name: "present", args: map[string]any{"email_id": "abc"}, want: "abc"},
		{name: "trimmed", args: map[string]any{"email_id": "  abc "}, want: "abc"},
		{name: "missing", args: map[string]any{}, wantErr: "email_id is required"},
		{name: "blank", args: map[string]any{"email_id": "  "}, wantErr: "email_id is required"},
		{name: "wrong type", args: map[string]any{"email_id": 12.0}, wantErr: "email_id must be a string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RequiredString(tt.args, "email_id")
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				assert.ErrorIs(t, err, ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOptionalInt(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    int
		wantErr bool
	}{
		{name: "absent", value: nil, want: 10},
		{name: "json number", value: 25.0, want: 25},
		{name: "numeric string", value: "7", want: 7},
		{name: "fraction", value: 2.5, wantErr: true},
		{name: "garbage", value: "many", wantErr: true},
		{name: "bool", value: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := map[string]any{}
			if tt.value != nil {
				args["max_results"] = tt.value
			}
			got, err := OptionalInt(args, "max_results", 10)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOptionalBool(t *testing.T) {
	got, err := OptionalBool(map[string]any{}, "unread_only", false)
	require.NoError(t, err)
	assert.False(t, got)

	got, err = OptionalBool(map[string]any{"unread_only": true}, "unread_only", false)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = OptionalBool(map[string]any{"unread_only": "true"}, "unread_only", false)
	require.NoError(t, err)
	assert.True(t, got)

	_, err = OptionalBool(map[string]any{"unread_only": 1.0}, "unread_only", false)
	assert.EqualError(t, err, "unread_only must be a boolean")
}

func TestOptionalString(t *testing.T) {
	got, err := OptionalString(map[string]any{"format": ""}, "format", "full")
	require.NoError(t, err)
	assert.Equal(t, "full", got)

	got, err = OptionalString(map[string]any{"format": "text_only"}, "format", "full")
	require.NoError(t, err)
	assert.Equal(t, "text_only", got)
}

func TestOneOf(t *testing.T) {
	assert.NoError(t, OneOf("format", "full", "full", "text_only", "html_only"))
	assert.EqualError(t, OneOf("format", "raw", "full", "text_only", "html_only"),
		"format must be one of: full, text_only, html_only")
}
