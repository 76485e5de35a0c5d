package batch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/gmail-mcp/internal/tools/common"
)

func TestParseStringOrArray(t *testing.T) {
	tests := []struct {
		name    string
		input   interface{}
		want    []string
		wantErr string
	}{
		{name: "single string", input: "test123", want: []string{"test123"}},
		{name: "array of strings", input: []interface{}{"id1", "id2", "id3"}, want: []string{"id1", "id2", "id3"}},
		{name: "typed string slice", input: []string{"a", "b"}, want: []string{"a", "b"}},
		{name: "JSON string array", input: `["id1", "id2", "id3"]`, want: []string{"id1", "id2", "id3"}},
		{name: "JSON string single element array", input: `["single"]`, want: []string{"single"}},
		{name: "invalid JSON string", input: `[invalid json`, want: []string{`[invalid json`}},
		{name: "string starting with bracket", input: `[test] id`, want: []string{`[test] id`}},
		{name: "nil input", input: nil, wantErr: "email_ids is required"},
		{name: "empty string", input: "", wantErr: "email_ids is required"},
		{name: "empty array", input: []interface{}{}, wantErr: "email_ids is required"},
		{name: "JSON string empty array", input: `[]`, wantErr: "email_ids is required"},
		{name: "array with non-string", input: []interface{}{"id1", 123.0}, wantErr: "email_ids[1] must be a string"},
		{name: "array with empty string", input: []interface{}{"id1", ""}, wantErr: "email_ids[1] cannot be empty"},
		{name: "invalid type", input: 123.0, wantErr: "email_ids must be a string or array of strings"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStringOrArray(tt.input, "email_ids")
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.EqualError(t, err, tt.wantErr)
				assert.ErrorIs(t, err, common.ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProcessBatch(t *testing.T) {
	fn := func(_ context.Context, id string) (string, error) {
		if id == "id2" {
			return "", errors.New("failed to process id2")
		}
		return "processed " + id, nil
	}

	results := ProcessBatch(context.Background(), []string{"id1", "id2", "id3"}, fn, nil)

	assert.Equal(t, []Result{
		{ID: "id1", Status: StatusSuccess, Result: "processed id1"},
		{ID: "id2", Status: StatusError, Error: "failed to process id2"},
		{ID: "id3", Status: StatusSuccess, Result: "processed id3"},
	}, results)
}

func TestProcessBatch_Reason(t *testing.T) {
	results := ProcessBatch(context.Background(), []string{"x"},
		func(context.Context, string) (string, error) { return "", errors.New("raw") },
		func(error) string { return "Not found" })

	require.Len(t, results, 1)
	assert.Equal(t, "Not found", results[0].Error)
}

func TestProcessBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls []string

	results := ProcessBatch(ctx, []string{"a", "b", "c"}, func(_ context.Context, id string) (string, error) {
		calls = append(calls, id)
		cancel()
		return "", nil
	}, nil)

	assert.Equal(t, []string{"a"}, calls)
	require.Len(t, results, 3)
	assert.Equal(t, StatusSuccess, results[0].Status)
	for _, r := range results[1:] {
		assert.Equal(t, StatusError, r.Status)
		assert.Equal(t, context.Canceled.Error(), r.Error)
	}
}

func TestSummary_Format(t *testing.T) {
	tests := []struct {
		name    string
		results []Result
		want    string
	}{
		{
			name: "all succeeded",
			results: []Result{
				NewSuccessResult("a", ""),
				NewSuccessResult("b", ""),
			},
			want: "Archived 2 email(s).",
		},
		{
			name: "partial failure",
			results: []Result{
				NewSuccessResult("a", ""),
				NewErrorResult("b", "Not found"),
				NewSuccessResult("c", ""),
			},
			want: "Archived 2 email(s).\nFailed to archive 1 email(s):\n  - b: Not found",
		},
		{
			name: "all failed",
			results: []Result{
				NewErrorResult("a", "Not found"),
				NewErrorResult("b", "Rate limit exceeded"),
			},
			want: "Failed to archive 2 email(s):\n  - a: Not found\n  - b: Rate limit exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Summarize(tt.results)
			assert.Equal(t, len(tt.results), s.Total)
			assert.Equal(t, tt.want, s.Format(fmt.Sprintf("Archived %d email(s).", s.Successful), "archive"))
		})
	}
}
