package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/teemow/gmail-mcp/internal/tools/common"
)

// Result status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result represents the result of a single operation in a batch
type Result struct {
	ID     string `json:"id"`
	Status string `json:"status"` // "success" or "error"
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Summary aggregates the results of a batch operation.
type Summary struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Results    []Result `json:"results"`
}

// ParseStringOrArray reads a parameter that may be an array of strings, a
// JSON-encoded array in a string, or a single string.
func ParseStringOrArray(param interface{}, paramName string) ([]string, error) {
	var result []string

	switch v := param.(type) {
	case nil:
		return nil, common.ArgError("%s is required", paramName)
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return nil, common.ArgError("%s is required", paramName)
		}
		// A string that is not a valid JSON array is a single id.
		var items []interface{}
		if strings.HasPrefix(v, "[") && json.Unmarshal([]byte(v), &items) == nil {
			return ParseStringOrArray(items, paramName)
		}
		result = []string{v}
	case []string:
		items := make([]interface{}, len(v))
		for i, s := range v {
			items[i] = s
		}
		return ParseStringOrArray(items, paramName)
	case []interface{}:
		if len(v) == 0 {
			return nil, common.ArgError("%s is required", paramName)
		}
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, common.ArgError("%s[%d] must be a string", paramName, i)
			}
			if str == "" {
				return nil, common.ArgError("%s[%d] cannot be empty", paramName, i)
			}
			result = append(result, str)
		}
	default:
		return nil, common.ArgError("%s must be a string or array of strings", paramName)
	}

	return result, nil
}

// ProcessBatch executes fn on each id in order and collects the results.
// reason renders a failure; nil uses the error text. Once ctx is done the
// remaining ids fail with the context error without calling fn.
func ProcessBatch(ctx context.Context, ids []string, fn func(ctx context.Context, id string) (string, error), reason func(error) string) []Result {
	if reason == nil {
		reason = func(err error) string { return err.Error() }
	}
	results := make([]Result, 0, len(ids))

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			results = append(results, NewErrorResult(id, reason(err)))
			continue
		}
		res, err := fn(ctx, id)
		if err != nil {
			results = append(results, NewErrorResult(id, reason(err)))
			continue
		}
		results = append(results, NewSuccessResult(id, res))
	}

	return results
}

// Summarize counts successes and failures.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results), Results: results}
	for _, r := range results {
		if r.Status == StatusSuccess {
			s.Successful++
		} else {
			s.Failed++
		}
	}
	return s
}

// Failures returns the failed results in input order.
func (s Summary) Failures() []Result {
	var out []Result
	for _, r := range s.Results {
		if r.Status != StatusSuccess {
			out = append(out, r)
		}
	}
	return out
}

// Format renders the summary as text. head is the success line and is
// printed only when something succeeded; verb names the operation in the
// failure block ("Failed to <verb> N email(s):").
func (s Summary) Format(head, verb string) string {
	var lines []string
	if s.Successful > 0 || s.Failed == 0 {
		lines = append(lines, head)
	}
	if s.Failed > 0 {
		lines = append(lines, fmt.Sprintf("Failed to %s %d email(s):", verb, s.Failed))
		for _, r := range s.Failures() {
			lines = append(lines, fmt.Sprintf("  - %s: %s", r.ID, r.Error))
		}
	}
	return strings.Join(lines, "\n")
}

// NewSuccessResult creates a success result
func NewSuccessResult(id, message string) Result {
	return Result{
		ID:     id,
		Status: StatusSuccess,
		Result: message,
	}
}

// NewErrorResult creates an error result
func NewErrorResult(id, reason string) Result {
	return Result{
		ID:     id,
		Status: StatusError,
		Error:  reason,
	}
}
