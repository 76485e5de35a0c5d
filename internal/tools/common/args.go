package common

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidArgument is the sentinel behind every ArgumentError.
var ErrInvalidArgument = errors.New("invalid argument")

// ArgumentError is a caller mistake in tool arguments. Its text is shown
// to the caller as is.
type ArgumentError struct {
	msg string
}

// ArgError formats an ArgumentError.
func ArgError(format string, args ...any) error {
	return &ArgumentError{msg: fmt.Sprintf(format, args...)}
}

func (e *ArgumentError) Error() string { return e.msg }

func (e *ArgumentError) Unwrap() error { return ErrInvalidArgument }

// RequiredString returns a non-blank string argument.
func RequiredString(args map[string]any, name string) (string, error) {
	v, err := OptionalString(args, name, "")
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", ArgError("%s is required", name)
	}
	return v, nil
}

// OptionalString returns the trimmed string argument, or def when it is
// absent or blank.
func OptionalString(args map[string]any, name, def string) (string, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return def, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", ArgError("%s must be a string", name)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	return s, nil
}

// OptionalBool accepts a boolean or the strings "true"/"false".
func OptionalBool(args map[string]any, name string, def bool) (bool, error) {
	switch v := args[name].(type) {
	case nil:
		return def, nil
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, ArgError("%s must be a boolean", name)
		}
		return b, nil
	default:
		return false, ArgError("%s must be a boolean", name)
	}
}

// OptionalInt accepts a JSON number or a numeric string. Fractions are
// rejected.
func OptionalInt(args map[string]any, name string, def int) (int, error) {
	switch v := args[name].(type) {
	case nil:
		return def, nil
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, ArgError("%s must be an integer", name)
		}
		return int(v), nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, ArgError("%s must be an integer", name)
		}
		return n, nil
	default:
		return 0, ArgError("%s must be an integer", name)
	}
}

// OneOf checks that value is one of allowed.
func OneOf(name, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return ArgError("%s must be one of: %s", name, strings.Join(allowed, ", "))
}
