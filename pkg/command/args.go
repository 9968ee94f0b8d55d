package command

import (
	"encoding/json"
	"fmt"
)

// ArgError describes a missing or mistyped command argument.
// The dispatcher performs no mutation when it returns one.
type ArgError struct {
	// Command is the command being dispatched.
	Command string

	// Arg is the argument that failed validation.
	Arg string

	// Reason is a short human-readable explanation.
	Reason string
}

// Error implements the error interface.
func (e *ArgError) Error() string {
	return fmt.Sprintf("command %s: argument %q: %s", e.Command, e.Arg, e.Reason)
}

// boolArg extracts a required boolean argument.
func boolArg(cmd string, args map[string]any, key string) (bool, error) {
	v, ok := args[key]
	if !ok {
		return false, &ArgError{Command: cmd, Arg: key, Reason: "missing"}
	}
	b, ok := v.(bool)
	if !ok {
		return false, &ArgError{Command: cmd, Arg: key, Reason: fmt.Sprintf("expected boolean, got %T", v)}
	}
	return b, nil
}

// numberArg extracts a required numeric argument. JSON-decoded argument
// bags carry float64, but int and json.Number are accepted too.
func numberArg(cmd string, args map[string]any, key string) (float64, error) {
	v, ok := args[key]
	if !ok {
		return 0, &ArgError{Command: cmd, Arg: key, Reason: "missing"}
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, &ArgError{Command: cmd, Arg: key, Reason: "not a number: " + n.String()}
		}
		return f, nil
	default:
		return 0, &ArgError{Command: cmd, Arg: key, Reason: fmt.Sprintf("expected number, got %T", v)}
	}
}
