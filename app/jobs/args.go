package jobs

import (
	"encoding/json"
	"fmt"
)

// Payload args are positional and may arrive either as native values (the
// in-process transport) or as JSON-decoded ones (float64 numbers, []any
// slices), so the accessors normalize both.

func argString(args []any, i int) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("missing argument %d", i)
	}
	s, ok := args[i].(string)
	if !ok {
		return "", fmt.Errorf("argument %d is %T, expected string", i, args[i])
	}
	return s, nil
}

func argOptionalString(args []any, i int) *string {
	if i >= len(args) || args[i] == nil {
		return nil
	}
	if s, ok := args[i].(string); ok && s != "" {
		return &s
	}
	return nil
}

func argInt64(args []any, i int) (int64, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("missing argument %d", i)
	}
	switch v := args[i].(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case json.Number:
		return v.Int64()
	default:
		return 0, fmt.Errorf("argument %d is %T, expected integer", i, args[i])
	}
}

func argStringSlice(args []any, i int) ([]string, error) {
	if i >= len(args) || args[i] == nil {
		return nil, nil
	}
	switch v := args[i].(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for j, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("argument %d[%d] is %T, expected string", i, j, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("argument %d is %T, expected string list", i, args[i])
	}
}
