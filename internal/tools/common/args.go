package common

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Arguments returns the request arguments, never nil.
func Arguments(request mcp.CallToolRequest) map[string]interface{} {
	if args := request.GetArguments(); args != nil {
		return args
	}
	return map[string]interface{}{}
}

// StringArg returns a trimmed string argument, or "" when absent or not a string.
func StringArg(args map[string]interface{}, name string) string {
	v, _ := args[name].(string)
	return strings.TrimSpace(v)
}

// RequiredString returns a non-empty string argument.
func RequiredString(args map[string]interface{}, name string) (string, error) {
	v := StringArg(args, name)
	if v == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return v, nil
}

// NumberArg returns a numeric argument. JSON numbers arrive as float64;
// numeric strings are accepted too. ok is false when the argument is absent.
func NumberArg(args map[string]interface{}, name string) (value float64, ok bool, err error) {
	raw, present := args[name]
	if !present || raw == nil {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case float64:
		value = v
	case int:
		value = float64(v)
	case int64:
		value = float64(v)
	case json.Number:
		value, err = v.Float64()
	case string:
		value, err = json.Number(strings.TrimSpace(v)).Float64()
	default:
		return 0, false, fmt.Errorf("%s must be a number", name)
	}
	if err != nil {
		return 0, false, fmt.Errorf("%s must be a number", name)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false, fmt.Errorf("%s must be a finite number", name)
	}
	return value, true, nil
}

// BoolArg returns a boolean argument, or def when absent.
func BoolArg(args map[string]interface{}, name string, def bool) bool {
	if v, ok := args[name].(bool); ok {
		return v
	}
	return def
}

// StringListArg accepts a JSON array of strings or a comma separated string.
func StringListArg(args map[string]interface{}, name string) []string {
	var out []string
	switch v := args[name].(type) {
	case string:
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	}
	return out
}

// JSONResult marshals v as indented JSON text.
func JSONResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
