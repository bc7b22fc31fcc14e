package utils

import (
	"strings"
)

// ParseFlexibleBool accepts what HTML forms and JSON clients send for a checkbox:
// bools, numbers, "true"/"1"/"yes", and single-element lists of those.
// Anything unrecognised is false.
func ParseFlexibleBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case float64:
		return b != 0
	case int:
		return b != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "1", "yes", "on":
			return true
		}
		return false
	case []any:
		if len(b) > 0 {
			return ParseFlexibleBool(b[0])
		}
	case []string:
		if len(b) > 0 {
			return ParseFlexibleBool(b[0])
		}
	}
	return false
}

// SplitNames turns "peanut, milk,,egg" into ["peanut" "milk" "egg"].
func SplitNames(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
