// Package strings provides string slice helpers shared by request parsing.
package strings

import (
	"strings"
)

// DedupeAndTrim removes duplicates and empty strings from a slice,
// trimming whitespace from each element. Order is preserved.
func DedupeAndTrim(values []string) []string {
	return dedupe(values, strings.TrimSpace)
}

// DedupeKeys normalizes values into snake_case keys and removes duplicates.
// "Courtesy Car", "courtesy-car" and "courtesy_car" all collapse to "courtesy_car".
func DedupeKeys(values []string) []string {
	return dedupe(values, Key)
}

// Key folds a free-form label into a lower snake_case key.
func Key(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	return strings.Join(strings.FieldsFunc(v, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '\t'
	}), "_")
}

func dedupe(values []string, norm func(string) string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		n := norm(v)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			result = append(result, n)
		}
	}

	return result
}
