// Package attrs reads and formats slog-style key/value attribute slices.
package attrs

import (
	"fmt"
	"strings"
)

// ExtractString extracts a string value from a key-value attribute slice.
// The slice should be formatted as [key1, value1, key2, value2, ...].
// Returns empty string if the key is not found or the value is not a string.
func ExtractString(attrs []any, key string) string {
	for i := 0; i < len(attrs)-1; i += 2 {
		k, ok := attrs[i].(string)
		if !ok {
			continue
		}
		if k == key {
			if v, ok := attrs[i+1].(string); ok {
				return v
			}
			if s, ok := attrs[i+1].(fmt.Stringer); ok {
				return s.String()
			}
		}
	}
	return ""
}

// Format renders the pairs as "k1=v1 k2=v2" in slice order, skipping keys
// listed in omit. A trailing key without a value is dropped.
func Format(attrs []any, omit ...string) string {
	var b strings.Builder
	for i := 0; i < len(attrs)-1; i += 2 {
		k, ok := attrs[i].(string)
		if !ok || contains(omit, k) {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%v", k, attrs[i+1])
	}
	return b.String()
}

func contains(keys []string, k string) bool {
	for _, key := range keys {
		if key == k {
			return true
		}
	}
	return false
}
