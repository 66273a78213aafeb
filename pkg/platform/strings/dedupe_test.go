package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{name: "nil slice", input: nil, expected: nil},
		{name: "empty slice", input: []string{}, expected: []string{}},
		{name: "trims whitespace", input: []string{"  foo  ", "bar  "}, expected: []string{"foo", "bar"}},
		{name: "removes duplicates preserving order", input: []string{"foo", "bar", "foo"}, expected: []string{"foo", "bar"}},
		{name: "drops blanks", input: []string{"", "  ", "x"}, expected: []string{"x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}

func TestDedupeKeys(t *testing.T) {
	got := DedupeKeys([]string{"Courtesy Car", "courtesy-car", " legal ", "Protected  NCB", "LEGAL"})
	assert.Equal(t, []string{"courtesy_car", "legal", "protected_ncb"}, got)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "windscreen", Key(" Windscreen "))
	assert.Equal(t, "a_b_c", Key("a - b_c"))
	assert.Equal(t, "", Key("  "))
}
