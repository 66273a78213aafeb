package attrs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type vrm string

func (v vrm) String() string { return string(v) }

func TestExtractString(t *testing.T) {
	in := []any{"policy_id", "SP-CAR-12M-00000001", "count", 3, "vrm", vrm("AB12CDE")}

	assert.Equal(t, "SP-CAR-12M-00000001", ExtractString(in, "policy_id"))
	assert.Equal(t, "AB12CDE", ExtractString(in, "vrm"))
	assert.Empty(t, ExtractString(in, "count"))
	assert.Empty(t, ExtractString(in, "missing"))
	assert.Empty(t, ExtractString([]any{"dangling"}, "dangling"))
}

func TestFormat(t *testing.T) {
	in := []any{"policy_id", "SP-VAN-1M-0000000A", "from", "Active", "to", "Frozen", "dangling"}

	assert.Equal(t, "policy_id=SP-VAN-1M-0000000A from=Active to=Frozen", Format(in))
	assert.Equal(t, "from=Active to=Frozen", Format(in, "policy_id"))
	assert.Empty(t, Format(nil))
}
