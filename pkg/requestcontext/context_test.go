package requestcontext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorrelationID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, CorrelationID(ctx))

	id := NewCorrelationID()
	assert.Equal(t, id, CorrelationID(WithCorrelationID(ctx, id)))
	assert.NotEqual(t, id, NewCorrelationID())
}
