package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// step is one recorded call outcome and the expected position afterwards.
type step struct {
	ok       bool
	wantOpen bool
}

func replay(t *testing.T, b *Breaker, steps []step) {
	t.Helper()
	for i, s := range steps {
		if s.ok {
			b.RecordSuccess()
		} else {
			b.RecordFailure()
		}
		assert.Equal(t, s.wantOpen, b.IsOpen(), "after step %d", i)
	}
}

func TestBreakerSequences(t *testing.T) {
	tests := []struct {
		name  string
		opts  []Option
		steps []step
	}{
		{
			name: "opens on the third consecutive failure",
			opts: []Option{WithFailureThreshold(3)},
			steps: []step{
				{ok: false}, {ok: false}, {ok: false, wantOpen: true},
			},
		},
		{
			name: "a success in between resets the failure run",
			opts: []Option{WithFailureThreshold(3)},
			steps: []step{
				{ok: false}, {ok: false}, {ok: true},
				{ok: false}, {ok: false}, {ok: false, wantOpen: true},
			},
		},
		{
			name: "closes after the success threshold",
			opts: []Option{WithFailureThreshold(1), WithSuccessThreshold(2)},
			steps: []step{
				{ok: false, wantOpen: true}, {ok: true, wantOpen: true}, {ok: true},
			},
		},
		{
			name: "a failure while recovering restarts the success run",
			opts: []Option{WithFailureThreshold(1), WithSuccessThreshold(2)},
			steps: []step{
				{ok: false, wantOpen: true}, {ok: true, wantOpen: true},
				{ok: false, wantOpen: true}, {ok: true, wantOpen: true}, {ok: true},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			replay(t, New("mid-gateway", tt.opts...), tt.steps)
		})
	}
}

func TestBreakerReportsTransitions(t *testing.T) {
	b := New("audit-kafka", WithFailureThreshold(1))
	assert.Equal(t, "audit-kafka", b.Name())
	assert.Equal(t, StateClosed, b.State())

	fallback, change := b.RecordFailure()
	assert.True(t, fallback)
	assert.True(t, change.Opened)

	fallback, change = b.RecordFailure()
	assert.True(t, fallback)
	assert.False(t, change.Opened, "already open")

	primary, change := b.RecordSuccess()
	assert.True(t, primary)
	assert.True(t, change.Closed)

	b.RecordFailure()
	b.Reset()
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerProbesOncePerCooldown(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := New("mid-gateway", WithFailureThreshold(1), WithCooldown(time.Minute),
		WithClock(func() time.Time { return now }))

	assert.True(t, b.Allow())
	b.RecordFailure()
	assert.False(t, b.Allow())

	now = now.Add(30 * time.Second)
	assert.False(t, b.Allow(), "still cooling down")

	now = now.Add(31 * time.Second)
	assert.True(t, b.Allow(), "one probe after cooldown")
	assert.False(t, b.Allow(), "no second probe in the same window")
}
