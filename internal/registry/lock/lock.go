// Package lock provides non-blocking try-locks for the submission worker: one
// for the drain cycle and one per submission record.
package lock

import (
	"context"
	"sync"
)

// Locker hands out named try-locks. TryLock never waits: ok is false when the
// key is held elsewhere. The returned release is safe to call more than once.
type Locker interface {
	TryLock(ctx context.Context, key string) (release func(), ok bool, err error)
}

const (
	DrainKey        = "mid:drain"
	submissionKeyNS = "mid:submission:"
)

// SubmissionKey is the record lock key for one submission.
func SubmissionKey(id string) string { return submissionKeyNS + id }

// Local is an in-process Locker. It is enough for a single worker process.
type Local struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocal() *Local {
	return &Local{held: make(map[string]struct{})}
}

func (l *Local) TryLock(_ context.Context, key string) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return func() {}, false, nil
	}
	l.held[key] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, true, nil
}
