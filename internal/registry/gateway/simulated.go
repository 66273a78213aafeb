package gateway

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"swiftpolicy/pkg/domain"
)

// Simulated stands in for the registry when no endpoint is configured. Every
// submission is accepted after Latency unless its VRM has been marked to fail.
type Simulated struct {
	Latency time.Duration

	mu      sync.Mutex
	failing map[domain.VRM]string
	calls   map[domain.VRM]int
}

func NewSimulated(latency time.Duration) *Simulated {
	return &Simulated{
		Latency: latency,
		failing: make(map[domain.VRM]string),
		calls:   make(map[domain.VRM]int),
	}
}

// FailVRM makes subsequent submissions for vrm fail with diagnostic.
func (g *Simulated) FailVRM(vrm domain.VRM, diagnostic string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failing[vrm] = diagnostic
}

func (g *Simulated) Recover(vrm domain.VRM) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.failing, vrm)
}

// Calls reports how many submissions were made for vrm.
func (g *Simulated) Calls(vrm domain.VRM) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[vrm]
}

func (g *Simulated) Submit(ctx context.Context, vrm domain.VRM) (Result, error) {
	if g.Latency > 0 {
		t := time.NewTimer(g.Latency)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return Result{}, NewError(ErrorTimeout, "registry did not respond in time", ctx.Err())
		case <-t.C:
		}
	}

	g.mu.Lock()
	g.calls[vrm]++
	diag, fail := g.failing[vrm]
	g.mu.Unlock()

	if fail {
		return Result{}, NewError(ErrorOutage, diag, nil)
	}
	return Result{Accepted: true, Confirmation: confirmation(vrm)}, nil
}

// confirmation is stable per VRM plus a unique suffix per call.
func confirmation(vrm domain.VRM) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(vrm))
	return fmt.Sprintf("MIDCONF-%08X-%s", h.Sum32(), strings.ToUpper(uuid.NewString()[:8]))
}
