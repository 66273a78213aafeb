// Package gateway talks to the national insurance registry (MID).
package gateway

import (
	"context"

	"swiftpolicy/pkg/domain"
)

// Result is the registry's answer to one submission. A rejected submission
// comes back with Accepted false and a Diagnostic, not an error.
type Result struct {
	Accepted     bool
	Confirmation string
	Diagnostic   string
}

// Gateway submits a vehicle's insured status to the registry. Implementations
// must honour ctx cancellation.
type Gateway interface {
	Submit(ctx context.Context, vrm domain.VRM) (Result, error)
}
