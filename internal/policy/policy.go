// Package policy is the entry point to the policy lifecycle module.
package policy

import (
	"swiftpolicy/internal/policy/models"
	"swiftpolicy/internal/policy/service"
)

// Service exposes quoting, binding and the administrative lifecycle.
type Service = service.Service

// View is a policy with its derived status resolved.
type View = models.View

// NewService constructs the policy service with required dependencies.
func NewService(
	policies service.Store,
	engine service.PremiumEngine,
	queue service.SubmissionQueue,
	issuer service.CertificateIssuer,
	customers service.CustomerDirectory,
	opts ...service.Option,
) *Service {
	return service.New(policies, engine, queue, issuer, customers, opts...)
}
