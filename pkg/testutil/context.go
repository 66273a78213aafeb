package testutil

import (
	"context"

	"swiftpolicy/pkg/domain"
	"swiftpolicy/pkg/requestcontext"
)

// Admin is an administrator actor for service tests.
func Admin() domain.Actor {
	return domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}
}

// Customer is a customer actor acting for themselves.
func Customer(id domain.CustomerID) domain.Actor {
	return domain.Actor{ID: id.String(), Role: domain.RoleCustomer}
}

// Correlated returns a context carrying a fixed correlation id, so assertions
// on audit details can match it.
func Correlated(id string) context.Context {
	return requestcontext.WithCorrelationID(context.Background(), id)
}
