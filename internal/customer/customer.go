// Package customer answers who may own a policy.
package customer

import (
	"context"
	"errors"

	"swiftpolicy/internal/customer/models"
	"swiftpolicy/pkg/domain"
	dErrors "swiftpolicy/pkg/domain-errors"
	"swiftpolicy/pkg/platform/sentinel"
)

type Store interface {
	Save(ctx context.Context, c *models.Customer) error
	FindByID(ctx context.Context, id domain.CustomerID) (*models.Customer, error)
	FindByEmail(ctx context.Context, email string) (*models.Customer, error)
	Exists(ctx context.Context, id domain.CustomerID) (bool, error)
}

// Directory is the read side used by policy binding, plus the registration
// used when the identity collaborator provisions a customer.
type Directory struct {
	store Store
	now   domain.Clock
}

func NewDirectory(store Store, clock domain.Clock) *Directory {
	if clock == nil {
		clock = domain.SystemClock
	}
	return &Directory{store: store, now: clock}
}

func (d *Directory) Exists(ctx context.Context, id domain.CustomerID) (bool, error) {
	return d.store.Exists(ctx, id)
}

func (d *Directory) Get(ctx context.Context, id domain.CustomerID) (*models.Customer, error) {
	c, err := d.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "customer not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load customer")
	}
	return c, nil
}

// Register records a customer. A duplicate id or email is a conflict.
func (d *Directory) Register(ctx context.Context, id domain.CustomerID, firstName, lastName, email string) (*models.Customer, error) {
	c, err := models.NewCustomer(id, firstName, lastName, email, d.now())
	if err != nil {
		return nil, err
	}
	if err := d.store.Save(ctx, c); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "customer already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save customer")
	}
	return c, nil
}

// Lookup finds a customer by email, case-insensitively.
func (d *Directory) Lookup(ctx context.Context, email string) (*models.Customer, error) {
	c, err := d.store.FindByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "customer not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up customer")
	}
	return c, nil
}
