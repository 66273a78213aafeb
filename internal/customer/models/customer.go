package models

import (
	"net/mail"
	"strings"
	"time"

	"swiftpolicy/pkg/domain"
	dErrors "swiftpolicy/pkg/domain-errors"
)

// Customer is the policyholder record this core reads. Identity, sign-in and
// credentials live with the identity collaborator.
type Customer struct {
	ID        domain.CustomerID `json:"id"`
	FirstName string            `json:"first_name"`
	LastName  string            `json:"last_name"`
	Email     string            `json:"email"`
	Phone     *string           `json:"phone,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

func NewCustomer(id domain.CustomerID, firstName, lastName, email string, now time.Time) (*Customer, error) {
	if _, err := domain.ParseCustomerID(string(id)); err != nil {
		return nil, err
	}
	email = NormalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, dErrors.Newf(dErrors.CodeValidation, "invalid email address %q", email)
	}
	if strings.TrimSpace(lastName) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "surname is required")
	}
	return &Customer{
		ID:        id,
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		Email:     email,
		CreatedAt: now,
	}, nil
}

func (c *Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

func (c *Customer) Clone() *Customer {
	if c == nil {
		return nil
	}
	out := *c
	if c.Phone != nil {
		p := *c.Phone
		out.Phone = &p
	}
	return &out
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
