// Package store persists customer records.
package store

import (
	"context"
	"fmt"
	"sync"

	"swiftpolicy/internal/customer/models"
	"swiftpolicy/pkg/domain"
	"swiftpolicy/pkg/platform/sentinel"
)

type InMemory struct {
	mu        sync.RWMutex
	customers map[domain.CustomerID]*models.Customer
}

func NewInMemory() *InMemory {
	return &InMemory{customers: make(map[domain.CustomerID]*models.Customer)}
}

// Save creates a customer. Emails are unique.
func (s *InMemory) Save(_ context.Context, c *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[c.ID]; ok {
		return fmt.Errorf("customer %s: %w", c.ID, sentinel.ErrConflict)
	}
	for _, existing := range s.customers {
		if existing.Email == c.Email {
			return fmt.Errorf("customer email %s: %w", c.Email, sentinel.ErrConflict)
		}
	}
	s.customers[c.ID] = c.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.CustomerID) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return c.Clone(), nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.customers {
		if c.Email == models.NormalizeEmail(email) {
			return c.Clone(), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) Exists(_ context.Context, id domain.CustomerID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.customers[id]
	return ok, nil
}

func (s *InMemory) Delete(_ context.Context, id domain.CustomerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.customers, id)
	return nil
}
