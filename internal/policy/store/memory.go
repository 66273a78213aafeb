// Package store persists policies. Every mutation is an atomic
// read-modify-write of a single record.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"swiftpolicy/internal/policy/models"
	"swiftpolicy/pkg/domain"
	"swiftpolicy/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded map store for tests and single-process runs.
type InMemory struct {
	mu       sync.RWMutex
	policies map[domain.PolicyID]*models.Policy
}

func NewInMemory() *InMemory {
	return &InMemory{policies: make(map[domain.PolicyID]*models.Policy)}
}

func (s *InMemory) Create(_ context.Context, p *models.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.policies[p.ID]; ok {
		return fmt.Errorf("policy %s: %w", p.ID, sentinel.ErrConflict)
	}
	s.policies[p.ID] = p.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.PolicyID) (*models.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.policies[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return p.Clone(), nil
}

func (s *InMemory) ListByOwner(_ context.Context, owner domain.CustomerID) ([]*models.Policy, error) {
	return s.list(func(p *models.Policy) bool { return p.OwnerID == owner }), nil
}

func (s *InMemory) List(_ context.Context) ([]*models.Policy, error) {
	return s.list(func(*models.Policy) bool { return true }), nil
}

func (s *InMemory) list(keep func(*models.Policy) bool) []*models.Policy {
	s.mu.RLock()
	out := make([]*models.Policy, 0, len(s.policies))
	for _, p := range s.policies {
		if keep(p) {
			out = append(out, p.Clone())
		}
	}
	s.mu.RUnlock()
	sortPolicies(out)
	return out
}

// Update runs fn on a private copy under the write lock and stores the copy
// only if fn succeeds.
func (s *InMemory) Update(_ context.Context, id domain.PolicyID, fn func(*models.Policy) error) (*models.Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.policies[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	s.policies[id] = next
	return next.Clone(), nil
}

func (s *InMemory) Delete(_ context.Context, id domain.PolicyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.policies[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.policies, id)
	return nil
}

func sortPolicies(ps []*models.Policy) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].CreatedAt.Equal(ps[j].CreatedAt) {
			return ps[i].ID < ps[j].ID
		}
		return ps[i].CreatedAt.Before(ps[j].CreatedAt)
	})
}
