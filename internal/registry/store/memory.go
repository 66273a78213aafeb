// Package store persists MID queue submissions.
package store

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"swiftpolicy/internal/registry/models"
	"swiftpolicy/pkg/domain"
	"swiftpolicy/pkg/platform/sentinel"
)

// InMemory keeps submissions in a map keyed by id with a policy index.
type InMemory struct {
	mu       sync.RWMutex
	byID     map[domain.SubmissionID]*models.Submission
	byPolicy map[domain.PolicyID]domain.SubmissionID
	seq      int64
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:     make(map[domain.SubmissionID]*models.Submission),
		byPolicy: make(map[domain.PolicyID]domain.SubmissionID),
	}
}

// Create stores a new submission and assigns its enqueue sequence. A second
// submission for the same policy is a conflict.
func (s *InMemory) Create(_ context.Context, sub *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byPolicy[sub.PolicyID]; ok {
		return fmt.Errorf("submission for policy %s: %w", sub.PolicyID, sentinel.ErrConflict)
	}
	if _, ok := s.byID[sub.ID]; ok {
		return fmt.Errorf("submission %s: %w", sub.ID, sentinel.ErrConflict)
	}
	s.seq++
	sub.Sequence = s.seq
	s.byID[sub.ID] = sub.Clone()
	s.byPolicy[sub.PolicyID] = sub.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.SubmissionID) (*models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return sub.Clone(), nil
}

func (s *InMemory) FindByPolicy(_ context.Context, policyID domain.PolicyID) (*models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byPolicy[policyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.byID[id].Clone(), nil
}

func (s *InMemory) ListByPolicy(_ context.Context, policyID domain.PolicyID) ([]*models.Submission, error) {
	return s.list(func(sub *models.Submission) bool { return sub.PolicyID == policyID }), nil
}

// ListByStatus returns matching submissions in enqueue order.
func (s *InMemory) ListByStatus(_ context.Context, statuses ...domain.MIDStatus) ([]*models.Submission, error) {
	return s.list(func(sub *models.Submission) bool { return slices.Contains(statuses, sub.Status) }), nil
}

func (s *InMemory) ListByVRM(_ context.Context, vrm domain.VRM) ([]*models.Submission, error) {
	return s.list(func(sub *models.Submission) bool { return sub.VRM == vrm }), nil
}

func (s *InMemory) list(keep func(*models.Submission) bool) []*models.Submission {
	s.mu.RLock()
	out := make([]*models.Submission, 0)
	for _, sub := range s.byID {
		if keep(sub) {
			out = append(out, sub.Clone())
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out
}

// Update applies fn to a copy under the write lock and keeps it only on success.
func (s *InMemory) Update(_ context.Context, id domain.SubmissionID, fn func(*models.Submission) error) (*models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	s.byID[id] = next
	return next.Clone(), nil
}

// DeleteByPolicy removes a policy's submissions and reports how many went.
func (s *InMemory) DeleteByPolicy(_ context.Context, policyID domain.PolicyID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sub := range s.byID {
		if sub.PolicyID == policyID {
			delete(s.byID, id)
			n++
		}
	}
	delete(s.byPolicy, policyID)
	return n, nil
}

// CountByStatus reports queue depth per status.
func (s *InMemory) CountByStatus(_ context.Context) (map[domain.MIDStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[domain.MIDStatus]int)
	for _, sub := range s.byID {
		out[sub.Status]++
	}
	return out, nil
}
