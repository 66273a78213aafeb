// Package store holds rendered certificates.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"swiftpolicy/internal/document/models"
	"swiftpolicy/pkg/domain"
	"swiftpolicy/pkg/platform/sentinel"
)

type InMemory struct {
	mu   sync.RWMutex
	docs map[domain.DocumentID]*models.Document
}

func NewInMemory() *InMemory {
	return &InMemory{docs: make(map[domain.DocumentID]*models.Document)}
}

func (s *InMemory) Put(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[doc.ID]; ok {
		return fmt.Errorf("document %s: %w", doc.ID, sentinel.ErrConflict)
	}
	s.docs[doc.ID] = doc.Clone()
	return nil
}

func (s *InMemory) Get(_ context.Context, id domain.DocumentID) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return doc.Clone(), nil
}

// ListByPolicy returns every certificate issued for a policy, oldest first.
func (s *InMemory) ListByPolicy(_ context.Context, policyID domain.PolicyID) ([]*models.Document, error) {
	s.mu.RLock()
	var out []*models.Document
	for _, doc := range s.docs {
		if doc.PolicyID == policyID {
			out = append(out, doc.Clone())
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) Delete(_ context.Context, id domain.DocumentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.docs, id)
	return nil
}
