package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swiftpolicy/internal/document/models"
	"swiftpolicy/pkg/domain"
	"swiftpolicy/pkg/platform/sentinel"
)

func doc(id domain.DocumentID, policyID domain.PolicyID, at time.Time) *models.Document {
	return &models.Document{
		ID:          id,
		PolicyID:    policyID,
		StorageKey:  models.StorageKey(policyID, id),
		ContentType: models.ContentTypeText,
		Content:     []byte("certificate " + id),
		CreatedAt:   at,
	}
}

func TestInMemory(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	t0 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	policyID := domain.PolicyID("SP-CAR-12M-3FA9C01B")

	require.NoError(t, s.Put(ctx, doc("CERT-00000002", policyID, t0.Add(time.Hour))))
	require.NoError(t, s.Put(ctx, doc("CERT-00000001", policyID, t0)))
	require.NoError(t, s.Put(ctx, doc("CERT-00000003", "SP-VAN-1M-00000000", t0)))

	t.Run("duplicate id conflicts", func(t *testing.T) {
		err := s.Put(ctx, doc("CERT-00000001", policyID, t0))
		assert.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("get returns a copy", func(t *testing.T) {
		got, err := s.Get(ctx, "CERT-00000001")
		require.NoError(t, err)
		got.Content[0] = 'X'
		again, err := s.Get(ctx, "CERT-00000001")
		require.NoError(t, err)
		assert.Equal(t, "certificate CERT-00000001", string(again.Content))
	})

	t.Run("lists a policy's certificates oldest first", func(t *testing.T) {
		docs, err := s.ListByPolicy(ctx, policyID)
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, domain.DocumentID("CERT-00000001"), docs[0].ID)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, "CERT-00000003"))
		_, err := s.Get(ctx, "CERT-00000003")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, "CERT-00000003"), sentinel.ErrNotFound)
	})
}
