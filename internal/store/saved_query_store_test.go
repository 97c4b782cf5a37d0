package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nrql-builder-backend/internal/model"
	"nrql-builder-backend/internal/repository"
)

func TestInMemoryStoreOrdersByCreation(t *testing.T) {
	ctx := context.Background()
	s := NewInMemorySavedQueryStore()
	base := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

	for _, q := range []model.SavedQuery{
		{ID: "c", CreatedAt: base.Add(time.Minute)},
		{ID: "b", CreatedAt: base},
		{ID: "a", CreatedAt: base},
	} {
		require.NoError(t, s.Save(ctx, q))
	}

	all, err := s.List(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(all))
	for _, q := range all {
		ids = append(ids, q.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestInMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewInMemorySavedQueryStore()
	require.NoError(t, s.Save(ctx, model.SavedQuery{ID: "a", Name: "original"}))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	got.Name = "changed"

	again, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "original", again.Name)
}

func TestInMemoryStoreNotFound(t *testing.T) {
	ctx := context.Background()
	s := NewInMemorySavedQueryStore()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrSavedQueryNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "missing"), repository.ErrSavedQueryNotFound)

	require.NoError(t, s.Save(ctx, model.SavedQuery{ID: "a"}))
	require.NoError(t, s.Delete(ctx, "a"))
	_, err = s.Get(ctx, "a")
	assert.ErrorIs(t, err, repository.ErrSavedQueryNotFound)
}
