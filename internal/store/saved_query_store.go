package store

import (
	"context"
	"sort"
	"sync"

	"nrql-builder-backend/internal/model"
	"nrql-builder-backend/internal/repository"
)

type inMemorySavedQueryStore struct {
	store map[string]model.SavedQuery // map[savedQueryId]SavedQuery
	mu    sync.RWMutex
}

func NewInMemorySavedQueryStore() repository.SavedQueryRepository {
	return &inMemorySavedQueryStore{
		store: make(map[string]model.SavedQuery),
	}
}

func (s *inMemorySavedQueryStore) Save(ctx context.Context, query model.SavedQuery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store[query.ID] = query
	return nil
}

func (s *inMemorySavedQueryStore) Get(ctx context.Context, id string) (*model.SavedQuery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if q, ok := s.store[id]; ok {
		return &q, nil
	}
	return nil, repository.ErrSavedQueryNotFound
}

func (s *inMemorySavedQueryStore) List(ctx context.Context) ([]model.SavedQuery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	queries := make([]model.SavedQuery, 0, len(s.store))
	for _, q := range s.store {
		queries = append(queries, q)
	}
	sort.Slice(queries, func(i, j int) bool {
		if queries[i].CreatedAt.Equal(queries[j].CreatedAt) {
			return queries[i].ID < queries[j].ID
		}
		return queries[i].CreatedAt.Before(queries[j].CreatedAt)
	})
	return queries, nil
}

func (s *inMemorySavedQueryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.store[id]; !ok {
		return repository.ErrSavedQueryNotFound
	}
	delete(s.store, id)
	return nil
}
