package filestate

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"nrql-builder-backend/internal/model"
	"nrql-builder-backend/internal/repository"
)

// fileSavedQueryRepository keeps every saved query in one JSON array. Each
// write rewrites the file through a temporary file and a rename.
type fileSavedQueryRepository struct {
	filePath string
	mu       sync.RWMutex
}

func NewSavedQueryRepository(filePath string) repository.SavedQueryRepository {
	return &fileSavedQueryRepository{
		filePath: filePath,
	}
}

func (r *fileSavedQueryRepository) Save(ctx context.Context, query model.SavedQuery) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	queries, err := r.load()
	if err != nil {
		return err
	}
	replaced := false
	for i := range queries {
		if queries[i].ID == query.ID {
			queries[i] = query
			replaced = true
			break
		}
	}
	if !replaced {
		queries = append(queries, query)
	}
	return r.store(queries)
}

func (r *fileSavedQueryRepository) Get(ctx context.Context, id string) (*model.SavedQuery, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	queries, err := r.load()
	if err != nil {
		return nil, err
	}
	for i := range queries {
		if queries[i].ID == id {
			return &queries[i], nil
		}
	}
	return nil, repository.ErrSavedQueryNotFound
}

func (r *fileSavedQueryRepository) List(ctx context.Context) ([]model.SavedQuery, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	queries, err := r.load()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(queries, func(i, j int) bool {
		return queries[i].CreatedAt.Before(queries[j].CreatedAt)
	})
	return queries, nil
}

func (r *fileSavedQueryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	queries, err := r.load()
	if err != nil {
		return err
	}
	kept := queries[:0]
	for _, q := range queries {
		if q.ID != id {
			kept = append(kept, q)
		}
	}
	if len(kept) == len(queries) {
		return repository.ErrSavedQueryNotFound
	}
	return r.store(kept)
}

func (r *fileSavedQueryRepository) load() ([]model.SavedQuery, error) {
	data, err := os.ReadFile(r.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug().Str("file", r.filePath).Msg("Saved query file not found, starting empty.")
			return []model.SavedQuery{}, nil
		}
		log.Error().Err(err).Str("file", r.filePath).Msg("Failed to read saved query file")
		return nil, err
	}
	if len(data) == 0 {
		log.Warn().Str("file", r.filePath).Msg("Saved query file is empty, starting empty.")
		return []model.SavedQuery{}, nil
	}

	var queries []model.SavedQuery
	if err := json.Unmarshal(data, &queries); err != nil {
		log.Error().Err(err).Str("file", r.filePath).Msg("Failed to unmarshal saved query file")
		return nil, err
	}
	return queries, nil
}

func (r *fileSavedQueryRepository) store(queries []model.SavedQuery) error {
	data, err := json.MarshalIndent(queries, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal saved queries")
		return err
	}

	tempFilePath := r.filePath + ".tmp"
	if err := os.WriteFile(tempFilePath, data, 0644); err != nil {
		log.Error().Err(err).Str("file", tempFilePath).Msg("Failed to write temporary saved query file")
		return err
	}
	if err := os.Rename(tempFilePath, r.filePath); err != nil {
		log.Error().Err(err).Str("from", tempFilePath).Str("to", r.filePath).Msg("Failed to rename saved query file")
		_ = os.Remove(tempFilePath)
		return err
	}
	log.Debug().Str("file", r.filePath).Int("saved_queries", len(queries)).Msg("Saved query file written")
	return nil
}
