package repository

import (
	"context"
	"errors"

	"nrql-builder-backend/internal/model"
)

var (
	ErrSavedQueryNotFound = errors.New("saved query not found")
)

// SavedQueryRepository stores saved queries. List returns them ordered by
// CreatedAt, oldest first. Save replaces a record with the same ID.
type SavedQueryRepository interface {
	Save(ctx context.Context, query model.SavedQuery) error
	Get(ctx context.Context, id string) (*model.SavedQuery, error)
	List(ctx context.Context) ([]model.SavedQuery, error)
	Delete(ctx context.Context, id string) error
}
