package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"nrql-builder-backend/internal/model"
	"nrql-builder-backend/internal/repository"
)

const (
	colID        = "id"
	colName      = "name"
	colNrqlQuery = "nrql_query"
	colState     = "state" // JSONB
	colCreatedAt = "created_at"
)

type postgresSavedQueryRepository struct {
	pool      *pgxpool.Pool
	tableName string
}

// NewSavedQueryRepository creates the table when missing and returns a
// repository backed by it.
func NewSavedQueryRepository(ctx context.Context, pool *pgxpool.Pool, table string) (repository.SavedQueryRepository, error) {
	if pool == nil {
		return nil, errors.New("Postgres connection pool is required for SavedQueryRepository")
	}
	r := &postgresSavedQueryRepository{
		pool:      pool,
		tableName: pgx.Identifier{table}.Sanitize(),
	}
	if err := r.ensureTable(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *postgresSavedQueryRepository) ensureTable(ctx context.Context) error {
	createTableSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			%s TEXT PRIMARY KEY,
			%s TEXT NOT NULL,
			%s TEXT NOT NULL,
			%s JSONB NOT NULL,
			%s TIMESTAMPTZ NOT NULL
		);`,
		r.tableName, colID, colName, colNrqlQuery, colState, colCreatedAt)
	if _, err := r.pool.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create table %s: %w", r.tableName, err)
	}
	log.Info().Str("table", r.tableName).Msg("Ensured saved query table exists.")
	return nil
}

func (r *postgresSavedQueryRepository) Save(ctx context.Context, query model.SavedQuery) error {
	stateJSON, err := json.Marshal(query.State)
	if err != nil {
		return fmt.Errorf("failed to marshal query state: %w", err)
	}
	upsertSQL := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (%s) DO UPDATE SET %s = EXCLUDED.%s, %s = EXCLUDED.%s, %s = EXCLUDED.%s`,
		r.tableName, colID, colName, colNrqlQuery, colState, colCreatedAt,
		colID, colName, colName, colNrqlQuery, colNrqlQuery, colState, colState)
	if _, err := r.pool.Exec(ctx, upsertSQL, query.ID, query.Name, query.NrqlQuery, string(stateJSON), query.CreatedAt); err != nil {
		log.Error().Err(err).Str("id", query.ID).Msg("Failed to upsert saved query")
		return fmt.Errorf("saving query failed: %w", err)
	}
	return nil
}

func (r *postgresSavedQueryRepository) Get(ctx context.Context, id string) (*model.SavedQuery, error) {
	querySQL := fmt.Sprintf("SELECT %s, %s, %s, %s, %s FROM %s WHERE %s = $1",
		colID, colName, colNrqlQuery, colState, colCreatedAt, r.tableName, colID)

	q, err := scanSavedQuery(r.pool.QueryRow(ctx, querySQL, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrSavedQueryNotFound
	}
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("Failed to load saved query")
		return nil, fmt.Errorf("loading query failed: %w", err)
	}
	return q, nil
}

func (r *postgresSavedQueryRepository) List(ctx context.Context) ([]model.SavedQuery, error) {
	querySQL := fmt.Sprintf("SELECT %s, %s, %s, %s, %s FROM %s ORDER BY %s ASC, %s ASC",
		colID, colName, colNrqlQuery, colState, colCreatedAt, r.tableName, colCreatedAt, colID)

	rows, err := r.pool.Query(ctx, querySQL)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list saved queries")
		return nil, fmt.Errorf("listing queries failed: %w", err)
	}
	defer rows.Close()

	queries := make([]model.SavedQuery, 0)
	for rows.Next() {
		q, err := scanSavedQuery(rows)
		if err != nil {
			log.Error().Err(err).Msg("Failed to scan saved query row")
			continue
		}
		queries = append(queries, *q)
	}
	if err := rows.Err(); err != nil {
		log.Error().Err(err).Msg("Error iterating saved query rows")
		return nil, fmt.Errorf("failed iterating saved queries: %w", err)
	}
	return queries, nil
}

func (r *postgresSavedQueryRepository) Delete(ctx context.Context, id string) error {
	deleteSQL := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", r.tableName, colID)
	tag, err := r.pool.Exec(ctx, deleteSQL, id)
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("Failed to delete saved query")
		return fmt.Errorf("deleting query failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrSavedQueryNotFound
	}
	return nil
}

func scanSavedQuery(row pgx.Row) (*model.SavedQuery, error) {
	var (
		q         model.SavedQuery
		stateJSON []byte
		createdAt time.Time
	)
	if err := row.Scan(&q.ID, &q.Name, &q.NrqlQuery, &stateJSON, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(stateJSON, &q.State); err != nil {
		return nil, fmt.Errorf("invalid state for saved query %s: %w", q.ID, err)
	}
	q.CreatedAt = createdAt.UTC()
	return &q, nil
}
