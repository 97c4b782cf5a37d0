package dto

import (
	"time"

	"nrql-builder-backend/internal/catalog"
	"nrql-builder-backend/internal/model"
)

type CompileResponse struct {
	Query   string `json:"query"`
	IsError bool   `json:"isError"`
}

// CatalogField is a field definition together with the operators a filter
// on it may use.
type CatalogField struct {
	catalog.FieldDefinition
	DefaultOperator model.Operator   `json:"defaultOperator"`
	Operators       []model.Operator `json:"operators"`
}

type CatalogResponse struct {
	Fields       []CatalogField              `json:"fields"`
	Aggregations []catalog.AggregationConfig `json:"aggregations"`
	Applications []catalog.Option            `json:"applications"`
	Environments []catalog.Option            `json:"environments"`
	Facets       []catalog.Option            `json:"facets"`
}

// AuditReport describes one saved query whose stored NRQL no longer matches
// what its state compiles to, or whose state references catalog entries
// that are gone.
type AuditReport struct {
	SavedQueryID string    `json:"savedQueryId"`
	Name         string    `json:"name"`
	Warnings     []string  `json:"warnings"`
	CheckedAt    time.Time `json:"checkedAt"`
}

type AuditSummary struct {
	Checked   int           `json:"checked"`
	Stale     int           `json:"stale"`
	Reports   []AuditReport `json:"reports"`
	Published bool          `json:"published"`
}
