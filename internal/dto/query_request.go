package dto

import (
	"nrql-builder-backend/internal/builder"
	"nrql-builder-backend/internal/model"
)

type ValidateRequest struct {
	State      model.QueryState `json:"state"`
	SavedQuery *string          `json:"savedQuery,omitempty"` // nil skips the regeneration check
}

type CreateMetricItemRequest struct {
	Field           string `json:"field" binding:"required"`
	AggregationType string `json:"aggregationType"`
}

type CreateFilterRequest struct {
	Field string `json:"field"` // empty means response.status
}

type AddMetricRequest struct {
	State           model.QueryState `json:"state"`
	Field           string           `json:"field" binding:"required"`
	AggregationType string           `json:"aggregationType"`
}

type RemoveMetricRequest struct {
	State    model.QueryState `json:"state"`
	MetricID string           `json:"metricId" binding:"required"`
}

type UpdateMetricRequest struct {
	Item  model.MetricQueryItem   `json:"item"`
	Patch builder.MetricItemPatch `json:"patch"`
}

type AddFilterRequest struct {
	Item  model.MetricQueryItem `json:"item"`
	Field string                `json:"field"`
}

type UpdateFilterRequest struct {
	Item     model.MetricQueryItem `json:"item"`
	FilterID string                `json:"filterId" binding:"required"`
	Patch    builder.FilterPatch   `json:"patch"`
}

type RemoveFilterRequest struct {
	Item     model.MetricQueryItem `json:"item"`
	FilterID string                `json:"filterId" binding:"required"`
}

type SaveQueryRequest struct {
	Name  string           `json:"name" binding:"required"`
	State model.QueryState `json:"state"`
}
