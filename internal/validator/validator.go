package validator

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"nrql-builder-backend/internal/catalog"
	"nrql-builder-backend/internal/model"
)

// QueryCompiler regenerates query text from a state.
type QueryCompiler interface {
	Compile(state model.QueryState) string
}

type Result struct {
	Valid    bool     `json:"valid"`
	Warnings []string `json:"warnings"`
}

// Validator checks stored query states against the current catalog.
type Validator struct {
	catalog  *catalog.Catalog
	compiler QueryCompiler
}

func New(cat *catalog.Catalog, compiler QueryCompiler) *Validator {
	return &Validator{catalog: cat, compiler: compiler}
}

// Validate reports every reference in state that the catalog no longer
// knows. When savedQuery is non-nil the state is recompiled and compared
// with it byte for byte. All checks run; none stops the others.
func (v *Validator) Validate(state model.QueryState, savedQuery *string) Result {
	warnings := make([]string, 0)

	for _, app := range state.Applications {
		if !v.catalog.HasApplication(app) {
			warnings = append(warnings, fmt.Sprintf("Application '%s' is no longer available", app))
		}
	}
	if !v.catalog.HasEnvironment(state.Environment) {
		warnings = append(warnings, fmt.Sprintf("Environment '%s' is no longer available", state.Environment))
	}
	for _, item := range state.MetricItems {
		if _, ok := v.catalog.LookupField(item.Field); !ok {
			warnings = append(warnings, fmt.Sprintf("Field '%s' is no longer available", item.Field))
		}
		if _, ok := v.catalog.LookupAggregation(item.AggregationType); !ok {
			warnings = append(warnings, fmt.Sprintf("Aggregation type '%s' is no longer available", item.AggregationType))
		}
		for _, f := range item.Filters {
			if _, ok := v.catalog.LookupField(f.Field); !ok {
				warnings = append(warnings, fmt.Sprintf("Filter field '%s' is no longer available", f.Field))
			}
		}
	}
	if state.HasFacet() && !v.catalog.HasFacet(state.Facet) {
		warnings = append(warnings, fmt.Sprintf("Facet '%s' is no longer available", state.Facet))
	}
	if state.TimePeriod.Mode != model.TimeModeRelative && state.TimePeriod.Mode != model.TimeModeAbsolute {
		warnings = append(warnings, fmt.Sprintf("Time period mode '%s' is not recognized", state.TimePeriod.Mode))
	}

	if savedQuery != nil {
		regenerated, err := v.regenerate(state)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("Failed to regenerate saved query")
			warnings = append(warnings, "Unable to regenerate query from saved state")
		case regenerated != *savedQuery:
			warnings = append(warnings, "Query output has changed since this query was saved")
		}
	}

	return Result{Valid: len(warnings) == 0, Warnings: warnings}
}

func (v *Validator) regenerate(state model.QueryState) (query string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("compiler panic: %v", r)
		}
	}()
	return v.compiler.Compile(state), nil
}
