package nrql

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"nrql-builder-backend/internal/catalog"
	"nrql-builder-backend/internal/model"
	"nrql-builder-backend/internal/util"
)

// Messages returned in place of a query. Each is a query-language comment.
const (
	ErrNoApplications      = "-- Select at least one application"
	ErrNoMetrics           = "-- Select at least one metric"
	ErrInvalidRelativeTime = "-- Enter a valid relative time (e.g., 3h ago)"
)

const errorPrefix = "-- "

// IsErrorQuery reports whether q is one of the error comments rather than
// a query.
func IsErrorQuery(q string) bool {
	return strings.HasPrefix(q, errorPrefix)
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithClock sets the time source used for absolute periods with missing bounds.
func WithClock(now func() time.Time) Option {
	return func(c *Compiler) { c.clock = now }
}

// WithLocation sets the zone absolute periods are interpreted and rendered
// in. Without it time.Local is read at every compilation.
func WithLocation(loc *time.Location) Option {
	return func(c *Compiler) { c.loc = loc }
}

// Compiler turns a QueryState into query text. It holds no mutable state
// and is safe for concurrent use.
type Compiler struct {
	catalog *catalog.Catalog
	clock   func() time.Time
	loc     *time.Location
}

// NewCompiler returns a Compiler resolving fields and aggregations in cat.
func NewCompiler(cat *catalog.Catalog, opts ...Option) *Compiler {
	c := &Compiler{catalog: cat}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultCompiler = NewCompiler(catalog.Default())

// Compile renders state with the built-in catalog, the wall clock and the
// local zone.
func Compile(state model.QueryState) string {
	return defaultCompiler.Compile(state)
}

func (c *Compiler) now() time.Time {
	if c.clock != nil {
		return c.clock()
	}
	return time.Now()
}

func (c *Compiler) location() *time.Location {
	if c.loc != nil {
		return c.loc
	}
	return time.Local
}

// Compile never fails: invalid input yields one of the Err* comments.
func (c *Compiler) Compile(state model.QueryState) string {
	if len(state.Applications) == 0 {
		return ErrNoApplications
	}
	if len(state.MetricItems) == 0 {
		return ErrNoMetrics
	}

	conditions := make([][]string, len(state.MetricItems))
	for i, item := range state.MetricItems {
		conditions[i] = c.itemConditions(item)
	}
	lifted := sameConditions(conditions)

	selects := make([]string, len(state.MetricItems))
	for i, item := range state.MetricItems {
		expr := c.selectExpression(item)
		if !lifted && len(conditions[i]) > 0 {
			expr = fmt.Sprintf("filter(%s, WHERE %s)", expr, strings.Join(conditions[i], " AND "))
		}
		selects[i] = expr
	}

	where := c.baseConditions(state)
	if lifted {
		where = append(where, conditions[0]...)
	}

	tr, ok := c.CompileTimeRange(state.TimePeriod)
	if !ok {
		return ErrInvalidRelativeTime
	}

	lines := []string{
		"FROM Transaction",
		"SELECT " + strings.Join(selects, ", "),
		"WHERE " + strings.Join(where, " AND "),
	}
	if state.UseTimeseries {
		lines = append(lines, "TIMESERIES AUTO")
	}
	lines = append(lines, tr.Since, tr.Until)
	if state.HasFacet() {
		lines = append(lines, "FACET "+state.Facet)
	}
	return strings.Join(lines, "\n")
}

func (c *Compiler) itemConditions(item model.MetricQueryItem) []string {
	conds := make([]string, 0, len(item.Filters))
	for _, f := range item.Filters {
		if cond, ok := c.CompileCondition(f); ok {
			conds = append(conds, cond)
		}
	}
	return conds
}

// sameConditions reports whether every item carries the same set of
// conditions, ignoring their order. Items without conditions all match.
func sameConditions(conditions [][]string) bool {
	first := signature(conditions[0])
	for _, conds := range conditions[1:] {
		if signature(conds) != first {
			return false
		}
	}
	return true
}

func signature(conds []string) string {
	sorted := append([]string(nil), conds...)
	sort.Strings(sorted)
	return strings.Join(sorted, "\x00")
}

func (c *Compiler) selectExpression(item model.MetricQueryItem) string {
	agg, ok := c.catalog.LookupAggregation(item.AggregationType)
	if !ok {
		log.Debug().Str("aggregation", item.AggregationType).Str("field", item.Field).Msg("Unknown aggregation, rendering count")
		return fmt.Sprintf("count(%s)", item.Field)
	}
	return agg.Render(item.Field)
}

func (c *Compiler) baseConditions(state model.QueryState) []string {
	apps := make([]string, len(state.Applications))
	for i, app := range state.Applications {
		apps[i] = app + "-" + state.Environment
	}
	conds := []string{fmt.Sprintf("appName IN (%s)", strings.Join(util.Quote(apps), ", "))}

	var excluded []string
	if state.ExcludeHealthChecks {
		excluded = append(excluded, c.catalog.HealthCheckPaths()...)
	}
	if state.ExcludeBulkEndpoint {
		excluded = append(excluded, c.catalog.BulkEndpointPaths()...)
	}
	if state.ExcludeHealthChecks || state.ExcludeBulkEndpoint {
		conds = append(conds, fmt.Sprintf("request.uri NOT IN (%s)", strings.Join(util.Quote(excluded), ", ")))
	}
	return conds
}
