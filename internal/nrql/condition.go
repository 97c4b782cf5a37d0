package nrql

import (
	"fmt"
	"strings"

	"nrql-builder-backend/internal/catalog"
	"nrql-builder-backend/internal/model"
	"nrql-builder-backend/internal/util"
)

// CompileCondition renders one filter as a predicate. ok is false when the
// filter value is blank: such a filter contributes nothing and is not an
// error.
func (c *Compiler) CompileCondition(f model.MetricFilter) (condition string, ok bool) {
	value := strings.TrimSpace(f.Value)
	if value == "" {
		return "", false
	}

	kind := c.catalog.FieldKind(f.Field)
	if kind.DataType == catalog.String && f.Field == catalog.ResponseStatusField {
		return CompileStatus(value, f.Negated), true
	}

	op := f.Operator
	if f.Negated {
		op = kind.Negate(op)
	}
	// Numeric and unknown fields pass the value through untouched.
	if kind.DataType == catalog.String && (op == model.OpIn || op == model.OpNotIn) {
		return fmt.Sprintf("%s %s (%s)", f.Field, op, value), true
	}
	return fmt.Sprintf("%s %s %s", f.Field, op, value), true
}

// CompileStatus expands a comma-separated list of status codes and
// patterns. Exact codes collapse into one = or IN term; "4xx" and "4%"
// become LIKE terms. Several terms are OR-ed inside parentheses.
//
// A value without any token (for example ",") yields "".
func CompileStatus(value string, negated bool) string {
	var exact, fuzzy []string
	for _, token := range util.SplitList(value) {
		if pattern, ok := statusPattern(token); ok {
			fuzzy = append(fuzzy, pattern)
		} else {
			exact = append(exact, token)
		}
	}

	eq, in, like := "=", "IN", "LIKE"
	if negated {
		eq, in, like = "!=", "NOT IN", "NOT LIKE"
	}

	terms := make([]string, 0, len(fuzzy)+1)
	switch len(exact) {
	case 0:
	case 1:
		terms = append(terms, fmt.Sprintf("%s %s %s", catalog.ResponseStatusField, eq, exact[0]))
	default:
		terms = append(terms, fmt.Sprintf("%s %s (%s)", catalog.ResponseStatusField, in, strings.Join(exact, ", ")))
	}
	for _, pattern := range fuzzy {
		terms = append(terms, fmt.Sprintf("%s %s '%s'", catalog.ResponseStatusField, like, pattern))
	}

	switch len(terms) {
	case 0:
		return ""
	case 1:
		return terms[0]
	}
	return "(" + strings.Join(terms, " OR ") + ")"
}

func statusPattern(token string) (string, bool) {
	if strings.HasSuffix(strings.ToLower(token), "xx") {
		return token[:len(token)-2] + "%", true
	}
	if strings.HasSuffix(token, "%") {
		return token, true
	}
	return "", false
}
