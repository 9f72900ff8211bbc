package store

import (
	"fmt"
	"slices"
	"strings"

	"github.com/groeimetai/groeimetai-platform-sub011/internal/chunk"
)

// Filter is a predicate over chunk metadata. A nil Filter matches everything.
type Filter interface {
	Match(md chunk.Metadata) bool
}

type eqFilter struct{ field, value string }

func (f eqFilter) Match(md chunk.Metadata) bool {
	v, ok := md.Field(f.field)
	return ok && v == f.value
}

type andFilter []Filter

func (f andFilter) Match(md chunk.Metadata) bool {
	for _, sub := range f {
		if sub != nil && !sub.Match(md) {
			return false
		}
	}
	return true
}

type orFilter []Filter

func (f orFilter) Match(md chunk.Metadata) bool {
	for _, sub := range f {
		if sub == nil || sub.Match(md) {
			return true
		}
	}
	return false
}

type notFilter struct{ inner Filter }

func (f notFilter) Match(md chunk.Metadata) bool {
	return f.inner != nil && !f.inner.Match(md)
}

// Eq matches when metadata field equals value. Unknown fields never match.
func Eq(field, value string) Filter { return eqFilter{field: field, value: value} }

// And matches when every filter matches.
func And(filters ...Filter) Filter { return andFilter(filters) }

// Or matches when any filter matches. Or() with no filters matches nothing.
func Or(filters ...Filter) Filter { return orFilter(filters) }

// Not inverts f.
func Not(f Filter) Filter { return notFilter{inner: f} }

// ParseFilter parses "field=value[,field=value...]". Clauses are ANDed;
// "a|b" in a value ORs alternatives; "!=" negates. An empty expression
// yields a nil Filter.
//
//	chunkType=code,courseId=intro
//	chunkType=code|assignment,lessonId!=l3
func ParseFilter(expr string) (Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}

	var clauses []Filter
	for _, raw := range strings.Split(expr, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}

		negate := false
		field, value, ok := strings.Cut(raw, "!=")
		if ok {
			negate = true
		} else if field, value, ok = strings.Cut(raw, "="); !ok {
			return nil, fmt.Errorf("filter clause %q: expected field=value", raw)
		}

		field = strings.TrimSpace(field)
		if !slices.Contains(chunk.FieldNames, field) {
			return nil, fmt.Errorf("filter clause %q: unknown field %q (known: %s)",
				raw, field, strings.Join(chunk.FieldNames, ", "))
		}

		var alts []Filter
		for _, v := range strings.Split(value, "|") {
			alts = append(alts, Eq(field, strings.TrimSpace(v)))
		}
		var clause Filter = alts[0]
		if len(alts) > 1 {
			clause = Or(alts...)
		}
		if negate {
			clause = Not(clause)
		}
		clauses = append(clauses, clause)
	}

	switch len(clauses) {
	case 0:
		return nil, nil
	case 1:
		return clauses[0], nil
	default:
		return And(clauses...), nil
	}
}
