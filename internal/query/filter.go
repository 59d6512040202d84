// Package query defines result filters and their compilation to
// parameterized SQL for the store.
//
// Filter is a sealed interface: only types in this package implement
// it. The marker method prevents external implementations and keeps the
// compiler's type switch exhaustive. Values are always parameterized,
// never interpolated, and every compiled query is ordered
// deterministically by the caller (the store appends ORDER BY seq).
package query

import (
	"fmt"
	"strings"

	"github.com/verith/attest/internal/classify"
)

// Filter selects a subset of stored results.
//
// Filter types:
//   - StatusIs:     status = ?
//   - MinImpact:    impact >= ?
//   - ControlMatch: control_id LIKE ? (glob-style, * and ? wildcards)
//   - And:          all sub-filters hold
type Filter interface {
	filterNode() // marker - seals interface to this package
}

// StatusIs matches results with an exact classification status.
type StatusIs struct {
	Status classify.Status
}

func (StatusIs) filterNode() {}

// MinImpact matches results whose effective impact is at least Impact.
type MinImpact struct {
	Impact float64
}

func (MinImpact) filterNode() {}

// ControlMatch matches control IDs against a glob pattern
// ("ssh-*", "os-0?"). An empty pattern matches nothing.
type ControlMatch struct {
	Pattern string
}

func (ControlMatch) filterNode() {}

// And matches results satisfying every sub-filter.
// An empty And matches everything (no WHERE fragment).
type And struct {
	Filters []Filter
}

func (And) filterNode() {}

// Validate checks filter parameters before compilation.
func Validate(f Filter) error {
	switch filter := f.(type) {
	case nil:
		return nil
	case StatusIs:
		if !filter.Status.Valid() {
			return fmt.Errorf("unknown status %q", filter.Status)
		}
	case MinImpact:
		if filter.Impact < 0 || filter.Impact > 1 {
			return fmt.Errorf("impact %v out of range [0, 1]", filter.Impact)
		}
	case ControlMatch:
		if filter.Pattern == "" {
			return fmt.Errorf("control pattern must not be empty")
		}
	case And:
		for i, sub := range filter.Filters {
			if err := Validate(sub); err != nil {
				return fmt.Errorf("filter[%d]: %w", i, err)
			}
		}
	default:
		return fmt.Errorf("unsupported filter type: %T", f)
	}
	return nil
}

// Compile converts a filter to a SQL WHERE fragment with parameters.
// A nil filter (or empty And) compiles to an empty fragment.
func Compile(f Filter) (string, []any, error) {
	if f == nil {
		return "", nil, nil
	}
	if err := Validate(f); err != nil {
		return "", nil, err
	}
	return compile(f)
}

func compile(f Filter) (string, []any, error) {
	switch filter := f.(type) {
	case StatusIs:
		return "status = ?", []any{string(filter.Status)}, nil

	case MinImpact:
		return "impact >= ?", []any{filter.Impact}, nil

	case ControlMatch:
		return `control_id LIKE ? ESCAPE '\'`, []any{globToLike(filter.Pattern)}, nil

	case And:
		var (
			fragments []string
			params    []any
		)
		for _, sub := range filter.Filters {
			frag, subParams, err := compile(sub)
			if err != nil {
				return "", nil, err
			}
			if frag == "" {
				continue
			}
			fragments = append(fragments, frag)
			params = append(params, subParams...)
		}
		if len(fragments) == 0 {
			return "", nil, nil
		}
		return "(" + strings.Join(fragments, " AND ") + ")", params, nil

	default:
		return "", nil, fmt.Errorf("unsupported filter type: %T", f)
	}
}

// globToLike converts glob wildcards to SQL LIKE wildcards, escaping
// literal % and _ so patterns cannot widen unexpectedly.
func globToLike(pattern string) string {
	var b strings.Builder
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteByte('%')
		case '?':
			b.WriteByte('_')
		case '%', '_', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
