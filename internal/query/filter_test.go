package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verith/attest/internal/classify"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		name       string
		filter     Filter
		wantSQL    string
		wantParams []any
	}{
		{
			"nil filter",
			nil,
			"",
			nil,
		},
		{
			"status",
			StatusIs{Status: classify.StatusFailed},
			"status = ?",
			[]any{"failed"},
		},
		{
			"min impact",
			MinImpact{Impact: 0.7},
			"impact >= ?",
			[]any{0.7},
		},
		{
			"control glob",
			ControlMatch{Pattern: "ssh-*"},
			`control_id LIKE ? ESCAPE '\'`,
			[]any{"ssh-%"},
		},
		{
			"and",
			And{Filters: []Filter{
				StatusIs{Status: classify.StatusFailed},
				MinImpact{Impact: 0.5},
			}},
			"(status = ? AND impact >= ?)",
			[]any{"failed", 0.5},
		},
		{
			"empty and",
			And{},
			"",
			nil,
		},
		{
			"and skips empty sub-filters",
			And{Filters: []Filter{
				And{},
				ControlMatch{Pattern: "os-0?"},
			}},
			`(control_id LIKE ? ESCAPE '\')`,
			[]any{"os-0_"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := Compile(tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantParams, params)
		})
	}
}

func TestCompileInvalid(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
	}{
		{"unknown status", StatusIs{Status: "skipped"}},
		{"impact below range", MinImpact{Impact: -0.1}},
		{"impact above range", MinImpact{Impact: 1.1}},
		{"empty pattern", ControlMatch{}},
		{"invalid nested filter", And{Filters: []Filter{MinImpact{Impact: 2}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Compile(tt.filter)
			assert.Error(t, err)
		})
	}
}

func TestGlobToLike(t *testing.T) {
	tests := []struct {
		pattern  string
		expected string
	}{
		{"ssh-*", "ssh-%"},
		{"os-0?", "os-0_"},
		{"plain", "plain"},
		{"100%", `100\%`},
		{"under_score", `under\_score`},
		{`back\slash`, `back\\slash`},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.expected, globToLike(tt.pattern))
		})
	}
}
