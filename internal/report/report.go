package report

import (
	"math"
	"time"

	"github.com/verith/attest/internal/classify"
	"github.com/verith/attest/internal/runtime"
	"github.com/verith/attest/internal/target"
)

// Run is the complete compliance report for one profile execution.
type Run struct {
	Token           string          `json:"token"`
	ProfileName     string          `json:"profile_name"`
	ProfileVersion  string          `json:"profile_version"`
	ProfileChecksum string          `json:"profile_checksum"`
	EngineVersion   string          `json:"engine_version"`
	TargetName      string          `json:"target_name"`
	Platform        target.Platform `json:"platform"`
	StartedAt       time.Time       `json:"started_at"`
	FinishedAt      time.Time       `json:"finished_at"`
	Results         []Result        `json:"results"`
	Stats           Stats           `json:"stats"`
}

// Result is one classified control outcome within a run.
type Result struct {
	ID         string              `json:"id"` // content-addressed
	ControlID  string              `json:"control_id"`
	Title      string              `json:"title"`
	Status     classify.Status     `json:"status"`
	Impact     float64             `json:"impact"`
	Severity   string              `json:"severity"`
	Seq        int64               `json:"seq"`
	DurationMS int64               `json:"duration_ms"`
	Message    string              `json:"message,omitempty"` // skip reason, anomaly, or first failure
	Waived     bool                `json:"waived,omitempty"`
	Assertions []runtime.Assertion `json:"assertions,omitempty"`
}

// Stats summarizes a run's outcomes.
//
// Score is the compliance percentage: passed over everything that could
// have passed (passed + failed + not reviewed + profile errors). Not
// Applicable controls are excluded entirely - impact 0 means "does not
// affect the compliance score".
type Stats struct {
	Passed        int     `json:"passed"`
	Failed        int     `json:"failed"`
	NotReviewed   int     `json:"not_reviewed"`
	NotApplicable int     `json:"not_applicable"`
	Errored       int     `json:"errored"`
	Total         int     `json:"total"`
	Score         float64 `json:"score"`
}

// ComputeStats tallies results and derives the compliance score.
func ComputeStats(results []Result) Stats {
	s := Stats{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case classify.StatusPassed:
			s.Passed++
		case classify.StatusFailed:
			s.Failed++
		case classify.StatusNotReviewed:
			s.NotReviewed++
		case classify.StatusNotApplicable:
			s.NotApplicable++
		case classify.StatusProfileError:
			s.Errored++
		}
	}

	scored := s.Passed + s.Failed + s.NotReviewed + s.Errored
	if scored > 0 {
		// One decimal place is plenty for a percentage.
		s.Score = math.Round(float64(s.Passed)/float64(scored)*1000) / 10
	}
	return s
}

// CountByStatus returns how many results carry the given status.
func (r *Run) CountByStatus(status classify.Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

// Result returns the result for a control ID, or nil if absent.
func (r *Run) Result(controlID string) *Result {
	for i := range r.Results {
		if r.Results[i].ControlID == controlID {
			return &r.Results[i]
		}
	}
	return nil
}
