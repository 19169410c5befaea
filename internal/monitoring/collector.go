// Package monitoring summarizes pipeline runs and raises alerts when a run
// looks unhealthy.
package monitoring

import (
	"time"

	"github.com/sells-group/glassbox/internal/model"
	"github.com/sells-group/glassbox/internal/pipeline"
	"github.com/sells-group/glassbox/internal/rejection"
	"github.com/sells-group/glassbox/internal/scorer"
)

// Snapshot holds a point-in-time view of one run.
type Snapshot struct {
	// Batch totals.
	Candidates int `json:"candidates" yaml:"candidates"`
	Accepted   int `json:"accepted" yaml:"accepted"`
	Duplicates int `json:"duplicates" yaml:"duplicates"`
	Leads      int `json:"leads" yaml:"leads"`
	Rejected   int `json:"rejected" yaml:"rejected"`
	Violations int `json:"violations" yaml:"violations"`

	// AcceptanceRate is leads over distinct candidates.
	AcceptanceRate float64 `json:"acceptance_rate" yaml:"acceptance_rate"`
	AverageScore   float64 `json:"average_score" yaml:"average_score"`

	RejectionsByRule map[rejection.Rule]int          `json:"rejections_by_rule" yaml:"rejections_by_rule"`
	LeadsByScoreTier map[scorer.Tier]int             `json:"leads_by_score_tier" yaml:"leads_by_score_tier"`
	LeadsByQualTier  map[model.QualificationTier]int `json:"leads_by_qualification_tier" yaml:"leads_by_qualification_tier"`

	// Metadata.
	RunAt       time.Time `json:"run_at" yaml:"run_at"`
	CollectedAt time.Time `json:"collected_at" yaml:"collected_at"`
}

// Collect builds a snapshot of res. A nil result yields an empty snapshot.
func Collect(res *pipeline.Result) *Snapshot {
	snap := &Snapshot{
		RejectionsByRule: make(map[rejection.Rule]int),
		LeadsByScoreTier: make(map[scorer.Tier]int),
		LeadsByQualTier:  make(map[model.QualificationTier]int),
		CollectedAt:      time.Now().UTC(),
	}
	if res == nil {
		return snap
	}

	s := res.Stats
	snap.RunAt = res.RunAt
	snap.Candidates = s.Candidates
	snap.Accepted = s.Accepted
	snap.Duplicates = s.Duplicates
	snap.Leads = len(res.Leads)
	snap.Rejected = len(res.Rejections)
	snap.Violations = s.Violations

	snap.RejectionsByRule = rejection.Count(res.Rejections)

	var total float64
	for _, l := range res.Leads {
		snap.LeadsByScoreTier[l.Ranked.Tier()]++
		snap.LeadsByQualTier[l.Lead.Tier()]++
		total += l.Score()
	}
	if snap.Leads > 0 {
		snap.AverageScore = total / float64(snap.Leads)
	}
	if distinct := s.Candidates - s.Duplicates; distinct > 0 {
		snap.AcceptanceRate = float64(snap.Leads) / float64(distinct)
	}
	return snap
}
