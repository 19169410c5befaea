package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/glassbox/internal/evidence"
	"github.com/sells-group/glassbox/internal/intent"
	"github.com/sells-group/glassbox/internal/model"
	"github.com/sells-group/glassbox/internal/rejection"
	"github.com/sells-group/glassbox/internal/scorer"
)

// leadIDLen is the number of hex characters in a lead id.
const leadIDLen = 8

// Stats counts what happened to the candidates of one run.
type Stats struct {
	Candidates   int `json:"candidates" yaml:"candidates"`
	GateRejected int `json:"gate_rejected" yaml:"gate_rejected"`
	Duplicates   int `json:"duplicates" yaml:"duplicates"`
	Accepted     int `json:"accepted" yaml:"accepted"`
	Resolved     int `json:"resolved" yaml:"resolved"`
	Enriched     int `json:"enriched" yaml:"enriched"`
	Leads        int `json:"leads" yaml:"leads"`
	Rejected     int `json:"rejected" yaml:"rejected"`
	Violations   int `json:"violations" yaml:"violations"`
}

// LeadRecord is a ranked lead with everything needed to explain it.
type LeadRecord struct {
	ID             string              `json:"lead_id" yaml:"lead_id"`
	Lead           model.Lead          `json:"lead" yaml:"lead"`
	Ranked         scorer.Ranked       `json:"ranking" yaml:"ranking"`
	Intent         intent.Type         `json:"intent_type" yaml:"intent_type"`
	EvidenceIDs    []string            `json:"evidence_ids" yaml:"evidence_ids"`
	Evidence       []evidence.Evidence `json:"-" yaml:"-"`
	EnrichedFields []string            `json:"enriched_fields,omitempty" yaml:"enriched_fields,omitempty"`
}

// Score is the ranking score of the lead.
func (l LeadRecord) Score() float64 { return l.Ranked.Score() }

// Result is the outcome of one run. It is never modified after Run returns.
type Result struct {
	RunAt      time.Time             `json:"run_at" yaml:"run_at"`
	Leads      []LeadRecord          `json:"leads" yaml:"leads"`
	Rejections []rejection.Rejection `json:"rejections" yaml:"rejections"`
	Stats      Stats                 `json:"stats" yaml:"stats"`
}

// Lead finds a lead by id.
func (r *Result) Lead(id string) (LeadRecord, bool) {
	for _, l := range r.Leads {
		if l.ID == id {
			return l, true
		}
	}
	return LeadRecord{}, false
}

// FindEvidence finds a piece of evidence by id across all leads.
func (r *Result) FindEvidence(id string) (evidence.Evidence, bool) {
	for _, l := range r.Leads {
		for _, ev := range l.Evidence {
			if ev.ID() == id {
				return ev, true
			}
		}
	}
	return evidence.Evidence{}, false
}

// LeadID derives a lead id from the lead's domain. When a run yields more
// than one lead for a domain, later leads also hash their signal id.
func LeadID(domain, signalID string, taken bool) string {
	key := domain
	if taken {
		key = domain + ":" + signalID
	}
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:leadIDLen]
}

// rank scores the accepted leads and orders them by score, then by the lead
// sort key, then by input order.
func (r *run) rank(ctx context.Context, items []pending) ([]LeadRecord, error) {
	slices.SortStableFunc(items, func(a, b pending) int {
		return model.CompareSortKeys(model.LeadSortKey(a.lead), model.LeadSortKey(b.lead))
	})

	pairs := make([]scorer.Pair, len(items))
	bySignal := make(map[*model.Signal]int, len(items))
	for i := range items {
		pairs[i] = scorer.Pair{Entity: items[i].enrichment.Entity, Signal: &items[i].signal}
		bySignal[pairs[i].Signal] = i
	}

	ranked, err := scorer.Rank(ctx, pairs, r.now, r.cfg.Concurrency)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: rank")
	}

	leads := make([]LeadRecord, 0, len(ranked))
	used := make(map[string]bool, len(ranked))
	for _, rk := range ranked {
		item := items[bySignal[rk.Signal]]
		domain := item.lead.Domain().Text()
		id := LeadID(domain, item.signal.ID(), used[domain])
		used[domain] = true

		ids := make([]string, len(item.evidence))
		for i, ev := range item.evidence {
			ids[i] = ev.ID()
		}
		leads = append(leads, LeadRecord{
			ID:             id,
			Lead:           item.lead,
			Ranked:         rk,
			Intent:         item.intent,
			EvidenceIDs:    ids,
			Evidence:       item.evidence,
			EnrichedFields: item.enrichment.Enriched,
		})
	}
	return leads, nil
}
