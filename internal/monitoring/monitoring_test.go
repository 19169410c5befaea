package monitoring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/glassbox/internal/ingest"
	"github.com/sells-group/glassbox/internal/model"
	"github.com/sells-group/glassbox/internal/pipeline"
	"github.com/sells-group/glassbox/internal/rejection"
	"github.com/sells-group/glassbox/internal/scorer"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func sampleResult(t *testing.T) *pipeline.Result {
	t.Helper()
	cands, err := ingest.SampleCandidates(context.Background(), testNow)
	require.NoError(t, err)
	p := pipeline.New(pipeline.Config{Concurrency: 2}, pipeline.WithClock(func() time.Time { return testNow }))
	res, err := p.Run(context.Background(), cands)
	require.NoError(t, err)
	return res
}

func TestCollect_Sample(t *testing.T) {
	t.Parallel()

	snap := Collect(sampleResult(t))

	assert.Equal(t, testNow, snap.RunAt)
	assert.Equal(t, 9, snap.Candidates)
	assert.Equal(t, 6, snap.Accepted)
	assert.Equal(t, 1, snap.Duplicates)
	assert.Equal(t, 4, snap.Leads)
	assert.Equal(t, 4, snap.Rejected)
	assert.Zero(t, snap.Violations)
	assert.InDelta(t, 0.5, snap.AcceptanceRate, 1e-9)
	assert.InDelta(t, 77.0, snap.AverageScore, 1e-9)

	assert.Equal(t, map[rejection.Rule]int{
		rejection.StaleSignal:    1,
		rejection.NoIntentSignal: 1,
		rejection.MissingEntity:  1,
		rejection.InvalidDomain:  1,
	}, snap.RejectionsByRule)
	assert.Equal(t, map[scorer.Tier]int{scorer.TierA: 4}, snap.LeadsByScoreTier)
	assert.Equal(t, map[model.QualificationTier]int{
		model.Tier1: 1,
		model.Tier2: 1,
		model.Tier3: 2,
	}, snap.LeadsByQualTier)
}

func TestCollect_Nil(t *testing.T) {
	t.Parallel()

	snap := Collect(nil)
	assert.Zero(t, snap.Candidates)
	assert.Zero(t, snap.AcceptanceRate)
	assert.NotNil(t, snap.RejectionsByRule)
}

func TestAlerter_Evaluate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		th    Thresholds
		snap  Snapshot
		types []AlertType
	}{
		{
			name:  "healthy",
			th:    Thresholds{MinAcceptanceRate: 0.25},
			snap:  Snapshot{Candidates: 8, Leads: 4, AcceptanceRate: 0.5},
			types: nil,
		},
		{
			name:  "empty batch",
			th:    Thresholds{MinAcceptanceRate: 0.25},
			snap:  Snapshot{},
			types: nil,
		},
		{
			name:  "no leads",
			th:    Thresholds{MinAcceptanceRate: 0.25},
			snap:  Snapshot{Candidates: 5, Rejected: 5},
			types: []AlertType{AlertNoLeads},
		},
		{
			name:  "low acceptance",
			th:    Thresholds{MinAcceptanceRate: 0.25},
			snap:  Snapshot{Candidates: 10, Leads: 1, AcceptanceRate: 0.1},
			types: []AlertType{AlertLowAcceptance},
		},
		{
			name:  "threshold disabled",
			snap:  Snapshot{Candidates: 10, Leads: 1, AcceptanceRate: 0.1},
			types: nil,
		},
		{
			name:  "violations",
			snap:  Snapshot{Candidates: 3, Leads: 0, Violations: 2},
			types: []AlertType{AlertInvariantFailure, AlertNoLeads},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			alerts := NewAlerter(tt.th).Evaluate(&tt.snap)
			var got []AlertType
			for _, a := range alerts {
				got = append(got, a.Type)
				assert.NotEmpty(t, a.Message)
			}
			assert.Equal(t, tt.types, got)
		})
	}
}

func TestAlerter_LowAcceptanceMessage(t *testing.T) {
	t.Parallel()

	alerts := NewAlerter(Thresholds{MinAcceptanceRate: 0.6}).Evaluate(Collect(sampleResult(t)))
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertLowAcceptance, alerts[0].Type)
	assert.Equal(t, "Acceptance rate 50.0% is below threshold 60.0% (4 leads / 8 candidates)", alerts[0].Message)
}

func TestChecker_Check(t *testing.T) {
	t.Parallel()

	c := NewChecker(NewAlerter(Thresholds{MinAcceptanceRate: 0.1}))
	assert.Empty(t, c.Check(sampleResult(t)))

	alerts := c.Check(&pipeline.Result{RunAt: testNow, Stats: pipeline.Stats{Candidates: 2}})
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertNoLeads, alerts[0].Type)
}
