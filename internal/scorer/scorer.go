// Package scorer ranks resolved entities with an additive, fully
// explainable score. Every component carries its raw value, its point
// contribution, the evidence it used and a human-readable reason.
package scorer

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/sells-group/glassbox/internal/evidence"
	"github.com/sells-group/glassbox/internal/intent"
	"github.com/sells-group/glassbox/internal/model"
)

// Component names.
const (
	IntentStrength     = "intent_strength"
	SignalFreshness    = "signal_freshness"
	EvidenceConfidence = "evidence_confidence"
	EntityCompleteness = "entity_completeness"
	NoisePenalty       = "noise_penalty"
)

// MaxScore and MinScore bound Breakdown.Total.
const (
	MaxScore = 95
	MinScore = -10
)

// Component is one additive part of a score.
type Component struct {
	Name         string   `json:"name" yaml:"name"`
	RawValue     float64  `json:"raw_value" yaml:"raw_value"`
	Contribution float64  `json:"contribution" yaml:"contribution"`
	EvidenceIDs  []string `json:"evidence_ids" yaml:"evidence_ids"`
	Reason       string   `json:"reason" yaml:"reason"`
}

// Breakdown is the full, immutable result of scoring one entity.
type Breakdown struct {
	IntentStrength     Component `json:"intent_strength" yaml:"intent_strength"`
	SignalFreshness    Component `json:"signal_freshness" yaml:"signal_freshness"`
	EvidenceConfidence Component `json:"evidence_confidence" yaml:"evidence_confidence"`
	EntityCompleteness Component `json:"entity_completeness" yaml:"entity_completeness"`
	NoisePenalty       Component `json:"noise_penalty" yaml:"noise_penalty"`
}

// Components returns the five components in display order.
func (b Breakdown) Components() []Component {
	return []Component{
		b.IntentStrength,
		b.SignalFreshness,
		b.EvidenceConfidence,
		b.EntityCompleteness,
		b.NoisePenalty,
	}
}

// Total is the unweighted sum of all contributions.
func (b Breakdown) Total() float64 {
	var total float64
	for _, c := range b.Components() {
		total += c.Contribution
	}
	return total
}

// Tier derives the score tier from the total.
func (b Breakdown) Tier() Tier { return TierFor(b.Total()) }

// Positive returns components with a positive contribution.
func (b Breakdown) Positive() []Component {
	var out []Component
	for _, c := range b.Components() {
		if c.Contribution > 0 {
			out = append(out, c)
		}
	}
	return out
}

// Negative returns components with a negative contribution.
func (b Breakdown) Negative() []Component {
	var out []Component
	for _, c := range b.Components() {
		if c.Contribution < 0 {
			out = append(out, c)
		}
	}
	return out
}

// EvidenceIDs returns every evidence id referenced by the breakdown,
// sorted and deduplicated.
func (b Breakdown) EvidenceIDs() []string {
	var ids []string
	for _, c := range b.Components() {
		ids = append(ids, c.EvidenceIDs...)
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

// Tier is the score band of a ranked entity.
type Tier string

const (
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
	TierD Tier = "D"
)

// TierFor maps a total score onto a tier.
func TierFor(score float64) Tier {
	switch {
	case score >= 60:
		return TierA
	case score >= 40:
		return TierB
	case score >= 20:
		return TierC
	}
	return TierD
}

// ScoreBreakdown computes all five components for entity and its signal at
// ref. signal may be nil when the entity has no originating signal.
func ScoreBreakdown(entity model.Entity, signal *model.Signal, ref time.Time) Breakdown {
	var sigIDs []string
	var text string
	if signal != nil {
		sigIDs = []string{signal.ID()}
		text = signal.RawText()
	}

	b := Breakdown{
		IntentStrength:     scoreIntent(text, signal != nil),
		SignalFreshness:    scoreFreshness(signal, ref),
		EvidenceConfidence: scoreEvidenceConfidence(entity, ref),
		EntityCompleteness: scoreCompleteness(entity),
		NoisePenalty:       scoreNoise(text, signal != nil),
	}
	b.IntentStrength.EvidenceIDs = sigIDs
	b.SignalFreshness.EvidenceIDs = slices.Clone(sigIDs)
	b.NoisePenalty.EvidenceIDs = slices.Clone(sigIDs)
	return b
}

var intentPoints = map[intent.Type]float64{
	intent.Hiring:          40,
	intent.Funding:         30,
	intent.ExecutiveChange: 20,
}

// scoreIntent awards points by intent type using the gate's classifier.
func scoreIntent(text string, hasSignal bool) Component {
	c := Component{Name: IntentStrength}
	if !hasSignal {
		c.Reason = "No signal to analyze"
		return c
	}
	typ, _ := intent.Classify(text)
	if typ == intent.None {
		c.Reason = "No clear intent signal detected"
		return c
	}
	c.Contribution = intentPoints[typ]
	c.RawValue = c.Contribution
	c.Reason = fmt.Sprintf("Detected %s intent signal (+%d points)", typ.Label(), int(c.Contribution))
	return c
}

var freshnessBands = []struct {
	maxDays int
	points  float64
	label   string
}{
	{3, 25, "Very fresh signal"},
	{7, 20, "Fresh signal"},
	{14, 15, "Recent signal"},
	{21, 10, "Aging signal"},
	{30, 5, "Old signal"},
}

// scoreFreshness awards points by whole days since the signal timestamp.
func scoreFreshness(signal *model.Signal, ref time.Time) Component {
	c := Component{Name: SignalFreshness}
	if signal == nil {
		c.Reason = "No signal timestamp available"
		return c
	}
	days := evidence.AgeDays(signal.Timestamp(), ref)
	c.RawValue = float64(days)
	for _, band := range freshnessBands {
		if days <= band.maxDays {
			c.Contribution = band.points
			c.Reason = fmt.Sprintf("%s (%d days old) (+%d points)", band.label, days, int(band.points))
			return c
		}
	}
	c.Reason = fmt.Sprintf("Stale signal (%d days old, no freshness bonus)", days)
	return c
}

var confidenceBands = []struct {
	min    float64
	points float64
	label  string
}{
	{0.8, 20, "High"},
	{0.6, 15, "Good"},
	{0.4, 10, "Moderate"},
	{0.2, 5, "Low"},
}

// scoreEvidenceConfidence uses the weakest current confidence across the
// entity's evidence.
func scoreEvidenceConfidence(entity model.Entity, ref time.Time) Component {
	c := Component{Name: EvidenceConfidence}
	evs := entity.Evidence()
	if len(evs) == 0 {
		c.Reason = "No evidence available"
		return c
	}

	minConf := math.Inf(1)
	for _, ev := range evs {
		minConf = math.Min(minConf, ev.CurrentConfidence(ref))
		c.EvidenceIDs = append(c.EvidenceIDs, ev.ID())
	}
	c.RawValue = minConf

	pct := int(math.Round(minConf * 100))
	for _, band := range confidenceBands {
		if minConf >= band.min {
			c.Contribution = band.points
			c.Reason = fmt.Sprintf("%s evidence confidence (%d%%) (+%d points)", band.label, pct, int(band.points))
			return c
		}
	}
	c.Reason = fmt.Sprintf("Very low evidence confidence (%d%%)", pct)
	return c
}

// scoreCompleteness rewards optional entity fields. Country does not count.
func scoreCompleteness(entity model.Entity) Component {
	c := Component{
		Name:         EntityCompleteness,
		Contribution: 5,
		EvidenceIDs:  []string{entity.CompanyName().ID(), entity.Domain().ID()},
	}
	fields := []string{evidence.FieldCompanyName, evidence.FieldDomain}
	if ev, ok := entity.Industry(); ok {
		c.Contribution += 3
		fields = append(fields, evidence.FieldIndustry)
		c.EvidenceIDs = append(c.EvidenceIDs, ev.ID())
	}
	if ev, ok := entity.SizeEstimate(); ok {
		c.Contribution += 2
		fields = append(fields, evidence.FieldSizeEstimate)
		c.EvidenceIDs = append(c.EvidenceIDs, ev.ID())
	}
	c.RawValue = float64(len(fields)) / 4
	c.Reason = fmt.Sprintf("Entity has %d fields (%s) (+%d points)",
		len(fields), strings.Join(fields, ", "), int(c.Contribution))
	return c
}

// scoreNoise deducts points for uncertainty markers in the signal text.
func scoreNoise(text string, hasSignal bool) Component {
	c := Component{Name: NoisePenalty}
	if !hasSignal {
		c.Reason = "No signal to analyze"
		return c
	}
	markers := intent.NoiseMarkers(text)
	c.RawValue = float64(len(markers))
	switch n := len(markers); {
	case n == 0:
		c.Reason = "Clean signal, no uncertainty markers"
	case n <= 2:
		c.Contribution = -5
		c.Reason = fmt.Sprintf("Signal contains %d uncertainty markers (-5 points)", n)
	default:
		c.Contribution = -10
		c.Reason = fmt.Sprintf("Signal contains %d uncertainty markers (-10 points)", n)
	}
	return c
}
