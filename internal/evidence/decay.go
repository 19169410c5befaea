package evidence

import (
	"math"
	"time"
)

// Decay is a step-wise confidence decay: Step is subtracted for every full
// PeriodDays elapsed since the evidence timestamp.
type Decay struct {
	Step       float64 `json:"step" yaml:"step"`
	PeriodDays int     `json:"period_days" yaml:"period_days"`
}

var decaySchedules = map[string]Decay{
	FieldIntentSignal: {Step: 0.25, PeriodDays: 7},
	FieldContactEmail: {Step: 0.10, PeriodDays: 30},
}

// DecaySchedule returns the decay applied to evidence for field, if any.
func DecaySchedule(field string) (Decay, bool) {
	d, ok := decaySchedules[field]
	return d, ok
}

// AgeDays returns the whole days between ts and ref. Negative ages are 0.
func AgeDays(ts, ref time.Time) int {
	days := int(ref.Sub(ts) / (24 * time.Hour))
	if days < 0 {
		return 0
	}
	return days
}

// CurrentConfidence returns the base confidence minus the decay accumulated
// by ref, floored at zero. The stored confidence is never modified.
func (e Evidence) CurrentConfidence(ref time.Time) float64 {
	base := e.meta.Confidence
	d, ok := decaySchedules[e.field]
	if !ok || d.PeriodDays <= 0 {
		return base
	}
	periods := AgeDays(e.meta.Timestamp, ref) / d.PeriodDays
	return math.Max(0, base-float64(periods)*d.Step)
}

// IsStale reports whether e is invalidated or fully decayed at ref.
func (e Evidence) IsStale(ref time.Time) bool {
	return e.meta.Invalidated || e.CurrentConfidence(ref) <= 0
}
