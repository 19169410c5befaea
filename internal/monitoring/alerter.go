package monitoring

import (
	"fmt"
	"time"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertNoLeads          AlertType = "no_leads"
	AlertLowAcceptance    AlertType = "low_acceptance_rate"
	AlertInvariantFailure AlertType = "invariant_violation"
)

// Alert represents a single alert raised for a run.
type Alert struct {
	Type      AlertType      `json:"type" yaml:"type"`
	Severity  string         `json:"severity" yaml:"severity"`
	Message   string         `json:"message" yaml:"message"`
	Details   map[string]any `json:"details,omitempty" yaml:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp" yaml:"timestamp"`
}

// Thresholds configure when a run raises alerts.
type Thresholds struct {
	// MinAcceptanceRate is the lowest healthy leads-per-candidate ratio.
	// Zero disables the check.
	MinAcceptanceRate float64
}

// Alerter evaluates a Snapshot against configured thresholds.
type Alerter struct {
	th Thresholds
}

// NewAlerter creates a new Alerter.
func NewAlerter(th Thresholds) *Alerter {
	return &Alerter{th: th}
}

// Evaluate checks the snapshot against thresholds and returns any alerts.
func (a *Alerter) Evaluate(snap *Snapshot) []Alert {
	var alerts []Alert
	now := snap.CollectedAt

	// Any violation is a defect, not a data problem.
	if snap.Violations > 0 {
		alerts = append(alerts, Alert{
			Type:     AlertInvariantFailure,
			Severity: "high",
			Message:  fmt.Sprintf("%d invariant violation(s) in run at %s", snap.Violations, snap.RunAt.Format(time.RFC3339)),
			Details: map[string]any{
				"violations": snap.Violations,
			},
			Timestamp: now,
		})
	}

	if snap.Candidates > 0 && snap.Leads == 0 {
		alerts = append(alerts, Alert{
			Type:     AlertNoLeads,
			Severity: "medium",
			Message:  fmt.Sprintf("No leads from %d candidates", snap.Candidates),
			Details: map[string]any{
				"candidates": snap.Candidates,
				"rejected":   snap.Rejected,
			},
			Timestamp: now,
		})
		return alerts
	}

	if a.th.MinAcceptanceRate > 0 && snap.Candidates > 0 && snap.AcceptanceRate < a.th.MinAcceptanceRate {
		alerts = append(alerts, Alert{
			Type:     AlertLowAcceptance,
			Severity: "low",
			Message: fmt.Sprintf(
				"Acceptance rate %.1f%% is below threshold %.1f%% (%d leads / %d candidates)",
				snap.AcceptanceRate*100, a.th.MinAcceptanceRate*100, snap.Leads, snap.Candidates-snap.Duplicates,
			),
			Details: map[string]any{
				"acceptance_rate": snap.AcceptanceRate,
				"threshold":       a.th.MinAcceptanceRate,
			},
			Timestamp: now,
		})
	}

	return alerts
}
