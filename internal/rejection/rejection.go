// Package rejection defines the closed set of rules a signal or entity can
// be rejected under and the immutable audit record each rejection produces.
package rejection

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Rule is a machine-readable rejection code.
type Rule string

const (
	NoIntentSignal     Rule = "no_intent_signal"
	StaleSignal        Rule = "stale_signal"
	MissingEntity      Rule = "missing_entity"
	InvalidDomain      Rule = "invalid_domain"
	OutOfScopeIndustry Rule = "out_of_scope_industry"
	SizeMismatch       Rule = "size_mismatch"
	ClassifierFailure  Rule = "llm_failure"
	MissingEvidence    Rule = "missing_evidence"
)

var rules = []Rule{
	NoIntentSignal,
	StaleSignal,
	MissingEntity,
	InvalidDomain,
	OutOfScopeIndustry,
	SizeMismatch,
	ClassifierFailure,
	MissingEvidence,
}

var descriptions = map[Rule]string{
	NoIntentSignal:     "no time-sensitive intent signal detected",
	StaleSignal:        "signal is older than the freshness window",
	MissingEntity:      "company or domain could not be identified",
	InvalidDomain:      "domain is malformed or not a company domain",
	OutOfScopeIndustry: "industry is outside the configured targets",
	SizeMismatch:       "company size is outside the allowed range",
	ClassifierFailure:  "upstream classification failed validation",
	MissingEvidence:    "required evidence is absent",
}

// Rules returns every rule in its canonical order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Valid reports whether r is a known rule.
func (r Rule) Valid() bool {
	_, ok := descriptions[r]
	return ok
}

// Description returns a short human-readable summary of the rule.
func (r Rule) Description() string { return descriptions[r] }

// UnknownSignalID is recorded when a rejection has no originating signal.
const UnknownSignalID = "unknown"

// MaxSnippetLen bounds the raw text kept on a rejection, in characters.
const MaxSnippetLen = 500

// Error is a domain rejection. It is terminal: callers record it and never
// retry the item.
type Error struct {
	Rule     Rule
	Reason   string
	SignalID string
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Rule, e.Reason)
}

// New returns a rejection error for rule.
func New(rule Rule, reason, signalID string) *Error {
	return &Error{Rule: rule, Reason: reason, SignalID: signalID}
}

// Newf returns a rejection error with a formatted reason.
func Newf(rule Rule, signalID, format string, args ...any) *Error {
	return &Error{Rule: rule, Reason: fmt.Sprintf(format, args...), SignalID: signalID}
}

// As extracts a rejection error from err's chain.
func As(err error) (*Error, bool) {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr, true
	}
	return nil, false
}

// Rejection is the immutable audit record of a rejected item.
type Rejection struct {
	id        string
	signalID  string
	rule      Rule
	reason    string
	snippet   string
	timestamp time.Time
}

// FromError builds the audit record for err. The raw text is truncated to
// MaxSnippetLen characters and a missing signal id becomes "unknown".
func FromError(id string, err *Error, rawText string, ts time.Time) Rejection {
	signalID := err.SignalID
	if signalID == "" {
		signalID = UnknownSignalID
	}
	return Rejection{
		id:        id,
		signalID:  signalID,
		rule:      err.Rule,
		reason:    err.Reason,
		snippet:   Snippet(rawText),
		timestamp: ts,
	}
}

// Snippet truncates text to MaxSnippetLen characters.
func Snippet(text string) string {
	r := []rune(text)
	if len(r) <= MaxSnippetLen {
		return text
	}
	return string(r[:MaxSnippetLen])
}

func (r Rejection) ID() string           { return r.id }
func (r Rejection) SignalID() string     { return r.signalID }
func (r Rejection) Rule() Rule           { return r.rule }
func (r Rejection) Reason() string       { return r.reason }
func (r Rejection) Snippet() string      { return r.snippet }
func (r Rejection) Timestamp() time.Time { return r.timestamp }

// Err returns the rejection as an error value.
func (r Rejection) Err() *Error {
	return &Error{Rule: r.rule, Reason: r.reason, SignalID: r.signalID}
}

// View is the serializable form of a Rejection.
type View struct {
	ID         string    `json:"id" yaml:"id"`
	SignalID   string    `json:"signal_id" yaml:"signal_id"`
	Rule       Rule      `json:"rule_code" yaml:"rule_code"`
	Reason     string    `json:"reason" yaml:"reason"`
	RawSnippet string    `json:"raw_snippet" yaml:"raw_snippet"`
	RejectedAt time.Time `json:"timestamp" yaml:"timestamp"`
}

// View returns the serializable form of r.
func (r Rejection) View() View {
	return View{
		ID:         r.id,
		SignalID:   r.signalID,
		Rule:       r.rule,
		Reason:     r.reason,
		RawSnippet: r.snippet,
		RejectedAt: r.timestamp,
	}
}

func (r Rejection) MarshalJSON() ([]byte, error) { return json.Marshal(r.View()) }

func (r Rejection) MarshalYAML() (any, error) { return r.View(), nil }
