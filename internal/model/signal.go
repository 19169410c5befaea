// Package model holds the validated domain records: signals admitted by the
// gate, entities resolved from them, and qualified leads.
package model

import (
	"encoding/json"
	"time"

	"github.com/sells-group/glassbox/internal/evidence"
	"github.com/sells-group/glassbox/internal/rejection"
)

// SignalFields are the inputs to NewSignal.
type SignalFields struct {
	ID         string
	SourceURL  string
	RawText    string
	Timestamp  time.Time
	SourceType string
	DedupHash  string
}

// Signal is an immutable piece of raw business text admitted by the gate.
type Signal struct {
	f SignalFields
}

// NewSignal validates f. A missing id, source url or timestamp is rejected
// as missing evidence; empty text can carry no intent.
func NewSignal(f SignalFields) (Signal, error) {
	switch {
	case f.ID == "":
		return Signal{}, rejection.New(rejection.MissingEvidence, "signal id is required", "")
	case f.SourceURL == "":
		return Signal{}, rejection.New(rejection.MissingEvidence, "signal source url is required", f.ID)
	case f.Timestamp.IsZero():
		return Signal{}, rejection.New(rejection.MissingEvidence, "signal timestamp is required", f.ID)
	case f.RawText == "":
		return Signal{}, rejection.New(rejection.NoIntentSignal, "signal text is empty", f.ID)
	}
	return Signal{f: f}, nil
}

func (s Signal) ID() string           { return s.f.ID }
func (s Signal) SourceURL() string    { return s.f.SourceURL }
func (s Signal) RawText() string      { return s.f.RawText }
func (s Signal) Timestamp() time.Time { return s.f.Timestamp }
func (s Signal) SourceType() string   { return s.f.SourceType }
func (s Signal) DedupHash() string    { return s.f.DedupHash }

// ToEvidence records the signal itself as observation evidence so that
// values derived from it can point back to their source.
func (s Signal) ToEvidence(l *evidence.Ledger) (evidence.Evidence, error) {
	return l.NewObservation(
		evidence.FieldRawSignal,
		s.f.RawText,
		s.f.SourceURL,
		"signal_ingestion_"+s.f.SourceType,
		evidence.At(s.f.Timestamp),
	)
}

type signalJSON struct {
	ID         string    `json:"id" yaml:"id"`
	SourceURL  string    `json:"source_url" yaml:"source_url"`
	RawText    string    `json:"raw_text" yaml:"raw_text"`
	Timestamp  time.Time `json:"timestamp" yaml:"timestamp"`
	SourceType string    `json:"source_type" yaml:"source_type"`
	DedupHash  string    `json:"dedup_hash" yaml:"dedup_hash"`
}

func (s Signal) view() signalJSON {
	return signalJSON{
		ID:         s.f.ID,
		SourceURL:  s.f.SourceURL,
		RawText:    s.f.RawText,
		Timestamp:  s.f.Timestamp,
		SourceType: s.f.SourceType,
		DedupHash:  s.f.DedupHash,
	}
}

func (s Signal) MarshalJSON() ([]byte, error) { return json.Marshal(s.view()) }

func (s Signal) MarshalYAML() (any, error) { return s.view(), nil }
