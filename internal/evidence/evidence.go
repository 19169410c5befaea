// Package evidence provides the provenance records every derived value in
// glassbox must carry.
package evidence

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Type classifies how a piece of evidence was obtained.
type Type string

const (
	TypeObservation Type = "observation"
	TypeInference   Type = "inference"
	TypeThirdParty  Type = "third_party"
)

// Valid reports whether t is one of the three known evidence types.
func (t Type) Valid() bool {
	switch t {
	case TypeObservation, TypeInference, TypeThirdParty:
		return true
	}
	return false
}

// Field names used by entity, lead and signal slots.
const (
	FieldCompanyName  = "company_name"
	FieldDomain       = "domain"
	FieldIndustry     = "industry"
	FieldSizeEstimate = "size_estimate"
	FieldCountry      = "country"
	FieldIntentSignal = "intent_signal"
	FieldContactName  = "contact_name"
	FieldContactEmail = "contact_email"
	FieldTechStack    = "tech_stack"
	FieldRawSignal    = "raw_signal"
)

// Default base confidences per evidence type.
const (
	DefaultObservationConfidence = 0.95
	DefaultInferenceConfidence   = 0.70
	DefaultThirdPartyConfidence  = 0.85
)

var (
	// ErrInvalidEvidence is the sentinel wrapped by every ValidationError.
	ErrInvalidEvidence = eris.New("evidence: invalid")
	// ErrSchemaMismatch is the sentinel wrapped by every SchemaError.
	ErrSchemaMismatch = eris.New("evidence: field name does not match slot")
)

// ValidationError reports evidence that violates the record invariants.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("evidence: invalid: %s", e.Reason)
	}
	return fmt.Sprintf("evidence: invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidEvidence }

// SchemaError reports evidence placed into a slot with a different field name.
type SchemaError struct {
	Slot string
	Got  string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("evidence: slot %q received evidence for field %q", e.Slot, e.Got)
}

func (e *SchemaError) Unwrap() error { return ErrSchemaMismatch }

// CheckSlot returns a *SchemaError when ev is not evidence for slot.
func CheckSlot(slot string, ev Evidence) error {
	if ev.field != slot {
		return &SchemaError{Slot: slot, Got: ev.field}
	}
	return nil
}

// Meta holds the metadata attached to a piece of evidence. Which attributes
// are required depends on the evidence type.
type Meta struct {
	Timestamp  time.Time `json:"timestamp"`
	Confidence float64   `json:"confidence"`

	// Observation.
	SourceURL        string `json:"source_url,omitempty"`
	ExtractionMethod string `json:"extraction_method,omitempty"`

	// Inference.
	SourceEvidenceIDs []string `json:"source_evidence_ids,omitempty"`
	InferenceRule     string   `json:"inference_rule,omitempty"`

	// Third party.
	ProviderName       string   `json:"provider_name,omitempty"`
	ResponseID         string   `json:"response_id,omitempty"`
	ProviderConfidence *float64 `json:"provider_confidence,omitempty"`

	Validated        bool   `json:"validated"`
	ValidationMethod string `json:"validation_method,omitempty"`
	Invalidated      bool   `json:"invalidated"`
}

func (m Meta) clone() Meta {
	m.SourceEvidenceIDs = slices.Clone(m.SourceEvidenceIDs)
	if m.ProviderConfidence != nil {
		pc := *m.ProviderConfidence
		m.ProviderConfidence = &pc
	}
	return m
}

// Evidence is an immutable provenance record. Values are only produced by a
// Ledger's factories, which validate them, so a non-zero Evidence is always
// valid.
type Evidence struct {
	id    string
	field string
	value any
	typ   Type
	meta  Meta
}

func (e Evidence) ID() string            { return e.id }
func (e Evidence) Field() string         { return e.field }
func (e Evidence) Type() Type            { return e.typ }
func (e Evidence) Timestamp() time.Time  { return e.meta.Timestamp }
func (e Evidence) Confidence() float64   { return e.meta.Confidence }
func (e Evidence) Validated() bool       { return e.meta.Validated }
func (e Evidence) Invalidated() bool     { return e.meta.Invalidated }
func (e Evidence) IsZero() bool          { return e.id == "" }
func (e Evidence) Meta() Meta            { return e.meta.clone() }
func (e Evidence) SourceIDs() []string   { return slices.Clone(e.meta.SourceEvidenceIDs) }
func (e Evidence) ProviderName() string  { return e.meta.ProviderName }
func (e Evidence) InferenceRule() string { return e.meta.InferenceRule }

// Value returns the evidence value. Slice values are copied.
func (e Evidence) Value() any {
	if v, ok := e.value.([]string); ok {
		return slices.Clone(v)
	}
	return e.value
}

// Text renders the evidence value as a string.
func (e Evidence) Text() string {
	switch v := e.value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		return strings.Join(v, ", ")
	default:
		return fmt.Sprint(v)
	}
}

// Invalidate returns a copy of e with the invalidated flag set. The flag
// only ever moves from false to true.
func (e Evidence) Invalidate() Evidence {
	out := e
	out.meta = e.meta.clone()
	out.meta.Invalidated = true
	return out
}

type evidenceJSON struct {
	ID    string `json:"id"`
	Field string `json:"field_name"`
	Value any    `json:"value"`
	Type  Type   `json:"type"`
	Meta  Meta   `json:"metadata"`
}

// MarshalJSON renders the evidence for reports and the HTTP view.
func (e Evidence) MarshalJSON() ([]byte, error) {
	return json.Marshal(evidenceJSON{
		ID:    e.id,
		Field: e.field,
		Value: e.value,
		Type:  e.typ,
		Meta:  e.meta,
	})
}

// MarshalYAML mirrors MarshalJSON for yaml reports.
func (e Evidence) MarshalYAML() (any, error) {
	return map[string]any{
		"id":         e.id,
		"field_name": e.field,
		"value":      e.value,
		"type":       string(e.typ),
		"confidence": e.meta.Confidence,
		"timestamp":  e.meta.Timestamp.UTC().Format(time.RFC3339),
	}, nil
}

// Validate checks the record invariants: non-empty id and field name, known
// type, set timestamp, confidence within [0,1], and the type-specific
// metadata.
func Validate(e Evidence) error {
	if e.id == "" {
		return &ValidationError{Reason: "id is required"}
	}
	if e.field == "" {
		return &ValidationError{Reason: "field name is required"}
	}
	if !e.typ.Valid() {
		return &ValidationError{Field: e.field, Reason: fmt.Sprintf("unknown evidence type %q", e.typ)}
	}
	if e.meta.Timestamp.IsZero() {
		return &ValidationError{Field: e.field, Reason: "timestamp is required"}
	}
	if e.meta.Confidence < 0 || e.meta.Confidence > 1 {
		return &ValidationError{Field: e.field, Reason: fmt.Sprintf("confidence %.4f outside [0,1]", e.meta.Confidence)}
	}

	switch e.typ {
	case TypeObservation:
		if e.meta.SourceURL == "" {
			return &ValidationError{Field: e.field, Reason: "observation requires a source url"}
		}
		if e.meta.ExtractionMethod == "" {
			return &ValidationError{Field: e.field, Reason: "observation requires an extraction method"}
		}
	case TypeInference:
		if len(e.meta.SourceEvidenceIDs) == 0 {
			return &ValidationError{Field: e.field, Reason: "inference requires at least one source evidence id"}
		}
		if e.meta.InferenceRule == "" {
			return &ValidationError{Field: e.field, Reason: "inference requires a rule name"}
		}
	case TypeThirdParty:
		if e.meta.ProviderName == "" {
			return &ValidationError{Field: e.field, Reason: "third-party evidence requires a provider name"}
		}
		if e.meta.ResponseID == "" {
			return &ValidationError{Field: e.field, Reason: "third-party evidence requires a response id"}
		}
	}
	return nil
}
