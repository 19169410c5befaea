package evidence

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// IDPrefix starts every evidence id.
const IDPrefix = "evt_"

// Ledger creates evidence records. The id generator and clock are
// injectable so that tests can produce deterministic ids and timestamps.
type Ledger struct {
	newID func() string
	now   func() time.Time
}

// LedgerOption configures a Ledger.
type LedgerOption func(*Ledger)

// WithIDFunc overrides the id generator.
func WithIDFunc(fn func() string) LedgerOption {
	return func(l *Ledger) { l.newID = fn }
}

// WithClock overrides the clock used when no explicit timestamp is given.
func WithClock(fn func() time.Time) LedgerOption {
	return func(l *Ledger) { l.now = fn }
}

// NewLedger returns a Ledger using random uuid-based ids and the wall clock.
func NewLedger(opts ...LedgerOption) *Ledger {
	l := &Ledger{newID: NewID, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewID returns "evt_" followed by 12 hex characters of a random uuid.
func NewID() string {
	return IDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// Option adjusts the metadata of a piece of evidence at creation.
type Option func(*Meta)

// At sets the evidence timestamp.
func At(ts time.Time) Option {
	return func(m *Meta) { m.Timestamp = ts }
}

// WithConfidence overrides the default base confidence.
func WithConfidence(c float64) Option {
	return func(m *Meta) { m.Confidence = c }
}

// ValidatedBy marks the evidence as validated by the named method.
func ValidatedBy(method string) Option {
	return func(m *Meta) {
		m.Validated = true
		m.ValidationMethod = method
	}
}

// WithProviderConfidence records the confidence reported by a third party.
// A non-zero provider confidence becomes the base confidence.
func WithProviderConfidence(c float64) Option {
	return func(m *Meta) { m.ProviderConfidence = &c }
}

// NewObservation records a value seen directly at sourceURL.
func (l *Ledger) NewObservation(field string, value any, sourceURL, method string, opts ...Option) (Evidence, error) {
	meta := Meta{
		Confidence:       DefaultObservationConfidence,
		SourceURL:        sourceURL,
		ExtractionMethod: method,
	}
	return l.build(field, value, TypeObservation, meta, opts)
}

// NewInference records a value derived from other evidence by rule.
func (l *Ledger) NewInference(field string, value any, sourceIDs []string, rule string, opts ...Option) (Evidence, error) {
	meta := Meta{
		Confidence:        DefaultInferenceConfidence,
		SourceEvidenceIDs: slices.Clone(sourceIDs),
		InferenceRule:     rule,
	}
	return l.build(field, value, TypeInference, meta, opts)
}

// NewThirdParty records a value returned by an external provider.
func (l *Ledger) NewThirdParty(field string, value any, provider, responseID string, opts ...Option) (Evidence, error) {
	meta := Meta{
		Confidence:   DefaultThirdPartyConfidence,
		ProviderName: provider,
		ResponseID:   responseID,
	}
	return l.build(field, value, TypeThirdParty, meta, opts)
}

func (l *Ledger) build(field string, value any, typ Type, meta Meta, opts []Option) (Evidence, error) {
	for _, opt := range opts {
		opt(&meta)
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = l.now()
	}
	if meta.ProviderConfidence != nil && *meta.ProviderConfidence != 0 {
		meta.Confidence = *meta.ProviderConfidence
	}
	if v, ok := value.([]string); ok {
		value = slices.Clone(v)
	}

	e := Evidence{
		id:    l.newID(),
		field: field,
		value: value,
		typ:   typ,
		meta:  meta,
	}
	if err := Validate(e); err != nil {
		return Evidence{}, eris.Wrapf(err, "evidence: create %s", typ)
	}
	return e, nil
}
