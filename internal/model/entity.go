package model

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/glassbox/internal/evidence"
	"github.com/sells-group/glassbox/internal/rejection"
)

var (
	// ErrRequiredSlot is returned when enrichment targets a required slot.
	ErrRequiredSlot = eris.New("model: required entity slots cannot be replaced")
	// ErrSlotFilled is returned when an optional slot already holds evidence.
	ErrSlotFilled = eris.New("model: entity slot already filled")
)

// EntityFields are the inputs to NewEntity. A zero Evidence is absent.
type EntityFields struct {
	CompanyName  evidence.Evidence
	Domain       evidence.Evidence
	Industry     evidence.Evidence
	SizeEstimate evidence.Evidence
	Country      evidence.Evidence
}

// Entity is a company identified from a signal. Every field is evidence.
type Entity struct {
	f EntityFields
}

// NewEntity validates f. Missing company name or domain evidence rejects the
// entity; evidence placed into the wrong slot is a schema violation.
func NewEntity(f EntityFields) (Entity, error) {
	if f.CompanyName.IsZero() {
		return Entity{}, rejection.New(rejection.MissingEntity, "company_name evidence is required", "")
	}
	if f.Domain.IsZero() {
		return Entity{}, rejection.New(rejection.MissingEntity, "domain evidence is required", "")
	}

	slots := []struct {
		name string
		ev   evidence.Evidence
	}{
		{evidence.FieldCompanyName, f.CompanyName},
		{evidence.FieldDomain, f.Domain},
		{evidence.FieldIndustry, f.Industry},
		{evidence.FieldSizeEstimate, f.SizeEstimate},
		{evidence.FieldCountry, f.Country},
	}
	for _, s := range slots {
		if s.ev.IsZero() {
			continue
		}
		if err := evidence.CheckSlot(s.name, s.ev); err != nil {
			return Entity{}, eris.Wrap(err, "model: new entity")
		}
	}
	return Entity{f: f}, nil
}

func (e Entity) CompanyName() evidence.Evidence { return e.f.CompanyName }
func (e Entity) Domain() evidence.Evidence      { return e.f.Domain }

// Name returns the company name value.
func (e Entity) Name() string { return e.f.CompanyName.Text() }

// DomainName returns the domain value.
func (e Entity) DomainName() string { return strings.ToLower(e.f.Domain.Text()) }

func (e Entity) Industry() (evidence.Evidence, bool) {
	return e.f.Industry, !e.f.Industry.IsZero()
}

func (e Entity) SizeEstimate() (evidence.Evidence, bool) {
	return e.f.SizeEstimate, !e.f.SizeEstimate.IsZero()
}

func (e Entity) Country() (evidence.Evidence, bool) {
	return e.f.Country, !e.f.Country.IsZero()
}

// Evidence returns every present piece of evidence in slot order.
func (e Entity) Evidence() []evidence.Evidence {
	all := []evidence.Evidence{e.f.CompanyName, e.f.Domain, e.f.Industry, e.f.SizeEstimate, e.f.Country}
	out := all[:0]
	for _, ev := range all {
		if !ev.IsZero() {
			out = append(out, ev)
		}
	}
	return out
}

// EvidenceIDs returns the ids of Evidence().
func (e Entity) EvidenceIDs() []string {
	evs := e.Evidence()
	ids := make([]string, len(evs))
	for i, ev := range evs {
		ids[i] = ev.ID()
	}
	return ids
}

// WithOptional returns a copy of e with ev placed in the optional slot named
// by its field. Required slots and filled slots are never replaced.
func (e Entity) WithOptional(ev evidence.Evidence) (Entity, error) {
	if ev.IsZero() {
		return e, eris.Wrap(evidence.Validate(ev), "model: with optional")
	}

	var slot *evidence.Evidence
	switch ev.Field() {
	case evidence.FieldCompanyName, evidence.FieldDomain:
		return e, eris.Wrapf(ErrRequiredSlot, "model: with optional %s", ev.Field())
	case evidence.FieldIndustry:
		slot = &e.f.Industry
	case evidence.FieldSizeEstimate:
		slot = &e.f.SizeEstimate
	case evidence.FieldCountry:
		slot = &e.f.Country
	default:
		return e, eris.Wrap(&evidence.SchemaError{Slot: "optional entity slot", Got: ev.Field()}, "model: with optional")
	}
	if !slot.IsZero() {
		return e, eris.Wrapf(ErrSlotFilled, "model: with optional %s", ev.Field())
	}
	*slot = ev
	return e, nil
}

type entityJSON struct {
	CompanyName  evidence.Evidence  `json:"company_name" yaml:"company_name"`
	Domain       evidence.Evidence  `json:"domain" yaml:"domain"`
	Industry     *evidence.Evidence `json:"industry,omitempty" yaml:"industry,omitempty"`
	SizeEstimate *evidence.Evidence `json:"size_estimate,omitempty" yaml:"size_estimate,omitempty"`
	Country      *evidence.Evidence `json:"country,omitempty" yaml:"country,omitempty"`
}

func optional(ev evidence.Evidence) *evidence.Evidence {
	if ev.IsZero() {
		return nil
	}
	return &ev
}

func (e Entity) view() entityJSON {
	return entityJSON{
		CompanyName:  e.f.CompanyName,
		Domain:       e.f.Domain,
		Industry:     optional(e.f.Industry),
		SizeEstimate: optional(e.f.SizeEstimate),
		Country:      optional(e.f.Country),
	}
}

func (e Entity) MarshalJSON() ([]byte, error) { return json.Marshal(e.view()) }

func (e Entity) MarshalYAML() (any, error) { return e.view(), nil }
