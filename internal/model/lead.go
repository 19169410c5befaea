package model

import (
	"cmp"
	"encoding/json"
	"slices"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/glassbox/internal/evidence"
	"github.com/sells-group/glassbox/internal/rejection"
)

// QualificationTier is the sales readiness of a lead, fixed at construction.
type QualificationTier string

const (
	Tier1       QualificationTier = "TIER_1"
	Tier2       QualificationTier = "TIER_2"
	Tier3       QualificationTier = "TIER_3"
	Unqualified QualificationTier = "UNQUALIFIED"
)

// LeadFields are the inputs to NewLead. A zero Evidence is absent.
type LeadFields struct {
	CompanyName  evidence.Evidence
	Domain       evidence.Evidence
	IntentSignal evidence.Evidence
	ContactName  evidence.Evidence
	ContactEmail evidence.Evidence
	TechStack    evidence.Evidence
}

// Lead is a qualified sales lead.
type Lead struct {
	f         LeadFields
	tier      QualificationTier
	createdAt time.Time
}

// NewLead validates f at ref. Required evidence must be present and the
// intent signal must not be stale at ref.
func NewLead(f LeadFields, ref time.Time) (Lead, error) {
	required := []struct {
		name string
		ev   evidence.Evidence
	}{
		{evidence.FieldCompanyName, f.CompanyName},
		{evidence.FieldDomain, f.Domain},
		{evidence.FieldIntentSignal, f.IntentSignal},
	}
	for _, r := range required {
		if r.ev.IsZero() {
			return Lead{}, rejection.Newf(rejection.MissingEvidence, "", "lead requires %s evidence", r.name)
		}
		if err := evidence.CheckSlot(r.name, r.ev); err != nil {
			return Lead{}, eris.Wrap(err, "model: new lead")
		}
	}

	extras := []struct {
		name string
		ev   evidence.Evidence
	}{
		{evidence.FieldContactName, f.ContactName},
		{evidence.FieldContactEmail, f.ContactEmail},
		{evidence.FieldTechStack, f.TechStack},
	}
	for _, o := range extras {
		if o.ev.IsZero() {
			continue
		}
		if err := evidence.CheckSlot(o.name, o.ev); err != nil {
			return Lead{}, eris.Wrap(err, "model: new lead")
		}
	}

	if f.IntentSignal.IsStale(ref) {
		return Lead{}, rejection.Newf(rejection.StaleSignal, "",
			"intent signal is stale (%d days old, confidence %.2f)",
			evidence.AgeDays(f.IntentSignal.Timestamp(), ref), f.IntentSignal.CurrentConfidence(ref))
	}

	return Lead{f: f, tier: qualify(f), createdAt: ref}, nil
}

func qualify(f LeadFields) QualificationTier {
	hasIntent := !f.IntentSignal.IsZero()
	hasTech := !f.TechStack.IsZero()
	validatedEmail := !f.ContactEmail.IsZero() && f.ContactEmail.Validated()

	switch {
	case hasIntent && hasTech && validatedEmail:
		return Tier1
	case hasIntent && hasTech:
		return Tier2
	case hasIntent:
		return Tier3
	}
	return Unqualified
}

func (l Lead) CompanyName() evidence.Evidence  { return l.f.CompanyName }
func (l Lead) Domain() evidence.Evidence       { return l.f.Domain }
func (l Lead) IntentSignal() evidence.Evidence { return l.f.IntentSignal }
func (l Lead) Tier() QualificationTier         { return l.tier }
func (l Lead) CreatedAt() time.Time            { return l.createdAt }

func (l Lead) ContactName() (evidence.Evidence, bool) {
	return l.f.ContactName, !l.f.ContactName.IsZero()
}

func (l Lead) ContactEmail() (evidence.Evidence, bool) {
	return l.f.ContactEmail, !l.f.ContactEmail.IsZero()
}

func (l Lead) TechStack() (evidence.Evidence, bool) {
	return l.f.TechStack, !l.f.TechStack.IsZero()
}

// Evidence returns every present piece of evidence in slot order.
func (l Lead) Evidence() []evidence.Evidence {
	all := []evidence.Evidence{
		l.f.CompanyName, l.f.Domain, l.f.IntentSignal,
		l.f.ContactName, l.f.ContactEmail, l.f.TechStack,
	}
	out := all[:0]
	for _, ev := range all {
		if !ev.IsZero() {
			out = append(out, ev)
		}
	}
	return out
}

// EvidenceIDs returns the ids of Evidence().
func (l Lead) EvidenceIDs() []string {
	evs := l.Evidence()
	ids := make([]string, len(evs))
	for i, ev := range evs {
		ids[i] = ev.ID()
	}
	return ids
}

// SortKey orders leads: newest intent signal first, then higher contact
// email confidence, then company name.
type SortKey struct {
	SignalTime      time.Time
	EmailConfidence float64
	CompanyName     string
}

// LeadSortKey returns the sort key of l. A missing email counts as zero
// confidence.
func LeadSortKey(l Lead) SortKey {
	k := SortKey{
		SignalTime:  l.f.IntentSignal.Timestamp(),
		CompanyName: l.f.CompanyName.Text(),
	}
	if !l.f.ContactEmail.IsZero() {
		k.EmailConfidence = l.f.ContactEmail.Confidence()
	}
	return k
}

// CompareSortKeys orders a before b when a sorts first.
func CompareSortKeys(a, b SortKey) int {
	if c := b.SignalTime.Compare(a.SignalTime); c != 0 {
		return c
	}
	if c := cmp.Compare(b.EmailConfidence, a.EmailConfidence); c != 0 {
		return c
	}
	return cmp.Compare(a.CompanyName, b.CompanyName)
}

// SortLeads sorts leads in place by LeadSortKey. Equal keys keep their
// input order.
func SortLeads(leads []Lead) {
	slices.SortStableFunc(leads, func(a, b Lead) int {
		return CompareSortKeys(LeadSortKey(a), LeadSortKey(b))
	})
}

type leadJSON struct {
	CompanyName  evidence.Evidence  `json:"company_name" yaml:"company_name"`
	Domain       evidence.Evidence  `json:"domain" yaml:"domain"`
	IntentSignal evidence.Evidence  `json:"intent_signal" yaml:"intent_signal"`
	ContactName  *evidence.Evidence `json:"contact_name,omitempty" yaml:"contact_name,omitempty"`
	ContactEmail *evidence.Evidence `json:"contact_email,omitempty" yaml:"contact_email,omitempty"`
	TechStack    *evidence.Evidence `json:"tech_stack,omitempty" yaml:"tech_stack,omitempty"`
	Tier         QualificationTier  `json:"qualification_tier" yaml:"qualification_tier"`
	CreatedAt    time.Time          `json:"created_at" yaml:"created_at"`
}

func (l Lead) view() leadJSON {
	return leadJSON{
		CompanyName:  l.f.CompanyName,
		Domain:       l.f.Domain,
		IntentSignal: l.f.IntentSignal,
		ContactName:  optional(l.f.ContactName),
		ContactEmail: optional(l.f.ContactEmail),
		TechStack:    optional(l.f.TechStack),
		Tier:         l.tier,
		CreatedAt:    l.createdAt,
	}
}

func (l Lead) MarshalJSON() ([]byte, error) { return json.Marshal(l.view()) }

func (l Lead) MarshalYAML() (any, error) { return l.view(), nil }
