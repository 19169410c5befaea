package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/glassbox/internal/evidence"
	"github.com/sells-group/glassbox/internal/rejection"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func testLedger() *evidence.Ledger {
	n := 0
	return evidence.NewLedger(
		evidence.WithIDFunc(func() string {
			n++
			return fmt.Sprintf("evt_%012d", n)
		}),
		evidence.WithClock(func() time.Time { return testNow }),
	)
}

func mustObs(t *testing.T, l *evidence.Ledger, field string, value any, opts ...evidence.Option) evidence.Evidence {
	t.Helper()
	e, err := l.NewObservation(field, value, "https://acme.io/jobs", "test", opts...)
	require.NoError(t, err)
	return e
}

func mustInf(t *testing.T, l *evidence.Ledger, field string, value any, opts ...evidence.Option) evidence.Evidence {
	t.Helper()
	e, err := l.NewInference(field, value, []string{"evt_src"}, "test_rule", opts...)
	require.NoError(t, err)
	return e
}

func requireRule(t *testing.T, err error, rule rejection.Rule) {
	t.Helper()
	require.Error(t, err)
	rerr, ok := rejection.As(err)
	require.True(t, ok, "expected rejection, got %v", err)
	assert.Equal(t, rule, rerr.Rule)
}

func TestNewSignal(t *testing.T) {
	t.Parallel()

	valid := SignalFields{
		ID:         "sig_abc",
		SourceURL:  "https://acme.io/jobs",
		RawText:    "Acme is hiring",
		Timestamp:  testNow,
		SourceType: "rss_acme.io",
		DedupHash:  "h",
	}

	s, err := NewSignal(valid)
	require.NoError(t, err)
	assert.Equal(t, "sig_abc", s.ID())
	assert.Equal(t, "Acme is hiring", s.RawText())
	assert.Equal(t, testNow, s.Timestamp())

	tests := []struct {
		name   string
		mutate func(*SignalFields)
		rule   rejection.Rule
	}{
		{"missing id", func(f *SignalFields) { f.ID = "" }, rejection.MissingEvidence},
		{"missing url", func(f *SignalFields) { f.SourceURL = "" }, rejection.MissingEvidence},
		{"missing timestamp", func(f *SignalFields) { f.Timestamp = time.Time{} }, rejection.MissingEvidence},
		{"empty text", func(f *SignalFields) { f.RawText = "" }, rejection.NoIntentSignal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid
			tt.mutate(&f)
			_, err := NewSignal(f)
			requireRule(t, err, tt.rule)
		})
	}
}

func TestSignal_ToEvidence(t *testing.T) {
	t.Parallel()

	s, err := NewSignal(SignalFields{
		ID: "sig_1", SourceURL: "https://acme.io/jobs", RawText: "hiring",
		Timestamp: testNow.Add(-time.Hour), SourceType: "rss_acme.io",
	})
	require.NoError(t, err)

	ev, err := s.ToEvidence(testLedger())
	require.NoError(t, err)
	assert.Equal(t, evidence.FieldRawSignal, ev.Field())
	assert.Equal(t, evidence.TypeObservation, ev.Type())
	assert.Equal(t, "signal_ingestion_rss_acme.io", ev.Meta().ExtractionMethod)
	assert.Equal(t, testNow.Add(-time.Hour), ev.Timestamp())
}

func TestNewEntity(t *testing.T) {
	t.Parallel()

	l := testLedger()
	name := mustInf(t, l, evidence.FieldCompanyName, "Acme")
	domain := mustInf(t, l, evidence.FieldDomain, "acme.io")
	industry := mustInf(t, l, evidence.FieldIndustry, "technology")

	t.Run("valid", func(t *testing.T) {
		e, err := NewEntity(EntityFields{CompanyName: name, Domain: domain, Industry: industry})
		require.NoError(t, err)
		assert.Equal(t, "Acme", e.Name())
		assert.Equal(t, "acme.io", e.DomainName())
		_, ok := e.Industry()
		assert.True(t, ok)
		_, ok = e.SizeEstimate()
		assert.False(t, ok)
		assert.Equal(t, []string{name.ID(), domain.ID(), industry.ID()}, e.EvidenceIDs())
	})

	t.Run("missing company", func(t *testing.T) {
		_, err := NewEntity(EntityFields{Domain: domain})
		requireRule(t, err, rejection.MissingEntity)
	})

	t.Run("missing domain", func(t *testing.T) {
		_, err := NewEntity(EntityFields{CompanyName: name})
		requireRule(t, err, rejection.MissingEntity)
	})

	t.Run("slot mismatch", func(t *testing.T) {
		_, err := NewEntity(EntityFields{CompanyName: domain, Domain: domain})
		require.Error(t, err)
		assert.True(t, errors.Is(err, evidence.ErrSchemaMismatch))
		assert.Equal(t, rejection.ClassViolation, rejection.Classify(err))
	})
}

func TestEntity_WithOptional(t *testing.T) {
	t.Parallel()

	l := testLedger()
	name := mustInf(t, l, evidence.FieldCompanyName, "Acme")
	domain := mustInf(t, l, evidence.FieldDomain, "acme.io")
	base, err := NewEntity(EntityFields{CompanyName: name, Domain: domain})
	require.NoError(t, err)

	industry := mustInf(t, l, evidence.FieldIndustry, "fintech")
	enriched, err := base.WithOptional(industry)
	require.NoError(t, err)

	_, ok := base.Industry()
	assert.False(t, ok, "original entity must not change")
	got, ok := enriched.Industry()
	require.True(t, ok)
	assert.Equal(t, industry.ID(), got.ID())

	t.Run("filled slot is kept", func(t *testing.T) {
		other := mustInf(t, l, evidence.FieldIndustry, "healthcare")
		same, err := enriched.WithOptional(other)
		require.ErrorIs(t, err, ErrSlotFilled)
		got, _ := same.Industry()
		assert.Equal(t, "fintech", got.Text())
	})

	t.Run("required slot refused", func(t *testing.T) {
		other := mustInf(t, l, evidence.FieldDomain, "evil.io")
		same, err := enriched.WithOptional(other)
		require.ErrorIs(t, err, ErrRequiredSlot)
		assert.Equal(t, "acme.io", same.DomainName())
	})

	t.Run("unknown field is a schema error", func(t *testing.T) {
		other := mustInf(t, l, evidence.FieldTechStack, "go")
		_, err := enriched.WithOptional(other)
		require.Error(t, err)
		assert.True(t, errors.Is(err, evidence.ErrSchemaMismatch))
	})

	t.Run("country slot", func(t *testing.T) {
		country := mustInf(t, l, evidence.FieldCountry, "Germany")
		e, err := enriched.WithOptional(country)
		require.NoError(t, err)
		assert.Len(t, e.Evidence(), 4)
	})
}

func leadFields(t *testing.T, l *evidence.Ledger, intentAge time.Duration) LeadFields {
	t.Helper()
	return LeadFields{
		CompanyName:  mustInf(t, l, evidence.FieldCompanyName, "Acme"),
		Domain:       mustInf(t, l, evidence.FieldDomain, "acme.io"),
		IntentSignal: mustObs(t, l, evidence.FieldIntentSignal, "hiring", evidence.At(testNow.Add(-intentAge))),
	}
}

func TestNewLead_Tiers(t *testing.T) {
	t.Parallel()

	l := testLedger()
	tech := mustInf(t, l, evidence.FieldTechStack, []string{"go"})
	email := mustObs(t, l, evidence.FieldContactEmail, "jobs@acme.io")
	validated := mustObs(t, l, evidence.FieldContactEmail, "jane@acme.io", evidence.ValidatedBy("domain_match"))

	tests := []struct {
		name   string
		mutate func(*LeadFields)
		want   QualificationTier
	}{
		{"intent only", func(*LeadFields) {}, Tier3},
		{"intent and tech", func(f *LeadFields) { f.TechStack = tech }, Tier2},
		{"unvalidated email", func(f *LeadFields) { f.TechStack = tech; f.ContactEmail = email }, Tier2},
		{"validated email", func(f *LeadFields) { f.TechStack = tech; f.ContactEmail = validated }, Tier1},
		{"validated email without tech", func(f *LeadFields) { f.ContactEmail = validated }, Tier3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := leadFields(t, l, 0)
			tt.mutate(&f)
			lead, err := NewLead(f, testNow)
			require.NoError(t, err)
			assert.Equal(t, tt.want, lead.Tier())
			assert.Equal(t, testNow, lead.CreatedAt())
		})
	}
}

func TestNewLead_Rejections(t *testing.T) {
	t.Parallel()

	l := testLedger()

	t.Run("stale intent", func(t *testing.T) {
		f := leadFields(t, l, 35*24*time.Hour)
		f.TechStack = mustInf(t, l, evidence.FieldTechStack, "go")
		_, err := NewLead(f, testNow)
		requireRule(t, err, rejection.StaleSignal)
	})

	t.Run("missing intent", func(t *testing.T) {
		f := leadFields(t, l, 0)
		f.IntentSignal = evidence.Evidence{}
		_, err := NewLead(f, testNow)
		requireRule(t, err, rejection.MissingEvidence)
	})

	t.Run("missing domain", func(t *testing.T) {
		f := leadFields(t, l, 0)
		f.Domain = evidence.Evidence{}
		_, err := NewLead(f, testNow)
		requireRule(t, err, rejection.MissingEvidence)
	})

	t.Run("wrong optional slot", func(t *testing.T) {
		f := leadFields(t, l, 0)
		f.TechStack = mustInf(t, l, evidence.FieldIndustry, "fintech")
		_, err := NewLead(f, testNow)
		require.Error(t, err)
		assert.True(t, errors.Is(err, evidence.ErrSchemaMismatch))
	})
}

func TestSortLeads(t *testing.T) {
	t.Parallel()

	l := testLedger()
	mk := func(name string, age time.Duration, emailConf float64) Lead {
		f := LeadFields{
			CompanyName:  mustInf(t, l, evidence.FieldCompanyName, name),
			Domain:       mustInf(t, l, evidence.FieldDomain, "x.io"),
			IntentSignal: mustObs(t, l, evidence.FieldIntentSignal, "hiring", evidence.At(testNow.Add(-age))),
		}
		if emailConf > 0 {
			f.ContactEmail = mustObs(t, l, evidence.FieldContactEmail, "a@x.io", evidence.WithConfidence(emailConf))
		}
		lead, err := NewLead(f, testNow)
		require.NoError(t, err)
		return lead
	}

	leads := []Lead{
		mk("Zeta", 48*time.Hour, 0),
		mk("Beta", time.Hour, 0.5),
		mk("Alpha", time.Hour, 0.5),
		mk("Gamma", time.Hour, 0.9),
	}
	SortLeads(leads)

	var names []string
	for _, lead := range leads {
		names = append(names, lead.CompanyName().Text())
	}
	assert.Equal(t, []string{"Gamma", "Alpha", "Beta", "Zeta"}, names)
}

func TestLead_MarshalJSON(t *testing.T) {
	t.Parallel()

	l := testLedger()
	lead, err := NewLead(leadFields(t, l, 0), testNow)
	require.NoError(t, err)

	data, err := json.Marshal(lead)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"qualification_tier":"TIER_3"`)
	assert.NotContains(t, string(data), "tech_stack")
}
