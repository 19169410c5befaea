package resolve

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/glassbox/internal/evidence"
	"github.com/sells-group/glassbox/internal/model"
	"github.com/sells-group/glassbox/internal/rejection"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func testResolver() *Resolver {
	n := 0
	return NewResolver(evidence.NewLedger(
		evidence.WithIDFunc(func() string {
			n++
			return fmt.Sprintf("evt_%012d", n)
		}),
		evidence.WithClock(func() time.Time { return testNow }),
	))
}

func testSignal(t *testing.T, url, text string) model.Signal {
	t.Helper()
	s, err := model.NewSignal(model.SignalFields{
		ID:         "sig_test",
		SourceURL:  url,
		RawText:    text,
		Timestamp:  testNow,
		SourceType: "test",
	})
	require.NoError(t, err)
	return s
}

func TestResolve_ExplicitDomain(t *testing.T) {
	t.Parallel()

	sig := testSignal(t, "https://news.example.org/1", "Acme Labs is hiring engineers. Apply at acmelabs.io")
	res, err := testResolver().Resolve(sig, nil)
	require.NoError(t, err)

	e := res.Entity
	assert.Equal(t, "Acme Labs", e.Name())
	assert.Equal(t, "acmelabs.io", e.DomainName())

	name := e.CompanyName()
	assert.Equal(t, evidence.TypeInference, name.Type())
	assert.Equal(t, RuleNameExtraction, name.InferenceRule())
	assert.InDelta(t, NameConfidence, name.Confidence(), 1e-9)
	assert.Equal(t, []string{res.SignalEvidence.ID()}, name.SourceIDs())

	domain := e.Domain()
	assert.Equal(t, RuleExplicitDomain, domain.InferenceRule())
	assert.InDelta(t, ExplicitDomainConfidence, domain.Confidence(), 1e-9)

	assert.Equal(t, evidence.FieldRawSignal, res.SignalEvidence.Field())
	assert.False(t, res.Classified)
}

func TestResolve_JobBoardSlug(t *testing.T) {
	t.Parallel()

	sig := testSignal(t, "https://boards.greenhouse.io/tech-startup/jobs/123", "We're hiring a backend engineer")
	res, err := testResolver().Resolve(sig, nil)
	require.NoError(t, err)

	assert.Equal(t, "Tech Startup", res.Entity.Name())
	assert.Equal(t, "tech-startup.com", res.Entity.DomainName())
	assert.Equal(t, RuleSlugDomain, res.Entity.Domain().InferenceRule())
	assert.InDelta(t, SlugDomainConfidence, res.Entity.Domain().Confidence(), 1e-9)
}

func TestResolve_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		url    string
		text   string
		rule   rejection.Rule
		reason string
	}{
		{
			name:   "no company name",
			url:    "https://news.example.org/1",
			text:   "funding round raised for a stealth effort",
			rule:   rejection.MissingEntity,
			reason: "Could not extract company name from signal",
		},
		{
			name:   "no domain",
			url:    "https://news.example.org/1",
			text:   "Acme is hiring. Email jobs@gmail.com",
			rule:   rejection.MissingEntity,
			reason: "Could not extract or infer company domain from signal",
		},
		{
			name:   "two domains are ambiguous",
			url:    "https://news.example.org/1",
			text:   "Acme is hiring. See acme.io and beta.io",
			rule:   rejection.MissingEntity,
			reason: "Ambiguous entity: Multiple domains in signal text: acme.io, beta.io",
		},
		{
			name:   "many company references",
			url:    "https://news.example.org/1",
			text:   "Join Acme at Beta. Gamma is hiring @ Delta",
			rule:   rejection.MissingEntity,
			reason: "Ambiguous entity: Multiple company references detected in signal",
		},
		{
			name:   "generic name without domain",
			url:    "https://news.example.org/1",
			text:   "Startup is hiring",
			rule:   rejection.MissingEntity,
			reason: "Ambiguous entity: Generic company name 'Startup' without domain",
		},
		{
			name:   "reserved tld",
			url:    "https://news.example.org/1",
			text:   "Acme is hiring, see acme.test",
			rule:   rejection.InvalidDomain,
			reason: "Domain uses reserved/invalid TLD: acme.test",
		},
		{
			name:   "slug is not a hostname",
			url:    "https://jobs.lever.co/acme_corp/abc",
			text:   "We're hiring",
			rule:   rejection.InvalidDomain,
			reason: "Invalid domain format: acme_corp.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := testResolver().Resolve(testSignal(t, tt.url, tt.text), nil)
			require.Error(t, err)
			rerr, ok := rejection.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.rule, rerr.Rule)
			assert.Equal(t, tt.reason, rerr.Reason)
			assert.Equal(t, "sig_test", rerr.SignalID)
		})
	}
}

func TestResolve_Classified(t *testing.T) {
	t.Parallel()

	sig := testSignal(t, "https://news.example.org/1", "anything")
	payload := []byte(`{"company_name":"Acme","domain":"WWW.Acme.io","intent_type":"hiring","confidence":0.92,"industry":"fintech"}`)

	res, err := testResolver().Resolve(sig, payload)
	require.NoError(t, err)
	assert.True(t, res.Classified)
	assert.Equal(t, "acme.io", res.Entity.DomainName())
	assert.Equal(t, evidence.TypeThirdParty, res.Entity.Domain().Type())
	assert.Equal(t, ClassifierProvider, res.Entity.Domain().ProviderName())
	assert.InDelta(t, 0.92, res.Entity.Domain().Confidence(), 1e-9)

	ind, ok := res.Entity.Industry()
	require.True(t, ok)
	assert.Equal(t, "fintech", ind.Text())
}

func TestParseClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
		rule    rejection.Rule
	}{
		{"valid", `{"company_name":"Acme","domain":"acme.io","intent_type":"funding","confidence":0.8}`, ""},
		{"numeric string confidence", `{"company_name":"Acme","domain":"acme.io","intent_type":"funding","confidence":"0.9"}`, ""},
		{"not json", `not json`, rejection.ClassifierFailure},
		{"missing confidence", `{"company_name":"Acme","domain":"acme.io","intent_type":"hiring"}`, rejection.ClassifierFailure},
		{"unknown intent", `{"company_name":"Acme","domain":"acme.io","intent_type":"layoffs","confidence":0.9}`, rejection.ClassifierFailure},
		{"bad confidence", `{"company_name":"Acme","domain":"acme.io","intent_type":"hiring","confidence":"high"}`, rejection.ClassifierFailure},
		{"low confidence", `{"company_name":"Acme","domain":"acme.io","intent_type":"hiring","confidence":0.5}`, rejection.ClassifierFailure},
		{"empty company", `{"company_name":"","domain":"acme.io","intent_type":"hiring","confidence":0.9}`, rejection.MissingEntity},
		{"empty domain", `{"company_name":"Acme","domain":"","intent_type":"hiring","confidence":0.9}`, rejection.MissingEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseClassification([]byte(tt.payload), "sig_1")
			if tt.rule == "" {
				require.NoError(t, err)
				assert.Equal(t, "Acme", c.CompanyName)
				return
			}
			rerr, ok := rejection.As(err)
			require.True(t, ok, "expected rejection, got %v", err)
			assert.Equal(t, tt.rule, rerr.Rule)
			assert.Equal(t, "sig_1", rerr.SignalID)
		})
	}
}

func TestResolve_ClassifiedInvalidDomain(t *testing.T) {
	t.Parallel()

	sig := testSignal(t, "https://news.example.org/1", "anything")
	payload := []byte(`{"company_name":"Acme","domain":"gmail.com","intent_type":"hiring","confidence":0.95}`)

	_, err := testResolver().Resolve(sig, payload)
	rerr, ok := rejection.As(err)
	require.True(t, ok)
	assert.Equal(t, rejection.InvalidDomain, rerr.Rule)
}
