package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/glassbox/internal/rejection"
)

func TestNormalizeDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"Acme.com", "acme.com"},
		{"https://www.acme.com/careers", "acme.com"},
		{"http://acme.io?x=1", "acme.io"},
		{"  acme.io.  ", "acme.io"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeDomain(tt.in), tt.in)
	}
}

func TestRegistrable(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "acme.com", Registrable("careers.acme.com"))
	assert.Equal(t, "acme.co.uk", Registrable("jobs.acme.co.uk"))
	assert.Equal(t, "acme.io", Registrable("acme.io"))
	assert.Equal(t, "localhost", Registrable("localhost"))
}

func TestCandidateDomains(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"url", "Visit https://www.Acme.com/careers today", []string{"acme.com"}},
		{"email", "Send CVs to jobs@acme.io", []string{"acme.io"}},
		{"subdomain collapses", "careers.acme.io and acme.io", []string{"acme.io"}},
		{"excluded domains", "apply via greenhouse.io, bit.ly/x or me@gmail.com", nil},
		{"unknown tld skipped", "built with node.js", nil},
		{"reserved tld kept", "see acme.test", []string{"acme.test"}},
		{"two companies", "acme.io partners with beta.com", []string{"acme.io", "beta.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CandidateDomains(tt.text))
		})
	}
}

func TestJobBoardSlug(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "acme", JobBoardSlug("https://boards.greenhouse.io/acme/jobs/123"))
	assert.Equal(t, "acme-labs", JobBoardSlug("https://jobs.lever.co/acme-labs/uuid"))
	assert.Equal(t, "", JobBoardSlug("https://acme.io/jobs"))
	assert.Equal(t, "", JobBoardSlug("https://boards.greenhouse.io/"))
	assert.Equal(t, "", JobBoardSlug("::not a url"))
}

func TestValidateDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		domain string
		ok     bool
	}{
		{"acme.com", true},
		{"acme.co.uk", true},
		{"acme.ai", true},
		{"", false},
		{"acme", false},
		{"acme..com", false},
		{"-acme.com", false},
		{"acme.test", false},
		{"acme.localhost", false},
		{"acme.zz", false},
		{"gmail.com", false},
		{"bit.ly", false},
		{"linkedin.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.domain, func(t *testing.T) {
			err := ValidateDomain(tt.domain, "sig_1")
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			rerr, ok := rejection.As(err)
			require.True(t, ok)
			assert.Equal(t, rejection.InvalidDomain, rerr.Rule)
		})
	}
}

func TestExtractCompanyName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		url  string
		want string
	}{
		{"at pattern", "Senior engineer role at Acme Labs. Apply now", "", "Acme Labs"},
		{"is hiring pattern", "CloudCo is hiring SREs", "", "CloudCo"},
		{"join pattern", "Join DataWorks as a data engineer", "", "DataWorks"},
		{"slug fallback", "we're hiring", "https://boards.greenhouse.io/acme_corp/jobs/1", "Acme Corp"},
		{"nothing", "we're hiring", "https://acme.io", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractCompanyName(tt.text, tt.url))
		})
	}
}

func TestCheckAmbiguity(t *testing.T) {
	t.Parallel()

	assert.False(t, CheckAmbiguity("Acme is hiring", "Acme", []string{"acme.io"}, false).Ambiguous())
	assert.True(t, CheckAmbiguity("text", "Acme", []string{"a.io", "b.io"}, false).Ambiguous())
	assert.True(t, CheckAmbiguity("Team is hiring", "Team", nil, false).Ambiguous())
	assert.False(t, CheckAmbiguity("Team is hiring", "Team", nil, true).Ambiguous())
}
