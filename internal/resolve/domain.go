package resolve

import (
	"net/url"
	"regexp"
	"slices"
	"strings"

	"github.com/sells-group/glassbox/internal/rejection"
)

var personalDomains = set(
	"gmail.com", "yahoo.com", "hotmail.com", "outlook.com",
	"aol.com", "icloud.com", "mail.com", "protonmail.com",
	"live.com", "msn.com", "ymail.com", "googlemail.com",
)

var shortenerDomains = set(
	"bit.ly", "tinyurl.com", "t.co", "goo.gl", "ow.ly",
	"is.gd", "buff.ly", "rebrand.ly", "short.io",
)

var jobBoardDomains = set(
	"greenhouse.io", "lever.co", "workday.com", "jobvite.com",
	"icims.com", "smartrecruiters.com", "bamboohr.com",
	"indeed.com", "linkedin.com", "glassdoor.com",
)

var validTLDs = set(
	"com", "org", "net", "io", "co", "ai", "app", "dev",
	"tech", "xyz", "info", "biz", "me", "us", "uk", "de",
	"fr", "ca", "au", "in", "jp", "cn", "eu", "edu", "gov",
	"ly",
)

var reservedTLDs = set("test", "invalid", "localhost", "example", "local")

// secondLevel labels that sit under a country code, as in acme.co.uk.
var secondLevel = set("co", "com", "org", "net", "ac", "gov")

var domainPattern = regexp.MustCompile(`\b([a-z0-9][a-z0-9.-]*\.[a-z]{2,10})\b`)

var labelPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

func set(items ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, it := range items {
		m[it] = struct{}{}
	}
	return m
}

func in(m map[string]struct{}, s string) bool {
	_, ok := m[s]
	return ok
}

// NormalizeDomain lowercases d and strips scheme, path, trailing dots and
// a leading "www.".
func NormalizeDomain(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	d = strings.TrimRight(d, ".")
	return strings.TrimPrefix(d, "www.")
}

// Registrable reduces a host to its registrable domain: the last two labels,
// or three when the second-to-last is a second-level label under a country
// code.
func Registrable(host string) string {
	labels := strings.Split(NormalizeDomain(host), ".")
	n := len(labels)
	if n < 2 {
		return strings.Join(labels, ".")
	}
	if n >= 3 && len(labels[n-1]) == 2 && in(secondLevel, labels[n-2]) {
		return strings.Join(labels[n-3:], ".")
	}
	return strings.Join(labels[n-2:], ".")
}

// TLD returns the last label of d.
func TLD(d string) string {
	if i := strings.LastIndexByte(d, '.'); i >= 0 {
		return d[i+1:]
	}
	return d
}

func excluded(d string) bool {
	return in(personalDomains, d) || in(shortenerDomains, d) || in(jobBoardDomains, d)
}

// CandidateDomains returns the distinct registrable company domains named
// in text, in order of first appearance. Personal mail, shortener and job
// board domains are skipped, as are tokens whose last label is not a known
// top-level domain (file names such as "node.js").
func CandidateDomains(text string) []string {
	var out []string
	for _, m := range domainPattern.FindAllStringSubmatch(strings.ToLower(text), -1) {
		d := NormalizeDomain(m[1])
		if excluded(d) {
			continue
		}
		reg := Registrable(d)
		if excluded(reg) {
			continue
		}
		tld := TLD(reg)
		if !in(validTLDs, tld) && !in(reservedTLDs, tld) {
			continue
		}
		if !slices.Contains(out, reg) {
			out = append(out, reg)
		}
	}
	return out
}

// JobBoardSlug returns the company slug from a Greenhouse or Lever posting
// url, e.g. "acme" from boards.greenhouse.io/acme/jobs/1.
func JobBoardSlug(sourceURL string) string {
	u, err := url.Parse(sourceURL)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if !strings.Contains(host, "greenhouse.io") && !strings.Contains(host, "lever.co") {
		return ""
	}
	path := strings.Trim(u.Path, "/")
	if path == "" {
		return ""
	}
	slug, _, _ := strings.Cut(path, "/")
	return slug
}

// ValidateDomain rejects domains that cannot identify a company.
func ValidateDomain(domain, signalID string) error {
	d := NormalizeDomain(domain)
	if d == "" {
		return rejection.New(rejection.InvalidDomain, "Domain is empty", signalID)
	}
	if !strings.Contains(d, ".") {
		return rejection.Newf(rejection.InvalidDomain, signalID, "Invalid domain format: %s", d)
	}
	for _, label := range strings.Split(d, ".") {
		if !labelPattern.MatchString(label) {
			return rejection.Newf(rejection.InvalidDomain, signalID, "Invalid domain format: %s", d)
		}
	}

	tld := TLD(d)
	switch {
	case in(reservedTLDs, tld):
		return rejection.Newf(rejection.InvalidDomain, signalID, "Domain uses reserved/invalid TLD: %s", d)
	case !in(validTLDs, tld):
		return rejection.Newf(rejection.InvalidDomain, signalID, "Domain TLD not in allowed list: %s", d)
	case in(personalDomains, d):
		return rejection.Newf(rejection.InvalidDomain, signalID, "Personal email domain not allowed: %s", d)
	case in(shortenerDomains, d):
		return rejection.Newf(rejection.InvalidDomain, signalID, "URL shortener domain not resolvable: %s", d)
	case in(jobBoardDomains, d):
		return rejection.Newf(rejection.InvalidDomain, signalID, "Job board domain is signal source, not company: %s", d)
	}
	return nil
}

// IsPersonalDomain reports whether d is a consumer mail provider.
func IsPersonalDomain(d string) bool {
	return in(personalDomains, NormalizeDomain(d))
}
