package enrich

import (
	"regexp"
	"strings"

	"github.com/sells-group/glassbox/internal/evidence"
	"github.com/sells-group/glassbox/internal/model"
	"github.com/sells-group/glassbox/internal/resolve"
)

// Lead detail rules and confidences.
const (
	RuleTechStack       = "tech_keyword_detection"
	TechStackConfidence = 0.75

	MethodContactEmail = "regex_email_extraction"
	ValidationDomain   = "domain_match"
)

// techKeywords are matched as whole words; the value is the display name.
var techKeywords = []struct {
	keyword string
	name    string
}{
	{"python", "Python"},
	{"golang", "Go"},
	{"java", "Java"},
	{"javascript", "JavaScript"},
	{"typescript", "TypeScript"},
	{"react", "React"},
	{"node.js", "Node.js"},
	{"ruby on rails", "Rails"},
	{"django", "Django"},
	{"rust", "Rust"},
	{"kubernetes", "Kubernetes"},
	{"docker", "Docker"},
	{"terraform", "Terraform"},
	{"aws", "AWS"},
	{"gcp", "GCP"},
	{"azure", "Azure"},
	{"postgresql", "PostgreSQL"},
	{"postgres", "PostgreSQL"},
	{"mysql", "MySQL"},
	{"mongodb", "MongoDB"},
	{"redis", "Redis"},
	{"kafka", "Kafka"},
	{"graphql", "GraphQL"},
	{"snowflake", "Snowflake"},
	{"spark", "Spark"},
}

var techPatterns = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(techKeywords))
	for i, t := range techKeywords {
		out[i] = keywordPattern(t.keyword)
	}
	return out
}()

var emailPattern = regexp.MustCompile(`(?i)\b[a-z0-9._%+-]+@([a-z0-9.-]+\.[a-z]{2,})\b`)

// TechStack returns the distinct technologies named in text, in table
// order.
func TechStack(text string) []string {
	lower := strings.ToLower(text)
	var out []string
	seen := make(map[string]bool)
	for i, re := range techPatterns {
		name := techKeywords[i].name
		if seen[name] || !re.MatchString(lower) {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// ContactEmail returns the first address in text whose host is domain or
// one of its subdomains. Personal mail providers never match.
func ContactEmail(text, domain string) (string, bool) {
	domain = strings.ToLower(domain)
	if domain == "" || resolve.IsPersonalDomain(domain) {
		return "", false
	}
	for _, m := range emailPattern.FindAllStringSubmatch(text, -1) {
		host := strings.ToLower(m[1])
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return strings.ToLower(m[0]), true
		}
	}
	return "", false
}

// Detector records the lead details a signal text supports.
type Detector struct {
	ledger *evidence.Ledger
}

// NewDetector creates a detector that records evidence in ledger.
func NewDetector(ledger *evidence.Ledger) *Detector {
	return &Detector{ledger: ledger}
}

// TechStackEvidence infers the tech stack from the signal text. It returns
// a zero Evidence when no technology is named.
func (d *Detector) TechStackEvidence(sig model.Signal, signalEvidenceID string) (evidence.Evidence, error) {
	stack := TechStack(sig.RawText())
	if len(stack) == 0 {
		return evidence.Evidence{}, nil
	}
	return d.ledger.NewInference(evidence.FieldTechStack, stack, []string{signalEvidenceID}, RuleTechStack,
		evidence.WithConfidence(TechStackConfidence), evidence.At(sig.Timestamp()))
}

// ContactEmailEvidence observes a contact address at the entity domain in
// the signal text. A match is validated by domain. It returns a zero
// Evidence when the text lists no such address.
func (d *Detector) ContactEmailEvidence(sig model.Signal, entity model.Entity) (evidence.Evidence, error) {
	addr, ok := ContactEmail(sig.RawText(), entity.DomainName())
	if !ok {
		return evidence.Evidence{}, nil
	}
	return d.ledger.NewObservation(evidence.FieldContactEmail, addr, sig.SourceURL(), MethodContactEmail,
		evidence.At(sig.Timestamp()), evidence.ValidatedBy(ValidationDomain))
}
