// Package enrich adds optional, evidence-backed attributes to resolved
// entities. Enrichment never creates, rejects or repairs an entity: a
// provider that finds nothing leaves the entity as it was.
package enrich

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/sells-group/glassbox/internal/evidence"
	"github.com/sells-group/glassbox/internal/model"
)

// Input is what a provider may look at: the resolved entity and the text of
// the signal it came from.
type Input struct {
	Entity model.Entity
	Text   string
}

// Inference is a single value proposed by a provider.
type Inference struct {
	Value      string
	Rule       string
	Confidence float64
}

// Provider infers one optional entity field.
type Provider interface {
	// Name identifies the provider in logs and the registry.
	Name() string
	// Field is the evidence field name the provider fills.
	Field() string
	// Infer returns nil when the input does not determine a value.
	Infer(ctx context.Context, in Input) (*Inference, error)
}

// Registry holds providers in registration order.
type Registry struct {
	mu        sync.RWMutex
	order     []string
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds p, replacing any provider with the same name in place.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[p.Name()]; !ok {
		r.order = append(r.order, p.Name())
	}
	r.providers[p.Name()] = p
}

// Get returns a provider by name, or nil if not found.
func (r *Registry) Get(name string) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[name]
}

// List returns the registered provider names in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// DefaultRegistry registers the industry, size and country providers built
// from t.
func DefaultRegistry(t *Tables) *Registry {
	if t == nil {
		t = DefaultTables()
	}
	r := NewRegistry()
	r.Register(NewIndustryProvider(t.Industries))
	r.Register(NewSizeProvider(t.Sizes))
	r.Register(NewCountryProvider(t.Countries))
	return r
}

// Inference rules and confidences of the built-in providers.
const (
	RuleIndustry = "keyword_industry_mapping"
	RuleSize     = "signal_size_heuristics"
	RuleCountry  = "tld_country_mapping"

	IndustryConfidence = 0.70
	SizeConfidence     = 0.65
	CountryConfidence  = 0.80
)

// keywordProvider proposes a label when exactly one label of its table
// matches the signal text.
type keywordProvider struct {
	name       string
	field      string
	rule       string
	confidence float64
	table      keywordTable
}

// NewIndustryProvider infers industry from keywords in the signal text.
func NewIndustryProvider(table map[string][]string) Provider {
	return &keywordProvider{
		name:       "keyword_industry",
		field:      evidence.FieldIndustry,
		rule:       RuleIndustry,
		confidence: IndustryConfidence,
		table:      compileTable(table),
	}
}

// NewSizeProvider infers a company size range from signal wording.
func NewSizeProvider(table map[string][]string) Provider {
	return &keywordProvider{
		name:       "size_heuristics",
		field:      evidence.FieldSizeEstimate,
		rule:       RuleSize,
		confidence: SizeConfidence,
		table:      compileTable(table),
	}
}

func (p *keywordProvider) Name() string  { return p.name }
func (p *keywordProvider) Field() string { return p.field }

func (p *keywordProvider) Infer(_ context.Context, in Input) (*Inference, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, nil
	}
	m := p.table.matches(in.Text)
	if len(m) != 1 {
		return nil, nil
	}
	return &Inference{Value: m[0], Rule: p.rule, Confidence: p.confidence}, nil
}

type countryProvider struct {
	countries map[string]string
}

// NewCountryProvider maps a country-code top-level domain to a country.
// Generic top-level domains never produce a value.
func NewCountryProvider(countries map[string]string) Provider {
	m := make(map[string]string, len(countries))
	for tld, c := range countries {
		m[strings.ToLower(strings.TrimPrefix(tld, "."))] = c
	}
	return &countryProvider{countries: m}
}

func (p *countryProvider) Name() string  { return "tld_country" }
func (p *countryProvider) Field() string { return evidence.FieldCountry }

func (p *countryProvider) Infer(_ context.Context, in Input) (*Inference, error) {
	domain := in.Entity.DomainName()
	i := strings.LastIndexByte(domain, '.')
	if i < 0 {
		return nil, nil
	}
	country, ok := p.countries[domain[i+1:]]
	if !ok {
		return nil, nil
	}
	return &Inference{Value: country, Rule: RuleCountry, Confidence: CountryConfidence}, nil
}
