// Package resolve turns accepted signals into entities. Every entity field
// is inference or third-party evidence that points back to the signal. When
// the signal does not name exactly one company, resolution rejects it.
package resolve

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/glassbox/internal/evidence"
	"github.com/sells-group/glassbox/internal/model"
	"github.com/sells-group/glassbox/internal/rejection"
)

// Inference rules and confidences recorded on resolved evidence.
const (
	RuleNameExtraction = "regex_extraction_from_signal"
	RuleExplicitDomain = "explicit_domain_extraction"
	RuleSlugDomain     = "domain_inference_from_url_slug"

	NameConfidence           = 0.75
	ExplicitDomainConfidence = 0.85
	SlugDomainConfidence     = 0.60
)

// Resolution is a resolved entity together with the observation evidence
// recorded for its signal.
type Resolution struct {
	Entity         model.Entity
	SignalEvidence evidence.Evidence
	Classified     bool
}

// Resolver resolves signals using a shared evidence ledger.
type Resolver struct {
	ledger *evidence.Ledger
	log    *zap.Logger
}

// NewResolver creates a Resolver that records evidence in ledger.
func NewResolver(ledger *evidence.Ledger) *Resolver {
	return &Resolver{
		ledger: ledger,
		log:    zap.L().With(zap.String("component", "resolve")),
	}
}

// Resolve turns sig into an entity. When classification is non-empty it is
// treated as an upstream classifier payload and validated instead of
// running text extraction. Domain rejections are returned as
// *rejection.Error carrying the signal id.
func (r *Resolver) Resolve(sig model.Signal, classification []byte) (Resolution, error) {
	sigEv, err := sig.ToEvidence(r.ledger)
	if err != nil {
		return Resolution{}, eris.Wrap(err, "resolve: signal evidence")
	}

	var res Resolution
	if len(classification) > 0 {
		res, err = r.resolveClassified(sig, sigEv, classification)
	} else {
		res, err = r.resolveText(sig, sigEv)
	}
	if err != nil {
		if rerr, ok := rejection.As(err); ok {
			if rerr.SignalID == "" {
				rerr.SignalID = sig.ID()
			}
			r.log.Debug("signal not resolved",
				zap.String("signal_id", sig.ID()),
				zap.String("rule", string(rerr.Rule)),
				zap.String("reason", rerr.Reason),
			)
			return Resolution{}, rerr
		}
		return Resolution{}, err
	}
	return res, nil
}

func (r *Resolver) resolveText(sig model.Signal, sigEv evidence.Evidence) (Resolution, error) {
	id := sig.ID()
	text := sig.RawText()

	name := ExtractCompanyName(text, sig.SourceURL())
	if name == "" {
		return Resolution{}, rejection.New(rejection.MissingEntity, "Could not extract company name from signal", id)
	}

	candidates := CandidateDomains(text)
	slug := JobBoardSlug(sig.SourceURL())

	if amb := CheckAmbiguity(text, name, candidates, slug != ""); amb.Ambiguous() {
		return Resolution{}, rejection.Newf(rejection.MissingEntity, id, "Ambiguous entity: %s", amb.Reason)
	}

	var domain, rule string
	var conf float64
	switch {
	case len(candidates) == 1:
		domain, rule, conf = candidates[0], RuleExplicitDomain, ExplicitDomainConfidence
	case slug != "":
		domain, rule, conf = NormalizeDomain(slug)+".com", RuleSlugDomain, SlugDomainConfidence
	default:
		return Resolution{}, rejection.New(rejection.MissingEntity, "Could not extract or infer company domain from signal", id)
	}

	if err := ValidateDomain(domain, id); err != nil {
		return Resolution{}, err
	}

	src := []string{sigEv.ID()}
	nameEv, err := r.ledger.NewInference(evidence.FieldCompanyName, name, src, RuleNameExtraction,
		evidence.WithConfidence(NameConfidence))
	if err != nil {
		return Resolution{}, eris.Wrap(err, "resolve: company name evidence")
	}
	domainEv, err := r.ledger.NewInference(evidence.FieldDomain, domain, src, rule,
		evidence.WithConfidence(conf))
	if err != nil {
		return Resolution{}, eris.Wrap(err, "resolve: domain evidence")
	}

	entity, err := model.NewEntity(model.EntityFields{CompanyName: nameEv, Domain: domainEv})
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{Entity: entity, SignalEvidence: sigEv}, nil
}

func (r *Resolver) resolveClassified(sig model.Signal, sigEv evidence.Evidence, raw []byte) (Resolution, error) {
	c, err := ParseClassification(raw, sig.ID())
	if err != nil {
		return Resolution{}, err
	}

	domain := NormalizeDomain(c.Domain)
	if err := ValidateDomain(domain, sig.ID()); err != nil {
		return Resolution{}, err
	}

	opts := []evidence.Option{evidence.WithProviderConfidence(c.Confidence)}
	nameEv, err := r.ledger.NewThirdParty(evidence.FieldCompanyName, c.CompanyName, ClassifierProvider, sig.ID(), opts...)
	if err != nil {
		return Resolution{}, eris.Wrap(err, "resolve: classified company name")
	}
	domainEv, err := r.ledger.NewThirdParty(evidence.FieldDomain, domain, ClassifierProvider, sig.ID(), opts...)
	if err != nil {
		return Resolution{}, eris.Wrap(err, "resolve: classified domain")
	}

	fields := model.EntityFields{CompanyName: nameEv, Domain: domainEv}
	if c.Industry != "" {
		indEv, err := r.ledger.NewThirdParty(evidence.FieldIndustry, c.Industry, ClassifierProvider, sig.ID(), opts...)
		if err != nil {
			return Resolution{}, eris.Wrap(err, "resolve: classified industry")
		}
		fields.Industry = indEv
	}

	entity, err := model.NewEntity(fields)
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{Entity: entity, SignalEvidence: sigEv, Classified: true}, nil
}
