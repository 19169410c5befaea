// Package pipeline runs candidate signals through gating, resolution,
// enrichment, lead construction and ranking, and collects every rejection
// on the way.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/glassbox/internal/enrich"
	"github.com/sells-group/glassbox/internal/evidence"
	"github.com/sells-group/glassbox/internal/gate"
	"github.com/sells-group/glassbox/internal/ingest"
	"github.com/sells-group/glassbox/internal/intent"
	"github.com/sells-group/glassbox/internal/model"
	"github.com/sells-group/glassbox/internal/rejection"
	"github.com/sells-group/glassbox/internal/resolve"
)

// MethodIntentClassification is the extraction method of intent_signal
// evidence.
const MethodIntentClassification = "intent_keyword_classification"

// Config tunes a pipeline run.
type Config struct {
	Concurrency int
	Scope       enrich.Scope
}

// Pipeline turns candidates into ranked leads.
type Pipeline struct {
	cfg      Config
	now      func() time.Time
	ledger   *evidence.Ledger
	registry *enrich.Registry
	log      *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock sets the clock that stamps each run.
func WithClock(fn func() time.Time) Option {
	return func(p *Pipeline) { p.now = fn }
}

// WithLedger sets the evidence ledger.
func WithLedger(l *evidence.Ledger) Option {
	return func(p *Pipeline) { p.ledger = l }
}

// WithRegistry sets the enrichment providers.
func WithRegistry(r *enrich.Registry) Option {
	return func(p *Pipeline) { p.registry = r }
}

// New creates a Pipeline.
func New(cfg Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg: cfg,
		now: time.Now,
		log: zap.L().With(zap.String("component", "pipeline")),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.ledger == nil {
		p.ledger = evidence.NewLedger(evidence.WithClock(p.now))
	}
	if p.registry == nil {
		p.registry = enrich.DefaultRegistry(nil)
	}
	return p
}

// pending is an accepted signal waiting for ranking.
type pending struct {
	signal     model.Signal
	intent     intent.Type
	lead       model.Lead
	evidence   []evidence.Evidence
	enrichment enrich.Result
}

// run holds the state of one Run call.
type run struct {
	*Pipeline
	now        time.Time
	rejections *rejection.Log
	stats      Stats
}

// Run processes candidates. Per-item rejections and invariant violations
// never abort the batch; only context cancellation returns an error.
func (p *Pipeline) Run(ctx context.Context, candidates []gate.Candidate) (*Result, error) {
	r := &run{
		Pipeline:   p,
		now:        p.now().UTC(),
		rejections: rejection.NewLog(),
	}
	r.stats.Candidates = len(candidates)
	p.log.Info("pipeline: starting run", zap.Int("candidates", len(candidates)))

	engine := gate.New(gate.WithClock(func() time.Time { return r.now }))
	gated, err := engine.GateAll(ctx, candidates, p.cfg.Concurrency)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: gate")
	}

	resolver := resolve.NewResolver(p.ledger)
	enricher := enrich.NewExecutor(p.registry, p.ledger).WithNow(r.now)
	detector := enrich.NewDetector(p.ledger)
	seen := ingest.NewSeen()

	var accepted []pending
	for i, g := range gated {
		if rej, ok := g.Rejected(); ok {
			r.rejections.Append(rej)
			r.stats.GateRejected++
			continue
		}
		sig, typ, _ := g.Accepted()
		if !seen.Add(sig.DedupHash()) {
			r.stats.Duplicates++
			p.log.Debug("pipeline: duplicate signal skipped", zap.String("signal_id", sig.ID()))
			continue
		}
		r.stats.Accepted++

		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "pipeline: cancelled")
		}
		item, ok, err := r.process(ctx, resolver, enricher, detector, sig, typ, candidates[i].Classification)
		if err != nil {
			return nil, err
		}
		if ok {
			accepted = append(accepted, item)
		}
	}

	leads, err := r.rank(ctx, accepted)
	if err != nil {
		return nil, err
	}
	r.stats.Leads = len(leads)
	r.stats.Rejected = r.rejections.Len()

	res := &Result{
		RunAt:      r.now,
		Leads:      leads,
		Rejections: r.rejections.All(),
		Stats:      r.stats,
	}
	p.log.Info("pipeline: run complete",
		zap.Int("candidates", r.stats.Candidates),
		zap.Int("leads", r.stats.Leads),
		zap.Int("rejected", r.stats.Rejected),
		zap.Int("duplicates", r.stats.Duplicates),
		zap.Int("violations", r.stats.Violations),
	)
	return res, nil
}

// process resolves, enriches and scopes one accepted signal and builds its
// lead. It reports false when the signal was rejected or hit a violation;
// the error is only set when ctx is done.
func (r *run) process(
	ctx context.Context,
	resolver *resolve.Resolver,
	enricher *enrich.Executor,
	detector *enrich.Detector,
	sig model.Signal,
	typ intent.Type,
	classification []byte,
) (pending, bool, error) {
	res, err := resolver.Resolve(sig, classification)
	if err != nil {
		r.fail(sig, "resolve", err)
		return pending{}, false, nil
	}
	r.stats.Resolved++

	enr, err := enricher.Enrich(ctx, res.Entity, &sig)
	if err != nil {
		return pending{}, false, eris.Wrap(err, "pipeline: enrich")
	}
	if enr.WasEnriched() {
		r.stats.Enriched++
	}
	entity := enr.Entity

	if err := r.cfg.Scope.Check(entity, sig.ID()); err != nil {
		r.fail(sig, "scope", err)
		return pending{}, false, nil
	}

	intentEv, err := r.ledger.NewObservation(evidence.FieldIntentSignal, sig.RawText(), sig.SourceURL(),
		MethodIntentClassification, evidence.At(sig.Timestamp()))
	if err != nil {
		r.fail(sig, "intent evidence", err)
		return pending{}, false, nil
	}
	tech, err := detector.TechStackEvidence(sig, res.SignalEvidence.ID())
	if err != nil {
		r.fail(sig, "tech stack evidence", err)
		return pending{}, false, nil
	}
	email, err := detector.ContactEmailEvidence(sig, entity)
	if err != nil {
		r.fail(sig, "contact email evidence", err)
		return pending{}, false, nil
	}

	lead, err := model.NewLead(model.LeadFields{
		CompanyName:  entity.CompanyName(),
		Domain:       entity.Domain(),
		IntentSignal: intentEv,
		ContactEmail: email,
		TechStack:    tech,
	}, r.now)
	if err != nil {
		r.fail(sig, "lead", err)
		return pending{}, false, nil
	}

	all := append([]evidence.Evidence{res.SignalEvidence}, entity.Evidence()...)
	for _, ev := range lead.Evidence() {
		if ev.ID() != entity.CompanyName().ID() && ev.ID() != entity.Domain().ID() {
			all = append(all, ev)
		}
	}

	return pending{
		signal:     sig,
		intent:     typ,
		lead:       lead,
		evidence:   all,
		enrichment: enr,
	}, true, nil
}

// fail records err for sig: rejections join the log, anything else is an
// invariant violation that is logged and counted.
func (r *run) fail(sig model.Signal, stage string, err error) {
	switch rejection.Classify(err) {
	case rejection.ClassRejection:
		rerr, _ := rejection.As(err)
		if rerr.SignalID == "" {
			rerr.SignalID = sig.ID()
		}
		r.rejections.Append(rejection.FromError(gate.RejectionID(rerr.SignalID, rerr.Rule), rerr, sig.RawText(), r.now))
		r.log.Debug("pipeline: signal rejected",
			zap.String("stage", stage),
			zap.String("signal_id", sig.ID()),
			zap.String("rule", string(rerr.Rule)),
		)
	default:
		r.stats.Violations++
		r.log.Error("pipeline: invariant violation",
			zap.String("stage", stage),
			zap.String("signal_id", sig.ID()),
			zap.Error(err),
		)
	}
}
