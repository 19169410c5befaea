package enrich

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/glassbox/internal/evidence"
	"github.com/sells-group/glassbox/internal/model"
)

// Result is the outcome of enriching one entity. Entity is the original
// entity when nothing was added.
type Result struct {
	Entity   model.Entity
	Enriched []string
	Failed   []string
	Skipped  []string
}

// WasEnriched reports whether any field was added.
func (r Result) WasEnriched() bool { return len(r.Enriched) > 0 }

// Executor runs every registered provider against an entity.
type Executor struct {
	registry *Registry
	ledger   *evidence.Ledger
	now      time.Time // zero uses the ledger clock
	log      *zap.Logger
}

// NewExecutor creates an executor that records evidence in ledger.
func NewExecutor(registry *Registry, ledger *evidence.Ledger) *Executor {
	return &Executor{
		registry: registry,
		ledger:   ledger,
		log:      zap.L().With(zap.String("component", "enrich")),
	}
}

// WithNow sets a fixed evidence timestamp for testing.
func (e *Executor) WithNow(t time.Time) *Executor {
	e.now = t
	return e
}

// Enrich asks each provider, in registration order, for its field. Inferred
// evidence is sourced from the entity's domain evidence. Slots that are
// already filled are skipped; providers that fail or find nothing are
// recorded as failed fields. Only context cancellation returns an error.
func (e *Executor) Enrich(ctx context.Context, entity model.Entity, signal *model.Signal) (Result, error) {
	res := Result{Entity: entity}
	in := Input{Entity: entity}
	if signal != nil {
		in.Text = signal.RawText()
	}
	sourceIDs := []string{entity.Domain().ID()}

	for _, name := range e.registry.List() {
		if err := ctx.Err(); err != nil {
			return res, eris.Wrap(err, "enrich: cancelled")
		}
		p := e.registry.Get(name)
		if p == nil {
			continue
		}
		field := p.Field()
		if filled(res.Entity, field) {
			res.Skipped = append(res.Skipped, field)
			continue
		}

		inf, err := p.Infer(ctx, in)
		if err != nil {
			e.log.Warn("enrich: provider error",
				zap.String("provider", name),
				zap.String("domain", entity.DomainName()),
				zap.Error(err),
			)
			res.Failed = append(res.Failed, field)
			continue
		}
		if inf == nil {
			res.Failed = append(res.Failed, field)
			continue
		}

		opts := []evidence.Option{evidence.WithConfidence(inf.Confidence)}
		if !e.now.IsZero() {
			opts = append(opts, evidence.At(e.now))
		}
		ev, err := e.ledger.NewInference(field, inf.Value, sourceIDs, inf.Rule, opts...)
		if err == nil {
			var next model.Entity
			next, err = res.Entity.WithOptional(ev)
			if err == nil {
				res.Entity = next
				res.Enriched = append(res.Enriched, field)
				continue
			}
		}
		e.log.Error("enrich: invariant violation",
			zap.String("provider", name),
			zap.String("field", field),
			zap.Error(err),
		)
		res.Failed = append(res.Failed, field)
	}
	return res, nil
}

func filled(entity model.Entity, field string) bool {
	var ok bool
	switch field {
	case evidence.FieldIndustry:
		_, ok = entity.Industry()
	case evidence.FieldSizeEstimate:
		_, ok = entity.SizeEstimate()
	case evidence.FieldCountry:
		_, ok = entity.Country()
	}
	return ok
}
