package scorer

import (
	"context"
	"slices"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/glassbox/internal/model"
)

// Pair is an entity with its originating signal, if any.
type Pair struct {
	Entity model.Entity
	Signal *model.Signal
}

// Ranked is a scored entity. Breakdown is final once returned.
type Ranked struct {
	Entity    model.Entity  `json:"entity" yaml:"entity"`
	Signal    *model.Signal `json:"signal,omitempty" yaml:"signal,omitempty"`
	Breakdown Breakdown     `json:"breakdown" yaml:"breakdown"`
	ScoredAt  time.Time     `json:"scored_at" yaml:"scored_at"`
}

// Score is the total score.
func (r Ranked) Score() float64 { return r.Breakdown.Total() }

// Tier is the score tier.
func (r Ranked) Tier() Tier { return r.Breakdown.Tier() }

// ScoreLead scores a single entity against its signal at ref.
func ScoreLead(entity model.Entity, signal *model.Signal, ref time.Time) Ranked {
	return Ranked{
		Entity:    entity,
		Signal:    signal,
		Breakdown: ScoreBreakdown(entity, signal, ref),
		ScoredAt:  ref,
	}
}

// Rank scores pairs concurrently and returns them sorted by total score,
// highest first. Equal scores keep their input order.
func Rank(ctx context.Context, pairs []Pair, ref time.Time, concurrency int) ([]Ranked, error) {
	ranked := make([]Ranked, len(pairs))

	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, p := range pairs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ranked[i] = ScoreLead(p.Entity, p.Signal, ref)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "scorer: rank")
	}

	SortRanked(ranked)
	zap.L().Debug("scorer: ranked entities", zap.Int("count", len(ranked)))
	return ranked, nil
}

// SortRanked sorts by total score descending. The sort is stable.
func SortRanked(ranked []Ranked) {
	slices.SortStableFunc(ranked, func(a, b Ranked) int {
		switch sa, sb := a.Score(), b.Score(); {
		case sa > sb:
			return -1
		case sa < sb:
			return 1
		}
		return 0
	})
}
