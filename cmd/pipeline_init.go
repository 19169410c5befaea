package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/glassbox/internal/enrich"
	"github.com/sells-group/glassbox/internal/evidence"
	"github.com/sells-group/glassbox/internal/gate"
	"github.com/sells-group/glassbox/internal/ingest"
	"github.com/sells-group/glassbox/internal/monitoring"
	"github.com/sells-group/glassbox/internal/pipeline"
)

// pipelineEnv holds everything the run/serve/watch commands need to process
// a feed.
type pipelineEnv struct {
	Registry *enrich.Registry
	Checker  *monitoring.Checker
	Session  *pipeline.Session
	Feed     string
	Format   ingest.Format
	Sample   bool

	now func() time.Time
}

// initPipeline validates config for mode, loads the keyword tables and
// resolves which feed to read. Without a feed, run and serve fall back to
// the built-in sample.
func initPipeline(mode string) (*pipelineEnv, error) {
	if feedPath != "" {
		cfg.Ingest.FeedPath = feedPath
	}
	if feedFormat != "" {
		cfg.Ingest.Format = feedFormat
	}
	sample := useSample || (cfg.Ingest.FeedPath == "" && mode != "watch")
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	format, err := ingest.ParseFormat(cfg.Ingest.Format)
	if err != nil {
		return nil, eris.Wrap(err, "parse ingest format")
	}

	var tables *enrich.Tables
	if cfg.Enrich.KeywordsFile != "" {
		tables, err = enrich.LoadTables(cfg.Enrich.KeywordsFile)
		if err != nil {
			return nil, err
		}
	}

	return &pipelineEnv{
		Registry: enrich.DefaultRegistry(tables),
		Checker:  monitoring.NewChecker(monitoring.NewAlerter(monitoring.Thresholds{MinAcceptanceRate: cfg.Monitoring.MinAcceptanceRate})),
		Session:  pipeline.NewSession(),
		Feed:     cfg.Ingest.FeedPath,
		Format:   format,
		Sample:   sample,
		now:      time.Now,
	}, nil
}

// sequentialIDs numbers evidence within one run so that ids are stable
// across invocations over the same feed.
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%06d", evidence.IDPrefix, n)
	}
}

// candidates loads the configured feed.
func (pe *pipelineEnv) candidates(ctx context.Context, now time.Time) ([]gate.Candidate, error) {
	if pe.Sample {
		return ingest.SampleCandidates(ctx, now)
	}
	loader := ingest.NewLoader(
		ingest.WithClock(func() time.Time { return now }),
		ingest.WithFeedURL(cfg.Ingest.FeedURL),
	)
	return loader.Load(ctx, pe.Feed, pe.Format)
}

// Run processes the feed once, stores the result in the session and checks
// it for alerts.
func (pe *pipelineEnv) Run(ctx context.Context) (*pipeline.Result, error) {
	now := pe.now().UTC()
	cands, err := pe.candidates(ctx, now)
	if err != nil {
		return nil, eris.Wrap(err, "load candidates")
	}

	clock := func() time.Time { return now }
	p := pipeline.New(
		pipeline.Config{
			Concurrency: cfg.Batch.Concurrency,
			Scope: enrich.Scope{
				TargetIndustries: cfg.Scope.TargetIndustries,
				AllowedSizes:     cfg.Scope.AllowedSizes,
			},
		},
		pipeline.WithClock(clock),
		pipeline.WithRegistry(pe.Registry),
		pipeline.WithLedger(evidence.NewLedger(evidence.WithClock(clock), evidence.WithIDFunc(sequentialIDs()))),
	)

	res, err := p.Run(ctx, cands)
	if err != nil {
		return nil, eris.Wrap(err, "run pipeline")
	}
	pe.Session.Store(res)
	pe.Checker.Check(res)

	zap.L().Debug("feed processed",
		zap.String("feed", pe.describeFeed()),
		zap.Int("leads", len(res.Leads)),
	)
	return res, nil
}

func (pe *pipelineEnv) describeFeed() string {
	if pe.Sample {
		return ingest.SampleFeedURL
	}
	return pe.Feed
}
