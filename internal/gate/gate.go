// Package gate admits raw business text as signals. Each candidate passes
// an ordered, short-circuiting series of checks: freshness, then intent.
package gate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/glassbox/internal/intent"
	"github.com/sells-group/glassbox/internal/model"
	"github.com/sells-group/glassbox/internal/rejection"
)

// MaxSignalAgeDays is the freshness window for admitted signals.
const MaxSignalAgeDays = 30

const (
	maxSignalAge = MaxSignalAgeDays * 24 * time.Hour
	dedupTextLen = 500
	idHexLen     = 12
	signalPrefix = "sig_"
	rejectPrefix = "rej_"
)

// Candidate is a raw tuple from an ingestion source.
type Candidate struct {
	SourceURL  string    `json:"source_url" yaml:"source_url"`
	RawText    string    `json:"raw_text" yaml:"raw_text"`
	Timestamp  time.Time `json:"timestamp" yaml:"timestamp"`
	SourceType string    `json:"source_type" yaml:"source_type"`

	// Classification is an optional upstream classifier payload carried
	// through to entity resolution untouched.
	Classification []byte `json:"-" yaml:"-"`
}

// Result is the tagged outcome of gating one candidate: either an accepted
// signal with its intent, or a rejection.
type Result struct {
	signal    model.Signal
	intent    intent.Type
	keyword   string
	rejection rejection.Rejection
	accepted  bool
}

// Accepted returns the admitted signal and its intent when the candidate
// passed the gate.
func (r Result) Accepted() (model.Signal, intent.Type, bool) {
	return r.signal, r.intent, r.accepted
}

// Rejected returns the rejection record when the candidate failed the gate.
func (r Result) Rejected() (rejection.Rejection, bool) {
	return r.rejection, !r.accepted
}

// Keyword is the intent keyword that admitted the signal.
func (r Result) Keyword() string { return r.keyword }

// Engine runs the gating checks against its clock.
type Engine struct {
	now func() time.Time
	log *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine clock.
func WithClock(fn func() time.Time) Option {
	return func(e *Engine) { e.now = fn }
}

// New returns an Engine using the wall clock.
func New(opts ...Option) *Engine {
	e := &Engine{now: time.Now, log: zap.L().With(zap.String("component", "gate"))}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Gate runs freshness then intent checks on c. The first failing check
// produces the rejection; later checks are skipped.
func (e *Engine) Gate(c Candidate) Result {
	now := e.now()
	signalID := SignalID(c.SourceURL, c.Timestamp)

	if age := now.Sub(c.Timestamp); age > maxSignalAge {
		return e.reject(rejection.Newf(rejection.StaleSignal, signalID,
			"Signal is %d days old, maximum is %d days", int(age/(24*time.Hour)), MaxSignalAgeDays), c, now)
	}

	typ, kw := intent.Classify(c.RawText)
	if typ == intent.None {
		return e.reject(rejection.New(rejection.NoIntentSignal,
			"No time-sensitive intent signal (hiring/funding/executive change) detected", signalID), c, now)
	}

	sig, err := model.NewSignal(model.SignalFields{
		ID:         signalID,
		SourceURL:  c.SourceURL,
		RawText:    c.RawText,
		Timestamp:  c.Timestamp,
		SourceType: c.SourceType,
		DedupHash:  DedupHash(c.SourceURL, c.RawText),
	})
	if err != nil {
		rerr, ok := rejection.As(err)
		if !ok {
			rerr = rejection.New(rejection.MissingEvidence, err.Error(), signalID)
		}
		if rerr.SignalID == "" {
			rerr.SignalID = signalID
		}
		return e.reject(rerr, c, now)
	}

	return Result{signal: sig, intent: typ, keyword: kw, accepted: true}
}

func (e *Engine) reject(rerr *rejection.Error, c Candidate, now time.Time) Result {
	e.log.Debug("candidate rejected",
		zap.String("signal_id", rerr.SignalID),
		zap.String("rule", string(rerr.Rule)),
		zap.String("source_url", c.SourceURL),
	)
	id := RejectionID(rerr.SignalID, rerr.Rule)
	return Result{rejection: rejection.FromError(id, rerr, c.RawText, now)}
}

// GateAll gates candidates concurrently, bounded by concurrency, and
// returns results in input order.
func (e *Engine) GateAll(ctx context.Context, candidates []Candidate, concurrency int) ([]Result, error) {
	results := make([]Result, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, c := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.Gate(c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// SignalID derives the stable id of a signal from its url and timestamp.
func SignalID(sourceURL string, ts time.Time) string {
	return signalPrefix + hash(sourceURL+":"+ts.UTC().Format(time.RFC3339Nano))[:idHexLen]
}

// DedupHash derives the content hash used to drop repeated signals.
func DedupHash(sourceURL, text string) string {
	r := []rune(text)
	if len(r) > dedupTextLen {
		r = r[:dedupTextLen]
	}
	return hash(sourceURL + ":" + string(r))
}

// RejectionID derives a stable rejection id from the signal id and rule.
func RejectionID(signalID string, rule rejection.Rule) string {
	return rejectPrefix + hash(signalID+":"+string(rule))[:idHexLen]
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
