package gate

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/glassbox/internal/intent"
	"github.com/sells-group/glassbox/internal/rejection"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func testEngine() *Engine {
	return New(WithClock(func() time.Time { return testNow }))
}

func candidate(text string, age time.Duration) Candidate {
	return Candidate{
		SourceURL:  "https://jobs.acme.io/123",
		RawText:    text,
		Timestamp:  testNow.Add(-age),
		SourceType: "rss_acme.io",
	}
}

func TestGate_Accepts(t *testing.T) {
	t.Parallel()

	r := testEngine().Gate(candidate("We're hiring a Senior Engineer!", 0))
	sig, typ, ok := r.Accepted()
	require.True(t, ok)
	assert.Equal(t, intent.Hiring, typ)
	assert.Equal(t, "hiring", r.Keyword())
	assert.True(t, strings.HasPrefix(sig.ID(), "sig_"))
	assert.Len(t, sig.ID(), len("sig_")+12)
	assert.Equal(t, DedupHash(sig.SourceURL(), sig.RawText()), sig.DedupHash())

	_, rejected := r.Rejected()
	assert.False(t, rejected)
}

func TestGate_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		c      Candidate
		rule   rejection.Rule
		reason string
	}{
		{
			name:   "stale hiring post",
			c:      candidate("We're hiring engineers", 35*24*time.Hour),
			rule:   rejection.StaleSignal,
			reason: "Signal is 35 days old, maximum is 30 days",
		},
		{
			name:   "stale check runs before intent",
			c:      candidate("This is just a regular blog post about nothing.", 40*24*time.Hour),
			rule:   rejection.StaleSignal,
			reason: "Signal is 40 days old, maximum is 30 days",
		},
		{
			name:   "no intent",
			c:      candidate("This is just a regular blog post about nothing.", 0),
			rule:   rejection.NoIntentSignal,
			reason: "No time-sensitive intent signal (hiring/funding/executive change) detected",
		},
		{
			name: "missing url",
			c: Candidate{
				RawText:   "Acme raised a Series A",
				Timestamp: testNow,
			},
			rule: rejection.MissingEvidence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := testEngine().Gate(tt.c)
			_, _, ok := r.Accepted()
			require.False(t, ok)

			rej, ok := r.Rejected()
			require.True(t, ok)
			assert.Equal(t, tt.rule, rej.Rule())
			if tt.reason != "" {
				assert.Equal(t, tt.reason, rej.Reason())
			}
			assert.Equal(t, SignalID(tt.c.SourceURL, tt.c.Timestamp), rej.SignalID())
			assert.Equal(t, RejectionID(rej.SignalID(), tt.rule), rej.ID())
			assert.Equal(t, testNow, rej.Timestamp())
		})
	}
}

func TestGate_BoundaryAge(t *testing.T) {
	t.Parallel()

	e := testEngine()
	_, _, ok := e.Gate(candidate("now hiring", 30*24*time.Hour)).Accepted()
	assert.True(t, ok, "exactly 30 days is still fresh")

	_, _, ok = e.Gate(candidate("now hiring", 30*24*time.Hour+time.Second)).Accepted()
	assert.False(t, ok)

	_, _, ok = e.Gate(candidate("now hiring", -2*time.Hour)).Accepted()
	assert.True(t, ok, "future timestamps are not stale")
}

func TestGate_SnippetTruncated(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("nothing to see ", 100)
	rej, ok := testEngine().Gate(candidate(text, 0)).Rejected()
	require.True(t, ok)
	assert.Len(t, []rune(rej.Snippet()), rejection.MaxSnippetLen)
}

func TestIDs_Deterministic(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 1, 2, 3, 4, 5, 6, time.FixedZone("EST", -5*3600))
	assert.Equal(t, SignalID("https://a.io", ts), SignalID("https://a.io", ts.UTC()))
	assert.NotEqual(t, SignalID("https://a.io", ts), SignalID("https://b.io", ts))

	long := strings.Repeat("x", 600)
	assert.Equal(t, DedupHash("u", long), DedupHash("u", long[:500]))
	assert.NotEqual(t, DedupHash("u", "a"), DedupHash("u", "b"))

	assert.NotEqual(t, RejectionID("sig_1", rejection.StaleSignal), RejectionID("sig_1", rejection.NoIntentSignal))
}

func TestGateAll_OrderAndDeterminism(t *testing.T) {
	t.Parallel()

	candidates := []Candidate{
		candidate("Acme is hiring", 0),
		candidate("blog post", time.Hour),
		candidate("Series B announced", 2*time.Hour),
		candidate("old hiring", 90*24*time.Hour),
	}

	run := func() []string {
		results, err := testEngine().GateAll(context.Background(), candidates, 2)
		require.NoError(t, err)
		var out []string
		for _, r := range results {
			if sig, typ, ok := r.Accepted(); ok {
				out = append(out, sig.ID()+":"+string(typ))
				continue
			}
			rej, _ := r.Rejected()
			out = append(out, rej.ID()+":"+string(rej.Rule()))
		}
		return out
	}

	first := run()
	require.Len(t, first, 4)
	assert.Contains(t, first[0], ":hiring")
	assert.Contains(t, first[1], ":no_intent_signal")
	assert.Contains(t, first[2], ":funding")
	assert.Contains(t, first[3], ":stale_signal")

	if diff := cmp.Diff(first, run()); diff != "" {
		t.Errorf("gating not deterministic (-first +second):\n%s", diff)
	}
}

func TestGateAll_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testEngine().GateAll(ctx, []Candidate{candidate("hiring", 0)}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
