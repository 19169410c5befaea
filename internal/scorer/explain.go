package scorer

import (
	"fmt"
	"strings"
	"time"

	"github.com/sells-group/glassbox/internal/evidence"
)

var tierSummaries = map[Tier]string{
	TierA: "This is a high-priority lead with strong signals.",
	TierB: "This is a medium-priority lead worth following up on.",
	TierC: "This is a lower-priority lead with some potential.",
	TierD: "This lead has weak signals and should be deprioritized.",
}

// Explain renders a plain-English account of why r is ranked as it is.
func Explain(r Ranked) string {
	b := r.Breakdown
	var sb strings.Builder

	fmt.Fprintf(&sb, "**%s** is ranked as Tier %s with a score of %.0f/%d.\n\n", r.Entity.Name(), b.Tier(), b.Total(), MaxScore)
	sb.WriteString("**Score Breakdown:**\n")
	for _, c := range b.Components() {
		fmt.Fprintf(&sb, "- %s\n", c.Reason)
	}
	fmt.Fprintf(&sb, "\n**Summary:** %s", tierSummaries[b.Tier()])

	if neg := b.Negative(); len(neg) > 0 {
		reasons := make([]string, len(neg))
		for i, c := range neg {
			reasons[i] = c.Reason
		}
		fmt.Fprintf(&sb, "\n\n**Concerns:** %s", strings.Join(reasons, "; "))
	}
	return sb.String()
}

// ExplainShort renders a one-line summary naming the strongest component.
func ExplainShort(r Ranked) string {
	b := r.Breakdown
	prefix := fmt.Sprintf("Tier %s (%.0f pts)", b.Tier(), b.Total())

	pos := b.Positive()
	if len(pos) == 0 {
		return prefix + " - No strong signals detected"
	}
	strongest := pos[0]
	for _, c := range pos[1:] {
		if c.Contribution > strongest.Contribution {
			strongest = c
		}
	}
	return prefix + " - " + strongest.Reason
}

const lineageTextLen = 200

// Lineage renders the evidence trail behind r: entity evidence, the
// originating signal and each scoring component with the ids it used.
func Lineage(r Ranked) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Evidence Lineage for: %s\n", r.Entity.Name())
	sb.WriteString(strings.Repeat("=", 50) + "\n\nENTITY EVIDENCE:\n")
	for i, ev := range r.Entity.Evidence() {
		if i > 0 {
			sb.WriteString("\n")
		}
		writeEvidence(&sb, ev, r.ScoredAt)
	}

	if r.Signal != nil {
		s := r.Signal
		text := []rune(s.RawText())
		suffix := ""
		if len(text) > lineageTextLen {
			text = text[:lineageTextLen]
			suffix = "..."
		}
		sb.WriteString("\nSIGNAL EVIDENCE:\n")
		fmt.Fprintf(&sb, "  • Source: %s\n", s.SourceURL())
		fmt.Fprintf(&sb, "  • Signal ID: %s\n", s.ID())
		fmt.Fprintf(&sb, "  • Timestamp: %s\n", s.Timestamp().UTC().Format(time.RFC3339))
		fmt.Fprintf(&sb, "  • Text: %s%s\n", string(text), suffix)
	}

	sb.WriteString("\nSCORING COMPONENTS:\n")
	for _, c := range r.Breakdown.Components() {
		sign := ""
		if c.Contribution >= 0 {
			sign = "+"
		}
		fmt.Fprintf(&sb, "  • %s: %s%.0f\n", c.Name, sign, c.Contribution)
		fmt.Fprintf(&sb, "    %s\n", c.Reason)
		if len(c.EvidenceIDs) > 0 {
			ids := c.EvidenceIDs
			if len(ids) > 3 {
				ids = ids[:3]
			}
			fmt.Fprintf(&sb, "    Evidence: %s\n", strings.Join(ids, ", "))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func writeEvidence(sb *strings.Builder, ev evidence.Evidence, ref time.Time) {
	fmt.Fprintf(sb, "  • %s: %s\n", ev.Field(), ev.Text())
	fmt.Fprintf(sb, "    ID: %s\n", ev.ID())
	fmt.Fprintf(sb, "    Type: %s\n", ev.Type())
	fmt.Fprintf(sb, "    Confidence: %.0f%%", ev.Confidence()*100)
	if cur := ev.CurrentConfidence(ref); cur != ev.Confidence() {
		fmt.Fprintf(sb, " (currently %.0f%%)", cur*100)
	}
	sb.WriteString("\n")
	switch ev.Type() {
	case evidence.TypeInference:
		fmt.Fprintf(sb, "    Inference rule: %s\n", ev.InferenceRule())
		fmt.Fprintf(sb, "    Derived from: %s\n", strings.Join(ev.SourceIDs(), ", "))
	case evidence.TypeObservation:
		fmt.Fprintf(sb, "    Source: %s\n", ev.Meta().SourceURL)
	case evidence.TypeThirdParty:
		fmt.Fprintf(sb, "    Provider: %s\n", ev.ProviderName())
	}
}
