package pipeline

import (
	"fmt"
	"strings"

	"github.com/sells-group/glassbox/internal/rejection"
	"github.com/sells-group/glassbox/internal/scorer"
)

// FormatReport generates a human-readable run report.
func FormatReport(res *Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Run Report: %s\n\n", res.RunAt.Format("2006-01-02 15:04:05 MST"))

	s := res.Stats
	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "- Candidates: %d\n", s.Candidates)
	fmt.Fprintf(&b, "- Accepted signals: %d (%d duplicates skipped)\n", s.Accepted, s.Duplicates)
	fmt.Fprintf(&b, "- Resolved entities: %d (%d enriched)\n", s.Resolved, s.Enriched)
	fmt.Fprintf(&b, "- Leads: %d\n", s.Leads)
	fmt.Fprintf(&b, "- Rejections: %d\n", s.Rejected)
	if s.Violations > 0 {
		fmt.Fprintf(&b, "- Invariant violations: %d\n", s.Violations)
	}
	b.WriteString("\n")

	b.WriteString("## Leads\n")
	if len(res.Leads) == 0 {
		b.WriteString("No leads qualified.\n\n")
	} else {
		for i, l := range res.Leads {
			fmt.Fprintf(&b, "%d. **%s** (%s) [%s] score %.0f, tier %s, %s\n",
				i+1, l.Lead.CompanyName().Text(), l.Lead.Domain().Text(), l.ID,
				l.Score(), l.Ranked.Tier(), l.Lead.Tier())
			fmt.Fprintf(&b, "   %s\n", scorer.ExplainShort(l.Ranked))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Rejections\n")
	counts := rejection.Count(res.Rejections)
	if len(counts) == 0 {
		b.WriteString("No rejections.\n")
		return b.String()
	}
	for _, rule := range rejection.Rules() {
		if n := counts[rule]; n > 0 {
			fmt.Fprintf(&b, "- %s: %d (%s)\n", rule, n, rule.Description())
		}
	}

	return b.String()
}
