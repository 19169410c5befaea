package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/glassbox/internal/model"
	"github.com/sells-group/glassbox/internal/pipeline"
	"github.com/sells-group/glassbox/internal/rejection"
	"github.com/sells-group/glassbox/internal/scorer"
)

// Output formats accepted by --format.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	badgeBase = lipgloss.NewStyle().Bold(true).Padding(0, 1)

	tierStyles = map[scorer.Tier]lipgloss.Style{
		scorer.TierA: badgeBase.Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#2E7D32")),
		scorer.TierB: badgeBase.Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#5B8DEF")),
		scorer.TierC: badgeBase.Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#F7B801")),
		scorer.TierD: badgeBase.Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#999999")),
	}

	qualStyles = map[model.QualificationTier]lipgloss.Style{
		model.Tier1:       lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true),
		model.Tier2:       lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")),
		model.Tier3:       lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")),
		model.Unqualified: lipgloss.NewStyle().Foreground(lipgloss.Color("#999999")),
	}

	ruleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
)

// tierBadge renders the score tier as a colored badge.
func tierBadge(t scorer.Tier) string {
	return tierStyles[t].Render(string(t))
}

func qualBadge(t model.QualificationTier) string {
	return qualStyles[t].Render(string(t))
}

// leadLine renders one ranked lead.
func leadLine(rank int, l pipeline.LeadRecord) string {
	return fmt.Sprintf("%2d. %s %5.1f  %-24s %-22s %s  %s",
		rank, tierBadge(l.Ranked.Tier()), l.Score(),
		l.Lead.CompanyName().Text(), l.Lead.Domain().Text(),
		qualBadge(l.Lead.Tier()), detailStyle.Render(l.ID))
}

// rejectionLine renders one rejection.
func rejectionLine(r rejection.Rejection) string {
	return fmt.Sprintf("%s %s\n    %s\n    %s",
		ruleStyle.Render(string(r.Rule())), detailStyle.Render(r.SignalID()),
		r.Reason(), detailStyle.Render(truncate(r.Snippet(), 100)))
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// writeOutput writes v as json or yaml, or the text rendering otherwise.
func writeOutput(w io.Writer, format string, v any, text func() string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(v), "encode json")
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return eris.Wrap(enc.Close(), "encode yaml")
	case formatText, "":
		_, err := fmt.Fprintln(w, text())
		return eris.Wrap(err, "write output")
	}
	return eris.Errorf("unknown output format %q (want text, json or yaml)", format)
}
