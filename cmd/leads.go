package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/glassbox/internal/pipeline"
	"github.com/sells-group/glassbox/internal/scorer"
)

var (
	leadsFormat  string
	leadsMinTier string
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "List ranked leads",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initPipeline("run")
		if err != nil {
			return err
		}
		res, err := env.Run(cmd.Context())
		if err != nil {
			return err
		}

		leads := filterLeads(res.Leads, scorer.Tier(strings.ToUpper(leadsMinTier)))
		return writeOutput(cmd.OutOrStdout(), leadsFormat, leads, func() string {
			if len(leads) == 0 {
				return "No leads."
			}
			lines := make([]string, len(leads))
			for i, l := range leads {
				lines[i] = leadLine(i+1, l)
			}
			return strings.Join(lines, "\n")
		})
	},
}

// filterLeads keeps leads at or above minTier. An empty tier keeps all.
func filterLeads(leads []pipeline.LeadRecord, minTier scorer.Tier) []pipeline.LeadRecord {
	if minTier == "" {
		return leads
	}
	out := make([]pipeline.LeadRecord, 0, len(leads))
	for _, l := range leads {
		if l.Ranked.Tier() <= minTier {
			out = append(out, l)
		}
	}
	return out
}

func init() {
	leadsCmd.Flags().StringVar(&leadsFormat, "format", formatText, "output format: text, json or yaml")
	leadsCmd.Flags().StringVar(&leadsMinTier, "min-tier", "", "only show leads at or above this score tier (A-D)")
	rootCmd.AddCommand(leadsCmd)
}
