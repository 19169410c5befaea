package main

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/glassbox/internal/rejection"
)

var (
	rejectionsFormat string
	rejectionsRule   string
)

var rejectionsCmd = &cobra.Command{
	Use:   "rejections",
	Short: "List rejected signals and the rule each broke",
	RunE: func(cmd *cobra.Command, args []string) error {
		rule := rejection.Rule(rejectionsRule)
		if rule != "" && !rule.Valid() {
			return eris.Errorf("unknown rule %q", rejectionsRule)
		}

		env, err := initPipeline("run")
		if err != nil {
			return err
		}
		res, err := env.Run(cmd.Context())
		if err != nil {
			return err
		}

		rejs := filterRejections(res.Rejections, rule)
		return writeOutput(cmd.OutOrStdout(), rejectionsFormat, rejs, func() string {
			if len(rejs) == 0 {
				return "No rejections."
			}
			lines := make([]string, len(rejs))
			for i, r := range rejs {
				lines[i] = rejectionLine(r)
			}
			return strings.Join(lines, "\n")
		})
	},
}

// filterRejections keeps rejections under rule. An empty rule keeps all.
func filterRejections(rs []rejection.Rejection, rule rejection.Rule) []rejection.Rejection {
	if rule == "" {
		return rs
	}
	var out []rejection.Rejection
	for _, r := range rs {
		if r.Rule() == rule {
			out = append(out, r)
		}
	}
	return out
}

func init() {
	rejectionsCmd.Flags().StringVar(&rejectionsFormat, "format", formatText, "output format: text, json or yaml")
	rejectionsCmd.Flags().StringVar(&rejectionsRule, "rule", "", "only show rejections under this rule")
	rootCmd.AddCommand(rejectionsCmd)
}
