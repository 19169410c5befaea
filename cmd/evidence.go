package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/glassbox/internal/evidence"
)

var evidenceFormat string

var evidenceCmd = &cobra.Command{
	Use:   "evidence <lead-id|evidence-id>",
	Short: "Show the evidence behind a lead, or a single evidence record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initPipeline("run")
		if err != nil {
			return err
		}
		res, err := env.Run(cmd.Context())
		if err != nil {
			return err
		}

		var evs []evidence.Evidence
		if lead, ok := res.Lead(args[0]); ok {
			evs = lead.Evidence
		} else if ev, ok := res.FindEvidence(args[0]); ok {
			evs = []evidence.Evidence{ev}
		} else {
			return eris.Errorf("no lead or evidence with id %q", args[0])
		}

		format := evidenceFormat
		if format == formatText || format == "" {
			format = formatYAML
		}
		return writeOutput(cmd.OutOrStdout(), format, evs, nil)
	},
}

func init() {
	evidenceCmd.Flags().StringVar(&evidenceFormat, "format", formatYAML, "output format: json or yaml")
	rootCmd.AddCommand(evidenceCmd)
}
