package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/glassbox/internal/scorer"
)

var explainLineage bool

var explainCmd = &cobra.Command{
	Use:   "explain <lead-id>",
	Short: "Explain why a lead is ranked where it is",
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

		lead, ok := res.Lead(args[0])
		if !ok {
			return eris.Errorf("lead %q not found", args[0])
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, scorer.Explain(lead.Ranked))
		if explainLineage {
			fmt.Fprintln(out)
			fmt.Fprintln(out, scorer.Lineage(lead.Ranked))
		}
		return nil
	},
}

func init() {
	explainCmd.Flags().BoolVar(&explainLineage, "lineage", false, "also print the evidence lineage")
	rootCmd.AddCommand(explainCmd)
}
