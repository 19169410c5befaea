package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/glassbox/internal/pipeline"
)

var runFormat string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process a feed and print the run report",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initPipeline("run")
		if err != nil {
			return err
		}
		res, err := env.Run(cmd.Context())
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), runFormat, res, func() string {
			return pipeline.FormatReport(res)
		})
	},
}

func init() {
	runCmd.Flags().StringVar(&runFormat, "format", formatText, "output format: text, json or yaml")
	rootCmd.AddCommand(runCmd)
}
