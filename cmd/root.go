package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/glassbox/internal/config"
)

var cfg *config.Config

var (
	feedPath   string
	feedFormat string
	useSample  bool
)

var rootCmd = &cobra.Command{
	Use:   "glassbox",
	Short: "Explainable lead discovery",
	Long:  "Turns job postings and funding news into ranked sales leads. Every value carries its evidence and every dropped signal is recorded with a rejection rule.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&feedPath, "feed", "", "feed file to read (default from config ingest.feed_path)")
	rootCmd.PersistentFlags().StringVar(&feedFormat, "input-format", "", "feed format: auto, rss, csv, json, xlsx (default from config)")
	rootCmd.PersistentFlags().BoolVar(&useSample, "sample", false, "use the built-in sample feed")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
