// Package main provides the noteqc CLI for grading clinical notes.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "noteqc",
	Short: "Clinical note quality grading",
	Long: `noteqc grades clinical notes with a hybrid of PDQI-9 rubric scoring,
rule-based heuristics, factuality checking, and embedding-based
discrepancy detection against the encounter transcript.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")
	rootCmd.AddCommand(gradeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
