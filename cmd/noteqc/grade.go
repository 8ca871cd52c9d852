package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/Churchillbones/clinical-note-quality/internal/config"
	"github.com/Churchillbones/clinical-note-quality/internal/domain"
	"github.com/Churchillbones/clinical-note-quality/internal/llm"
)

var (
	gradeTranscript string
	gradePrecision  string
	gradeFormat     string
)

var gradeCmd = &cobra.Command{
	Use:   "grade <note-file>",
	Short: "Grade a clinical note",
	Long: `Grade a clinical note from a file, optionally against an encounter
transcript.

Examples:
  noteqc grade note.txt
  noteqc grade note.txt --transcript encounter.txt --precision high
  noteqc grade note.txt --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runGrade,
}

func init() {
	gradeCmd.Flags().StringVarP(&gradeTranscript, "transcript", "t", "", "Path to the encounter transcript")
	gradeCmd.Flags().StringVarP(&gradePrecision, "precision", "p", "medium", "Model precision (low, medium, high)")
	gradeCmd.Flags().StringVarP(&gradeFormat, "format", "f", "text", "Output format (text, json)")
}

// spinnerEmitter surfaces pipeline stages as the spinner suffix.
type spinnerEmitter struct {
	s *spinner.Spinner
}

func (e *spinnerEmitter) Emit(ev llm.ProgressEvent) {
	if ev.Type == "stage" {
		e.s.Suffix = " " + ev.Message
	}
}

func runGrade(cmd *cobra.Command, args []string) error {
	note, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading note: %w", err)
	}

	var transcript []byte
	if gradeTranscript != "" {
		transcript, err = os.ReadFile(gradeTranscript)
		if err != nil {
			return fmt.Errorf("reading transcript: %w", err)
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	client, err := newAzureClient(cfg)
	if err != nil {
		return err
	}

	interactive := isatty.IsTerminal(os.Stderr.Fd()) && gradeFormat != "json"
	color.NoColor = color.NoColor || !isatty.IsTerminal(os.Stdout.Fd())

	var progress llm.ProgressEmitter = &llm.TextEmitter{W: os.Stderr}
	var spin *spinner.Spinner
	if interactive {
		spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
		spin.Suffix = " grading..."
		progress = &spinnerEmitter{s: spin}
		spin.Start()
	}

	grader := buildGrader(cfg, client, progress)
	result, err := grader.Grade(context.Background(), string(note), string(transcript), domain.ParsePrecision(gradePrecision))
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return fmt.Errorf("grading failed: %w", err)
	}

	if gradeFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result.AsMap())
	}

	printResult(os.Stdout, result)
	return nil
}

func printResult(stdout io.Writer, r domain.HybridResult) {
	bold := color.New(color.Bold)
	dim := color.New(color.FgHiBlack)

	fmt.Fprintln(stdout)
	_, _ = bold.Fprintf(stdout, "GRADE %s", r.OverallGrade)
	fmt.Fprintf(stdout, "  (%.2f/5.0)\n", r.HybridScore)
	printScoreBar(stdout, r.HybridScore)
	fmt.Fprintln(stdout)

	_, _ = bold.Fprintln(stdout, "COMPONENTS")
	fmt.Fprintf(stdout, "  PDQI-9 total:     %.0f/45\n", r.PDQI.Total())
	fmt.Fprintf(stdout, "  Heuristics:       %.2f/5.0\n", r.Heuristic.CompositeScore)
	fmt.Fprintf(stdout, "  Factuality:       %.2f/5.0 (%d claims checked)\n",
		r.Factuality.ConsistencyScore, r.Factuality.ClaimsChecked)
	fmt.Fprintln(stdout)

	_, _ = bold.Fprintln(stdout, "DISCREPANCIES")
	fmt.Fprintf(stdout, "  Contradictions:   %d\n", len(r.Discrepancy.Contradictions.Contradictions))
	fmt.Fprintf(stdout, "  Hallucinations:   %d\n", len(r.Discrepancy.Hallucinations.Hallucinations))
	fmt.Fprintf(stdout, "  Semantic gaps:    %d (coverage %.0f%%)\n",
		len(r.Discrepancy.Gaps.Gaps), r.Discrepancy.Gaps.SemanticCoverage*100)
	for _, c := range r.Discrepancy.Contradictions.Contradictions {
		_, _ = color.New(color.FgRed).Fprintf(stdout, "  ! %s\n", c.Explanation)
	}
	for _, h := range r.Discrepancy.Hallucinations.Hallucinations {
		if h.IsHighRisk() {
			_, _ = color.New(color.FgYellow).Fprintf(stdout, "  ? %s\n", h.Claim)
		}
	}
	fmt.Fprintln(stdout)

	if r.PDQI.Summary != "" {
		_, _ = bold.Fprintln(stdout, "SUMMARY")
		fmt.Fprintf(stdout, "  %s\n", r.PDQI.Summary)
		fmt.Fprintln(stdout)
	}

	_, _ = dim.Fprintln(stdout, "  "+strings.Repeat("━", 50))
	_, _ = dim.Fprintf(stdout, "  Model: %s | Weights: %.1f/%.1f/%.1f\n",
		r.PDQI.Provenance, r.Weights.PDQI, r.Weights.Heuristic, r.Weights.Factuality)
}

func printScoreBar(w io.Writer, score float64) {
	const barWidth = 25
	filled := int(score / 5 * barWidth)
	if filled > barWidth {
		filled = barWidth
	}

	var barColor *color.Color
	switch {
	case score >= 4:
		barColor = color.New(color.FgGreen)
	case score >= 3:
		barColor = color.New(color.FgYellow)
	default:
		barColor = color.New(color.FgRed)
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	fmt.Fprint(w, "  ")
	_, _ = barColor.Fprint(w, bar)
	fmt.Fprintln(w)
}
