// Package grading orchestrates the four analysis subsystems and fuses
// their outputs into a single hybrid quality score.
package grading

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"sync"

	"github.com/Churchillbones/clinical-note-quality/internal/domain"
	"github.com/Churchillbones/clinical-note-quality/internal/factuality"
	"github.com/Churchillbones/clinical-note-quality/internal/heuristics"
	"github.com/Churchillbones/clinical-note-quality/internal/llm"
)

// DefaultPDQIDivisor normalizes the 9-45 PDQI total onto the 1-5 scale.
const DefaultPDQIDivisor = 9.0

// RubricScorer produces PDQI-9 rubric scores for a note.
type RubricScorer interface {
	Score(ctx context.Context, note, transcript string, precision domain.Precision) (domain.PDQIScore, error)
}

// DiscrepancyAnalyzer runs the embedding-based discrepancy pipeline.
type DiscrepancyAnalyzer interface {
	Analyze(ctx context.Context, note, transcript string) domain.DiscrepancyAnalysis
}

// Option configures a Grader.
type Option func(*Grader)

// WithWeights overrides the default component weights.
func WithWeights(w domain.Weights) Option {
	return func(g *Grader) { g.weights = w }
}

// WithPDQIDivisor overrides the PDQI total normalization divisor.
func WithPDQIDivisor(d float64) Option {
	return func(g *Grader) { g.pdqiDivisor = d }
}

// WithProgress attaches a progress emitter for pipeline stage updates.
func WithProgress(emitter llm.ProgressEmitter) Option {
	return func(g *Grader) { g.progress = emitter }
}

// Grader fans the note out to the rubric, heuristic, factuality, and
// discrepancy subsystems and aggregates their results.
type Grader struct {
	rubric      RubricScorer
	factuality  factuality.Assessor
	discrepancy DiscrepancyAnalyzer
	weights     domain.Weights
	pdqiDivisor float64
	progress    llm.ProgressEmitter
}

// NewGrader wires a grader from its subsystem dependencies.
func NewGrader(rubric RubricScorer, assessor factuality.Assessor, analyzer DiscrepancyAnalyzer, opts ...Option) *Grader {
	g := &Grader{
		rubric:      rubric,
		factuality:  assessor,
		discrepancy: analyzer,
		weights:     domain.DefaultWeights(),
		pdqiDivisor: DefaultPDQIDivisor,
		progress:    llm.NopEmitter{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Grade runs all four analyses concurrently and aggregates them once every
// subsystem has completed. Rubric and factuality failures abort the request;
// discrepancy analysis degrades to empty results inside the analyzer.
func (g *Grader) Grade(ctx context.Context, note, transcript string, precision domain.Precision) (domain.HybridResult, error) {
	if strings.TrimSpace(note) == "" {
		return domain.HybridResult{}, &domain.ValidationError{Field: "note", Reason: "clinical note must not be empty"}
	}

	log.Printf("grading: starting pipeline (note=%d chars, transcript=%d chars, precision=%s)",
		len(note), len(transcript), precision)
	g.progress.Emit(llm.ProgressEvent{Type: "stage", Stage: "analyze", Message: "running rubric, heuristic, factuality, and discrepancy analyses"})

	var (
		wg      sync.WaitGroup
		pdqi    domain.PDQIScore
		pdqiErr error
		heur    domain.HeuristicResult
		fact    domain.FactualityResult
		factErr error
		disc    domain.DiscrepancyAnalysis
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		pdqi, pdqiErr = g.rubric.Score(ctx, note, transcript, precision)
	}()
	go func() {
		defer wg.Done()
		heur = heuristics.Analyze(note)
	}()
	go func() {
		defer wg.Done()
		fact, factErr = g.factuality.Assess(ctx, note, transcript, precision)
	}()
	go func() {
		defer wg.Done()
		disc = g.discrepancy.Analyze(ctx, note, transcript)
	}()
	wg.Wait()

	if pdqiErr != nil {
		g.progress.Emit(llm.ProgressEvent{Type: "error", Message: pdqiErr.Error()})
		return domain.HybridResult{}, fmt.Errorf("rubric scoring: %w", pdqiErr)
	}
	if factErr != nil {
		g.progress.Emit(llm.ProgressEvent{Type: "error", Message: factErr.Error()})
		return domain.HybridResult{}, fmt.Errorf("factuality assessment: %w", factErr)
	}

	g.progress.Emit(llm.ProgressEvent{Type: "stage", Stage: "verify", Message: "cross-checking high-risk claims against transcript"})
	fact = factuality.VerifyHighRisk(fact, disc.Hallucinations.Hallucinations, transcript)

	g.progress.Emit(llm.ProgressEvent{Type: "stage", Stage: "aggregate", Message: "fusing component scores"})
	pdqiNorm := pdqi.Total() / g.pdqiDivisor
	hybrid := domain.ClampScore(round2(
		pdqiNorm*g.weights.PDQI +
			heur.CompositeScore*g.weights.Heuristic +
			fact.ConsistencyScore*g.weights.Factuality,
	))
	grade := domain.GradeFor(hybrid)

	result := domain.HybridResult{
		PDQI:           pdqi,
		Heuristic:      heur,
		Factuality:     fact,
		HybridScore:    hybrid,
		OverallGrade:   grade,
		Weights:        g.weights,
		ChainOfThought: g.chainOfThought(pdqi, heur, fact, pdqiNorm, hybrid),
		AnalysisLog:    g.analysisLog(pdqi, heur, fact, disc, pdqiNorm, hybrid, grade),
		Discrepancy:    disc,
	}

	log.Printf("grading: completed (hybrid=%.2f grade=%s pdqi_total=%.0f provenance=%s)",
		hybrid, grade, pdqi.Total(), pdqi.Provenance)
	g.progress.Emit(llm.ProgressEvent{Type: "done", Message: fmt.Sprintf("grade %s (%.2f/5.0)", grade, hybrid)})
	return result, nil
}

func (g *Grader) chainOfThought(pdqi domain.PDQIScore, heur domain.HeuristicResult, fact domain.FactualityResult, pdqiNorm, hybrid float64) string {
	var parts []string
	if pdqi.Rationale != "" {
		parts = append(parts, "PDQI Rationale:\n"+strings.TrimSpace(pdqi.Rationale))
	}
	if pdqi.Summary != "" {
		parts = append(parts, "PDQI Summary:\n"+strings.TrimSpace(pdqi.Summary))
	}
	if heur.CompositeNarrative != "" {
		parts = append(parts, "Heuristic Analysis:\n"+strings.TrimSpace(heur.CompositeNarrative))
	} else {
		parts = append(parts, fmt.Sprintf("Heuristic Analysis:\nLength: %.1f, Redundancy: %.1f, Structure: %.1f",
			heur.LengthScore, heur.RedundancyScore, heur.StructureScore))
	}
	if fact.Summary != "" {
		parts = append(parts, "Factuality Summary:\n"+strings.TrimSpace(fact.Summary))
	}
	if fact.ConsistencyNarrative != "" {
		parts = append(parts, "Factuality Assessment:\n"+strings.TrimSpace(fact.ConsistencyNarrative))
	}
	parts = append(parts, fmt.Sprintf(
		"Score Integration:\nHybrid Score Calculation: PDQI (%g) x %.2f + Heuristic (%g) x %.2f + Factuality (%g) x %.2f = %.2f",
		g.weights.PDQI, pdqiNorm, g.weights.Heuristic, heur.CompositeScore, g.weights.Factuality, fact.ConsistencyScore, hybrid))
	return strings.Join(parts, "\n\n")
}

func (g *Grader) analysisLog(pdqi domain.PDQIScore, heur domain.HeuristicResult, fact domain.FactualityResult, disc domain.DiscrepancyAnalysis, pdqiNorm, hybrid float64, grade string) string {
	var b strings.Builder
	rule := strings.Repeat("=", 50)
	sub := strings.Repeat("-", 35)

	fmt.Fprintln(&b, "GRADING ANALYSIS LOG")
	fmt.Fprintln(&b, rule)

	fmt.Fprintln(&b, "\nPDQI-9 CLINICAL QUALITY ANALYSIS")
	fmt.Fprintln(&b, sub)
	if pdqi.Summary != "" {
		fmt.Fprintf(&b, "Overall Assessment: %s\n", strings.TrimSpace(pdqi.Summary))
	}
	if pdqi.Rationale != "" {
		fmt.Fprintf(&b, "Detailed Rationale: %s\n", strings.TrimSpace(pdqi.Rationale))
	}
	fmt.Fprintf(&b, "Total Score: %.0f/45 (normalized %.2f/5.0)\n", pdqi.Total(), pdqiNorm)

	fmt.Fprintln(&b, "\nHEURISTIC QUALITY ANALYSIS")
	fmt.Fprintln(&b, sub)
	if heur.CompositeNarrative != "" {
		fmt.Fprintf(&b, "Comprehensive Analysis: %s\n", strings.TrimSpace(heur.CompositeNarrative))
	} else {
		fmt.Fprintf(&b, "Length Assessment: %.1f/5.0\n", heur.LengthScore)
		fmt.Fprintf(&b, "Redundancy Analysis: %.1f/5.0\n", heur.RedundancyScore)
		fmt.Fprintf(&b, "Structure Evaluation: %.1f/5.0\n", heur.StructureScore)
	}
	fmt.Fprintf(&b, "Composite Score: %.2f/5.0\n", heur.CompositeScore)

	fmt.Fprintln(&b, "\nFACTUALITY CONSISTENCY ANALYSIS")
	fmt.Fprintln(&b, sub)
	if fact.Summary != "" {
		fmt.Fprintf(&b, "Summary: %s\n", strings.TrimSpace(fact.Summary))
	}
	if len(fact.Claims) > 0 {
		fmt.Fprintf(&b, "Claims Analyzed: %d\n", len(fact.Claims))
		for i, claim := range fact.Claims {
			if i == 3 {
				break
			}
			fmt.Fprintf(&b, "  %d. %s -> %s\n", i+1, truncate(claim.Claim, 100), claim.Support)
		}
	}
	fmt.Fprintf(&b, "Consistency Score: %.2f/5.0\n", fact.ConsistencyScore)

	fmt.Fprintln(&b, "\nDISCREPANCY ANALYSIS")
	fmt.Fprintln(&b, sub)
	fmt.Fprintf(&b, "Contradictions: %d\n", len(disc.Contradictions.Contradictions))
	fmt.Fprintf(&b, "Hallucinations: %d\n", len(disc.Hallucinations.Hallucinations))
	fmt.Fprintf(&b, "Semantic Gaps: %d (coverage %.2f)\n", len(disc.Gaps.Gaps), disc.Gaps.SemanticCoverage)

	fmt.Fprintln(&b, "\nHYBRID SCORE INTEGRATION")
	fmt.Fprintln(&b, sub)
	fmt.Fprintf(&b, "Component Weights: PDQI (%.1f) + Heuristic (%.1f) + Factuality (%.1f)\n",
		g.weights.PDQI, g.weights.Heuristic, g.weights.Factuality)
	fmt.Fprintf(&b, "Calculation: (%.2f x %.1f) + (%.2f x %.1f) + (%.2f x %.1f) = %.2f\n",
		pdqiNorm, g.weights.PDQI, heur.CompositeScore, g.weights.Heuristic, fact.ConsistencyScore, g.weights.Factuality, hybrid)
	fmt.Fprintf(&b, "Final Grade: %s (%.2f/5.0)\n", grade, hybrid)

	fmt.Fprintln(&b, "\n"+rule)
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
