// Package discrepancy finds conflicts between a clinical note and the
// encounter transcript using embedding similarity: contradictions
// (conflicting facts), hallucinations (note claims without transcript
// evidence), and semantic gaps (transcript content missing from the
// note).
package discrepancy

import (
	"context"
	"sync"

	"github.com/Churchillbones/clinical-note-quality/internal/domain"
	"github.com/Churchillbones/clinical-note-quality/internal/llm"
)

// Config holds the similarity thresholds for the three analyses. These
// are tuning parameters, not business rules, and ship with defaults
// matched to text-embedding-3-large.
type Config struct {
	// ContradictionZoneLow/High bound the similarity band where two
	// statements are about the same topic but not identical.
	ContradictionZoneLow  float64 `yaml:"contradiction_zone_low"`
	ContradictionZoneHigh float64 `yaml:"contradiction_zone_high"`
	// LowSupport/HighSupport bound the hallucination probability curve.
	LowSupportThreshold  float64 `yaml:"low_support_threshold"`
	HighSupportThreshold float64 `yaml:"high_support_threshold"`
	// GapThreshold is the minimum similarity for transcript content to
	// count as covered by the note.
	GapThreshold float64 `yaml:"gap_threshold"`
}

// DefaultConfig returns the shipped threshold defaults.
func DefaultConfig() Config {
	return Config{
		ContradictionZoneLow:  0.65,
		ContradictionZoneHigh: 0.85,
		LowSupportThreshold:   0.60,
		HighSupportThreshold:  0.80,
		GapThreshold:          0.82,
	}
}

// Analyzer runs the three discrepancy analyses. Safe for concurrent use;
// each call builds its own working set.
type Analyzer struct {
	embedder llm.Embedder
	cfg      Config
}

// NewAnalyzer returns an Analyzer using embedder. Zero-valued thresholds
// in cfg are replaced with defaults.
func NewAnalyzer(embedder llm.Embedder, cfg Config) *Analyzer {
	def := DefaultConfig()
	if cfg.ContradictionZoneLow == 0 {
		cfg.ContradictionZoneLow = def.ContradictionZoneLow
	}
	if cfg.ContradictionZoneHigh == 0 {
		cfg.ContradictionZoneHigh = def.ContradictionZoneHigh
	}
	if cfg.LowSupportThreshold == 0 {
		cfg.LowSupportThreshold = def.LowSupportThreshold
	}
	if cfg.HighSupportThreshold == 0 {
		cfg.HighSupportThreshold = def.HighSupportThreshold
	}
	if cfg.GapThreshold == 0 {
		cfg.GapThreshold = def.GapThreshold
	}
	return &Analyzer{embedder: embedder, cfg: cfg}
}

// Analyze runs gap, contradiction, and hallucination detection
// concurrently and merges the results. When the same note statement
// appears in both a contradiction and a hallucination, the contradiction
// wins: a statement that conflicts with a specific counterpart is not
// also reported as unsupported.
func (a *Analyzer) Analyze(ctx context.Context, note, transcript string) domain.DiscrepancyAnalysis {
	var (
		wg             sync.WaitGroup
		gaps           domain.SemanticGapResult
		contradictions domain.ContradictionResult
		hallucinations domain.HallucinationResult
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		gaps = a.DetectGaps(ctx, note, transcript)
	}()
	go func() {
		defer wg.Done()
		contradictions = a.DetectContradictions(ctx, note, transcript)
	}()
	go func() {
		defer wg.Done()
		hallucinations = a.DetectHallucinations(ctx, note, transcript)
	}()
	wg.Wait()

	contradicted := make(map[string]bool, len(contradictions.Contradictions))
	for _, c := range contradictions.Contradictions {
		contradicted[c.NoteStatement] = true
	}
	if len(contradicted) > 0 {
		kept := hallucinations.Hallucinations[:0]
		for _, h := range hallucinations.Hallucinations {
			if !contradicted[h.Claim] {
				kept = append(kept, h)
			}
		}
		hallucinations.Hallucinations = kept
	}

	return domain.DiscrepancyAnalysis{
		Gaps:           gaps,
		Contradictions: contradictions,
		Hallucinations: hallucinations,
	}
}
