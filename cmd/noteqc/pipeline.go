package main

import (
	"fmt"

	"github.com/Churchillbones/clinical-note-quality/internal/config"
	"github.com/Churchillbones/clinical-note-quality/internal/discrepancy"
	"github.com/Churchillbones/clinical-note-quality/internal/factuality"
	"github.com/Churchillbones/clinical-note-quality/internal/grading"
	"github.com/Churchillbones/clinical-note-quality/internal/llm"
	"github.com/Churchillbones/clinical-note-quality/internal/pdqi"
)

// pipelineClient lets a cached embedder stand in for the provider's
// while completions still go to the provider directly.
type pipelineClient struct {
	llm.Completer
	llm.Embedder
}

func newAzureClient(cfg config.Config) (*llm.AzureClient, error) {
	client, err := llm.NewAzureClient(llm.AzureConfig{
		Endpoint:            cfg.Azure.Endpoint,
		APIKey:              cfg.Azure.APIKey,
		APIVersion:          cfg.Azure.APIVersion,
		ChatDeployment:      cfg.Models.MediumDeployment,
		EmbeddingDeployment: cfg.Azure.EmbeddingDeployment,
		RequestsPerSecond:   cfg.Azure.RequestsPerSecond,
	})
	if err != nil {
		return nil, fmt.Errorf("creating azure client: %w", err)
	}
	return client, nil
}

// buildGrader wires the four analysis subsystems from configuration.
func buildGrader(cfg config.Config, client llm.Client, progress llm.ProgressEmitter) *grading.Grader {
	scorer := pdqi.NewScorer(client, pdqi.Config{
		LowDeployment:    cfg.Models.LowDeployment,
		MediumDeployment: cfg.Models.MediumDeployment,
		HighDeployment:   cfg.Models.HighDeployment,
		MaxTokens:        cfg.Models.MaxCompletionTokens,
	})
	assessor := factuality.New(cfg.Factuality.Provider, client, factuality.Config{
		LowDeployment:    cfg.Models.LowDeployment,
		MediumDeployment: cfg.Models.MediumDeployment,
		HighDeployment:   cfg.Models.HighDeployment,
		MaxTokens:        cfg.Models.MaxCompletionTokens,
	}, cfg.Factuality.SupportThreshold)
	analyzer := discrepancy.NewAnalyzer(client, cfg.Discrepancy)

	return grading.NewGrader(scorer, assessor, analyzer,
		grading.WithWeights(cfg.Grading.Weights),
		grading.WithPDQIDivisor(cfg.Grading.PDQIDivisor),
		grading.WithProgress(progress),
	)
}
