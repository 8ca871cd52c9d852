package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Churchillbones/clinical-note-quality/internal/domain"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaultsWithCredentialsFromEnv(t *testing.T) {
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://example.openai.azure.com")
	t.Setenv("AZURE_OPENAI_KEY", "secret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://example.openai.azure.com", cfg.Azure.Endpoint)
	assert.Equal(t, "2024-02-01", cfg.Azure.APIVersion)
	assert.Equal(t, "text-embedding-3-large", cfg.Azure.EmbeddingDeployment)
	assert.Equal(t, "gpt-4o", cfg.Models.MediumDeployment)
	assert.Equal(t, domain.DefaultWeights(), cfg.Grading.Weights)
	assert.Equal(t, 9.0, cfg.Grading.PDQIDivisor)
	assert.Equal(t, "o3", cfg.Factuality.Provider)
	assert.Equal(t, 0.75, cfg.Factuality.SupportThreshold)
	assert.Equal(t, 0.82, cfg.Discrepancy.GapThreshold)
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestLoadYAMLFile(t *testing.T) {
	path := writeConfigFile(t, `
azure:
  endpoint: https://file.openai.azure.com
  api_key: file-secret
models:
  low_deployment: gpt-4o-mini
  high_deployment: o3-high
grading:
  weights:
    pdqi: 0.5
    heuristic: 0.3
    factuality: 0.2
factuality:
  provider: hybrid
discrepancy:
  gap_threshold: 0.9
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://file.openai.azure.com", cfg.Azure.Endpoint)
	assert.Equal(t, "gpt-4o-mini", cfg.Models.LowDeployment)
	assert.Equal(t, "o3-high", cfg.Models.HighDeployment)
	assert.Equal(t, domain.Weights{PDQI: 0.5, Heuristic: 0.3, Factuality: 0.2}, cfg.Grading.Weights)
	assert.Equal(t, "hybrid", cfg.Factuality.Provider)
	assert.Equal(t, 0.9, cfg.Discrepancy.GapThreshold)
	// File values merge over defaults, not replace them.
	assert.Equal(t, "gpt-4o", cfg.Models.MediumDeployment)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
azure:
  endpoint: https://file.openai.azure.com
  api_key: file-secret
`)
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://env.openai.azure.com")
	t.Setenv("MODEL_DEPLOYMENT", "o3-env")
	t.Setenv("PDQI_WEIGHT", "0.6")
	t.Setenv("HEURISTIC_WEIGHT", "0.3")
	t.Setenv("FACTUALITY_WEIGHT", "0.1")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://env.openai.azure.com", cfg.Azure.Endpoint)
	assert.Equal(t, "file-secret", cfg.Azure.APIKey)
	assert.Equal(t, "o3-env", cfg.Models.MediumDeployment)
	assert.Equal(t, domain.Weights{PDQI: 0.6, Heuristic: 0.3, Factuality: 0.1}, cfg.Grading.Weights)
}

func TestLoadMissingCredentials(t *testing.T) {
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoint")
}

func TestLoadInvalidWeights(t *testing.T) {
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://example.openai.azure.com")
	t.Setenv("AZURE_OPENAI_KEY", "secret")
	t.Setenv("PDQI_WEIGHT", "0.9")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum to 1.0")
}

func TestLoadUnknownFactualityProvider(t *testing.T) {
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://example.openai.azure.com")
	t.Setenv("AZURE_OPENAI_KEY", "secret")
	t.Setenv("FACTUALITY_PROVIDER", "oracle")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown factuality provider")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
