// Package config loads service configuration from an optional YAML file
// with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/Churchillbones/clinical-note-quality/internal/discrepancy"
	"github.com/Churchillbones/clinical-note-quality/internal/domain"
	"github.com/Churchillbones/clinical-note-quality/internal/factuality"
)

// Azure holds the Azure OpenAI connection settings.
type Azure struct {
	Endpoint            string  `yaml:"endpoint"`
	APIKey              string  `yaml:"api_key"`
	APIVersion          string  `yaml:"api_version"`
	EmbeddingDeployment string  `yaml:"embedding_deployment"`
	RequestsPerSecond   float64 `yaml:"requests_per_second"`
}

// Models maps precision tiers onto chat model deployments.
type Models struct {
	LowDeployment       string `yaml:"low_deployment"`
	MediumDeployment    string `yaml:"medium_deployment"`
	HighDeployment      string `yaml:"high_deployment"`
	MaxCompletionTokens int    `yaml:"max_completion_tokens"`
}

// Factuality selects the consistency assessment provider.
type Factuality struct {
	Provider         string  `yaml:"provider"`
	SupportThreshold float64 `yaml:"support_threshold"`
}

// Grading holds the score fusion parameters.
type Grading struct {
	Weights     domain.Weights `yaml:"weights"`
	PDQIDivisor float64        `yaml:"pdqi_divisor"`
}

// Server holds the HTTP server and persistence settings.
type Server struct {
	Port         string `yaml:"port"`
	DatabaseURL  string `yaml:"database_url"`
	AuthDomain   string `yaml:"auth_domain"`
	AuthAudience string `yaml:"auth_audience"`
}

// Config is the full service configuration.
type Config struct {
	Azure       Azure              `yaml:"azure"`
	Models      Models             `yaml:"models"`
	Grading     Grading            `yaml:"grading"`
	Factuality  Factuality         `yaml:"factuality"`
	Discrepancy discrepancy.Config `yaml:"discrepancy"`
	Server      Server             `yaml:"server"`
}

// Default returns the configuration defaults. Credentials are always
// supplied by file or environment.
func Default() Config {
	return Config{
		Azure: Azure{
			APIVersion:          "2024-02-01",
			EmbeddingDeployment: "text-embedding-3-large",
		},
		Models: Models{
			MediumDeployment:    "gpt-4o",
			MaxCompletionTokens: 4000,
		},
		Grading: Grading{
			Weights:     domain.DefaultWeights(),
			PDQIDivisor: 9,
		},
		Factuality: Factuality{
			Provider:         factuality.ProviderO3,
			SupportThreshold: factuality.DefaultSupportThreshold,
		},
		Discrepancy: discrepancy.DefaultConfig(),
		Server: Server{
			Port: "8080",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at
// path (if non-empty), then environment overrides, and validates the
// result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Azure.Endpoint, "AZURE_OPENAI_ENDPOINT")
	setString(&c.Azure.APIKey, "AZURE_OPENAI_KEY")
	setString(&c.Azure.APIVersion, "AZURE_OPENAI_API_VERSION")
	setString(&c.Azure.EmbeddingDeployment, "EMBEDDING_DEPLOYMENT")
	setString(&c.Models.LowDeployment, "MODEL_DEPLOYMENT_LOW")
	setString(&c.Models.MediumDeployment, "MODEL_DEPLOYMENT")
	setString(&c.Models.HighDeployment, "MODEL_DEPLOYMENT_HIGH")
	setInt(&c.Models.MaxCompletionTokens, "MAX_COMPLETION_TOKENS")
	setFloat(&c.Grading.Weights.PDQI, "PDQI_WEIGHT")
	setFloat(&c.Grading.Weights.Heuristic, "HEURISTIC_WEIGHT")
	setFloat(&c.Grading.Weights.Factuality, "FACTUALITY_WEIGHT")
	setString(&c.Factuality.Provider, "FACTUALITY_PROVIDER")
	setString(&c.Server.Port, "PORT")
	setString(&c.Server.DatabaseURL, "DATABASE_URL")
	setString(&c.Server.AuthDomain, "AUTH_DOMAIN")
	setString(&c.Server.AuthAudience, "AUTH_AUDIENCE")
}

// Validate fails fast on missing credentials or inconsistent tuning.
func (c Config) Validate() error {
	if c.Azure.Endpoint == "" {
		return fmt.Errorf("config: azure endpoint is required (AZURE_OPENAI_ENDPOINT)")
	}
	if c.Azure.APIKey == "" {
		return fmt.Errorf("config: azure api key is required (AZURE_OPENAI_KEY)")
	}
	if c.Azure.EmbeddingDeployment == "" {
		return fmt.Errorf("config: embedding deployment is required")
	}
	if c.Models.MediumDeployment == "" {
		return fmt.Errorf("config: medium model deployment is required")
	}
	if err := c.Grading.Weights.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Grading.PDQIDivisor <= 0 {
		return fmt.Errorf("config: pdqi_divisor must be positive, got %g", c.Grading.PDQIDivisor)
	}
	switch c.Factuality.Provider {
	case factuality.ProviderO3, factuality.ProviderEmbedding, factuality.ProviderHybrid:
	default:
		return fmt.Errorf("config: unknown factuality provider %q", c.Factuality.Provider)
	}
	if c.Factuality.SupportThreshold <= 0 || c.Factuality.SupportThreshold >= 1 {
		return fmt.Errorf("config: factuality support_threshold must be in (0,1), got %g", c.Factuality.SupportThreshold)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}
