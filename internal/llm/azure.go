package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultAPIVersion  = "2024-02-01"
	defaultMaxRetries  = 3
	defaultHTTPTimeout = 120 * time.Second
)

// AzureConfig holds the connection settings for an Azure OpenAI resource.
type AzureConfig struct {
	Endpoint            string
	APIKey              string
	APIVersion          string
	ChatDeployment      string
	EmbeddingDeployment string
	MaxRetries          int
	RequestsPerSecond   float64
}

// AzureClient talks to the Azure OpenAI chat completion and embedding
// endpoints. Transient failures are retried with exponential backoff, and
// all outbound calls share a single rate limiter.
type AzureClient struct {
	cfg        AzureConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	sleep      func(context.Context, time.Duration) error
}

// NewAzureClient validates cfg and returns a ready client.
func NewAzureClient(cfg AzureConfig) (*AzureClient, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, &ProviderError{Kind: KindConfiguration, Message: "endpoint is required"}
	}
	if _, err := url.Parse(cfg.Endpoint); err != nil {
		return nil, &ProviderError{Kind: KindConfiguration, Message: fmt.Sprintf("invalid endpoint: %v", err)}
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &ProviderError{Kind: KindConfiguration, Message: "api key is required"}
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultAPIVersion
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &AzureClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		limiter:    rate.NewLimiter(limit, 1),
		sleep:      sleepCtx,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages            []chatMessage `json:"messages"`
	MaxCompletionTokens int           `json:"max_completion_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends a chat completion request and returns the first choice.
func (c *AzureClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	deployment := req.Deployment
	if deployment == "" {
		deployment = c.cfg.ChatDeployment
	}
	if deployment == "" {
		return "", &ProviderError{Kind: KindConfiguration, Message: "no chat deployment configured"}
	}

	messages := make([]chatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.User})

	body := chatRequest{Messages: messages, MaxCompletionTokens: req.MaxTokens}
	endpoint := c.deploymentURL(deployment, "chat/completions")

	var parsed chatResponse
	if err := c.doJSON(ctx, endpoint, body, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "", &ProviderError{Kind: KindMalformed, Message: "response contained no choices"}
	}
	return parsed.Choices[0].Message.Content, nil
}

type embeddingRequest struct {
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// Embed returns one vector per input text, in input order. Azure may
// return data entries out of order, so results are placed by index.
func (c *AzureClient) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if c.cfg.EmbeddingDeployment == "" {
		return nil, &ProviderError{Kind: KindConfiguration, Message: "no embedding deployment configured"}
	}

	endpoint := c.deploymentURL(c.cfg.EmbeddingDeployment, "embeddings")
	var parsed embeddingResponse
	if err := c.doJSON(ctx, endpoint, embeddingRequest{Input: texts}, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Data) != len(texts) {
		return nil, &ProviderError{
			Kind:    KindMalformed,
			Message: fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(parsed.Data)),
		}
	}

	vectors := make([][]float64, len(texts))
	for _, d := range parsed.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, &ProviderError{Kind: KindMalformed, Message: fmt.Sprintf("embedding index %d out of range", d.Index)}
		}
		vectors[d.Index] = d.Embedding
	}
	for i, v := range vectors {
		if v == nil {
			return nil, &ProviderError{Kind: KindMalformed, Message: fmt.Sprintf("missing embedding for input %d", i)}
		}
	}
	return vectors, nil
}

func (c *AzureClient) deploymentURL(deployment, operation string) string {
	base := strings.TrimRight(c.cfg.Endpoint, "/")
	return fmt.Sprintf("%s/openai/deployments/%s/%s?api-version=%s", base, deployment, operation, c.cfg.APIVersion)
}

// doJSON posts body to endpoint and decodes the response into out,
// retrying transient failures with exponential backoff and jitter.
func (c *AzureClient) doJSON(ctx context.Context, endpoint string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, backoffDelay(attempt)); err != nil {
				return err
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		lastErr = c.attempt(ctx, endpoint, payload, out)
		if lastErr == nil {
			return nil
		}
		if !IsTransient(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

func (c *AzureClient) attempt(ctx context.Context, endpoint string, payload []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &ProviderError{Kind: KindTransient, Message: "connection failed", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ProviderError{Kind: KindTransient, Message: "reading response body", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return classifyStatus(resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &ProviderError{Kind: KindMalformed, Message: "decoding response", Err: err}
	}
	return nil
}

// backoffDelay grows geometrically per attempt with a small random jitter
// to spread out retries across concurrent callers.
func backoffDelay(attempt int) time.Duration {
	base := math.Pow(1.2, float64(attempt))
	jitter := rand.Float64() * 0.3
	return time.Duration((base + jitter) * float64(time.Second))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
