// Package llm provides clients for the language model and embedding
// providers used by the grading pipeline. The Azure OpenAI client speaks
// the REST API directly over net/http.
package llm

import "context"

// CompletionRequest describes a single chat completion call.
type CompletionRequest struct {
	System     string
	User       string
	Deployment string
	MaxTokens  int
}

// Completer produces a text completion for a prompt.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Embedder converts texts into embedding vectors. Implementations must
// return one vector per input text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// Client bundles both capabilities of the Azure OpenAI deployment.
type Client interface {
	Completer
	Embedder
}
