// Package openai provides an embedding function backed by the OpenAI
// embeddings API or any compatible endpoint.
package openai

import (
	"context"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/chromasearch/embeddings"
)

// Config holds the embedding provider settings.
type Config struct {
	APIKey string
	// BaseURL overrides the API endpoint for OpenAI-compatible providers.
	BaseURL string
	// Model defaults to text-embedding-3-small.
	Model string
	// Dimensions truncates output vectors when > 0 (models that support it).
	Dimensions int
	User       string
}

// EmbeddingFunction converts text to dense vectors via the OpenAI API.
// It implements embeddings.EmbeddingFunction.
type EmbeddingFunction struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	user       string
}

// New creates an OpenAI embedding function.
func New(cfg Config) (*EmbeddingFunction, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: api key required")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	return &EmbeddingFunction{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      openai.EmbeddingModel(model),
		dimensions: cfg.Dimensions,
		user:       cfg.User,
	}, nil
}

// Name identifies the provider.
func (e *EmbeddingFunction) Name() string { return "openai" }

// Embed converts one text into a dense vector.
func (e *EmbeddingFunction) Embed(ctx context.Context, text string) (embeddings.Embedding, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch converts texts into dense vectors, one per input, in order.
func (e *EmbeddingFunction) EmbedBatch(ctx context.Context, texts []string) ([]embeddings.Embedding, error) {
	if len(texts) == 0 {
		return nil, errors.New("openai: at least one text required")
	}
	req := openai.EmbeddingRequest{
		Input:          texts,
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		User:           e.user,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, "openai: create embeddings")
	}
	if len(resp.Data) != len(texts) {
		return nil, errors.Errorf(
			"openai: expected %d embeddings, got %d", len(texts), len(resp.Data),
		)
	}

	out := make([]embeddings.Embedding, len(resp.Data))
	for _, item := range resp.Data {
		emb, err := embeddings.NewEmbedding(item.Embedding)
		if err != nil {
			return nil, errors.WithMessagef(err, "openai: embedding %d", item.Index)
		}
		out[item.Index] = emb
	}
	return out, nil
}
