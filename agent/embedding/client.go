package embedding

import (
	"context"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"

	contractx "github.com/siravitp/agentic-recsys/agent/contract"
)

// Client embeds free text through the OpenAI embeddings API. Every call is a
// fresh network request; there is no caching layer.
type Client struct {
	client *openaisdk.Client
	model  string
	dim    int
}

var _ contractx.Embedder = (*Client)(nil)

func New(client *openaisdk.Client, model string, dim int) (*Client, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: openai client is required", contractx.ErrValidation)
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, fmt.Errorf("%w: embedding model is required", contractx.ErrValidation)
	}
	if dim <= 0 {
		return nil, fmt.Errorf("%w: embedding dimension must be > 0", contractx.ErrValidation)
	}
	return &Client{
		client: client,
		model:  model,
		dim:    dim,
	}, nil
}

func (c *Client) Embed(ctx context.Context, text string) (int, []float32, error) {
	if strings.TrimSpace(text) == "" {
		return 0, nil, fmt.Errorf("%w: text is empty", contractx.ErrInvalidInput)
	}

	resp, err := c.client.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Input: openaisdk.EmbeddingNewParamsInputUnion{
			OfString: openaisdk.String(text),
		},
		Model: openaisdk.EmbeddingModel(c.model),
	})
	if err != nil {
		return 0, nil, fmt.Errorf("%w: embeddings request: %v", contractx.ErrUpstreamUnavailable, err)
	}
	if len(resp.Data) == 0 {
		return 0, nil, fmt.Errorf("%w: embeddings response has no data", contractx.ErrUpstreamUnavailable)
	}

	raw := resp.Data[0].Embedding
	if len(raw) != c.dim {
		return 0, nil, fmt.Errorf("%w: embedding has dim %d, want %d",
			contractx.ErrUpstreamUnavailable, len(raw), c.dim)
	}

	vector := make([]float32, len(raw))
	for i, v := range raw {
		vector[i] = float32(v)
	}

	return int(resp.Usage.TotalTokens), vector, nil
}
