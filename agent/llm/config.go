package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/siravitp/agentic-recsys/agent/contract"
	openaix "github.com/siravitp/agentic-recsys/pkg/openaix"
)

// Config carries the shared OpenAI endpoint settings plus optional per-agent
// model/temperature overrides. The router wants deterministic structured
// output; the recommendation agent tolerates a little warmth.
type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.openai.com/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"1000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`

	RouterModel               string  `envconfig:"ROUTER_MODEL" split_words:"true"`
	RetrievalModel            string  `envconfig:"RETRIEVAL_MODEL" split_words:"true"`
	RecommendationModel       string  `envconfig:"RECOMMENDATION_MODEL" split_words:"true"`
	RouterTemperature         float32 `envconfig:"ROUTER_TEMPERATURE" split_words:"true" default:"-1"`
	RetrievalTemperature      float32 `envconfig:"RETRIEVAL_TEMPERATURE" split_words:"true" default:"-1"`
	RecommendationTemperature float32 `envconfig:"RECOMMENDATION_TEMPERATURE" split_words:"true" default:"-1"`

	EmbeddingModel string `envconfig:"EMBEDDING_MODEL" split_words:"true" default:"text-embedding-3-small"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openai api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.EmbeddingModel) == "" {
		return fmt.Errorf("%w: embedding model is required", contractx.ErrValidation)
	}
	return nil
}

// OpenAIFor resolves the endpoint config for one agent type, applying any
// per-agent override on top of the shared defaults.
func (c Config) OpenAIFor(agentType contractx.AgentType) openaix.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	switch agentType {
	case contractx.AgentTypeRouter:
		if v := strings.TrimSpace(c.RouterModel); v != "" {
			modelName = v
		}
		if c.RouterTemperature >= 0 {
			temp = c.RouterTemperature
		}
	case contractx.AgentTypeRetrieval:
		if v := strings.TrimSpace(c.RetrievalModel); v != "" {
			modelName = v
		}
		if c.RetrievalTemperature >= 0 {
			temp = c.RetrievalTemperature
		}
	case contractx.AgentTypeRecommendation:
		if v := strings.TrimSpace(c.RecommendationModel); v != "" {
			modelName = v
		}
		if c.RecommendationTemperature >= 0 {
			temp = c.RecommendationTemperature
		}
	}

	maxCompletionToken := c.MaxCompletionToken
	return openaix.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
	}
}
