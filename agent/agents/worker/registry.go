package worker

import (
	"context"
	"fmt"

	contractx "github.com/siravitp/agentic-recsys/agent/contract"
	llmx "github.com/siravitp/agentic-recsys/agent/llm"
	promptx "github.com/siravitp/agentic-recsys/agent/prompt"
	toolx "github.com/siravitp/agentic-recsys/agent/tool"
)

type registryImpl struct {
	router      contractx.Router
	retriever   contractx.Retriever
	recommender contractx.Recommender
}

func (r *registryImpl) Router() contractx.Router {
	return r.router
}

func (r *registryImpl) Retriever() contractx.Retriever {
	return r.retriever
}

func (r *registryImpl) Recommender() contractx.Recommender {
	return r.recommender
}

// NewRegistry wires the three model-backed workers: the structured routing
// decider, the tool-calling retrieval agent, and the recommendation agent.
func NewRegistry(
	ctx context.Context,
	cfg llmx.Config,
	catalog contractx.Catalog,
	embedder contractx.Embedder,
) (contractx.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	prompts := promptx.LoadPromptSet()

	routerModelCfg := cfg.OpenAIFor(contractx.AgentTypeRouter)
	routerModel, err := routerModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create router model: %v", contractx.ErrModelInvoke, err)
	}
	retrievalModelCfg := cfg.OpenAIFor(contractx.AgentTypeRetrieval)
	retrievalModel, err := retrievalModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create retrieval model: %v", contractx.ErrModelInvoke, err)
	}
	recommendationModelCfg := cfg.OpenAIFor(contractx.AgentTypeRecommendation)
	recommendationModel, err := recommendationModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create recommendation model: %v", contractx.ErrModelInvoke, err)
	}

	router, err := newRouter(ctx, routerModel, prompts.Router)
	if err != nil {
		return nil, err
	}

	infos, executor := toolx.BuildForRetrieval(catalog, embedder)
	retriever, err := newRetriever(ctx, retrievalModel, prompts.Retrieval, infos, executor)
	if err != nil {
		return nil, err
	}

	recommender, err := newRecommender(ctx, recommendationModel, prompts.Recommendation, prompts.Refusal)
	if err != nil {
		return nil, err
	}

	return &registryImpl{
		router:      router,
		retriever:   retriever,
		recommender: recommender,
	}, nil
}
