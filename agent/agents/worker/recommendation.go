package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/siravitp/agentic-recsys/agent/contract"
)

type recommenderImpl struct {
	runner        compose.Runnable[map[string]any, *schema.Message]
	refusalRunner compose.Runnable[map[string]any, *schema.Message]
}

func newRecommender(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	refusalPrompt string,
) (*recommenderImpl, error) {
	runner, err := compilePromptGraph(ctx, chatModel, systemPrompt, "recommendation.model_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile recommendation graph: %v", contractx.ErrModelInvoke, err)
	}
	refusalRunner, err := compilePromptGraph(ctx, chatModel, refusalPrompt, "recommendation.refusal_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile refusal graph: %v", contractx.ErrModelInvoke, err)
	}
	return &recommenderImpl{
		runner:        runner,
		refusalRunner: refusalRunner,
	}, nil
}

// Recommend turns the retrieved data plus the original query into the final
// customer-facing text. The data-grounding constraints live in the prompt;
// the retrieved payload is the model's only data source.
func (r *recommenderImpl) Recommend(ctx context.Context, req contractx.RecommendationRequest) (string, error) {
	if strings.TrimSpace(req.Query) == "" {
		return "", fmt.Errorf("%w: user query is required", contractx.ErrValidation)
	}

	payload := map[string]any{
		"user_query":   req.Query,
		"queried_data": req.Retrieved,
	}
	inputBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: marshal recommendation payload: %v", contractx.ErrValidation, err)
	}

	msg, err := r.runner.Invoke(ctx, map[string]any{
		"input": string(inputBytes),
	})
	if err != nil {
		return "", fmt.Errorf("%w: recommendation invoke: %v", contractx.ErrModelInvoke, err)
	}

	text := strings.TrimSpace(messageContent(msg))
	if text == "" {
		return "", fmt.Errorf("%w: recommendation is empty", contractx.ErrSchemaViolation)
	}
	return text, nil
}

// Refuse generates the polite out-of-scope reply for queries the supervisor
// declined to dispatch.
func (r *recommenderImpl) Refuse(ctx context.Context, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", fmt.Errorf("%w: user query is required", contractx.ErrValidation)
	}

	msg, err := r.refusalRunner.Invoke(ctx, map[string]any{
		"input": query,
	})
	if err != nil {
		return "", fmt.Errorf("%w: refusal invoke: %v", contractx.ErrModelInvoke, err)
	}

	text := strings.TrimSpace(messageContent(msg))
	if text == "" {
		return "", fmt.Errorf("%w: refusal is empty", contractx.ErrSchemaViolation)
	}
	return text, nil
}

func messageContent(msg *schema.Message) string {
	if msg == nil {
		return ""
	}
	return msg.Content
}
