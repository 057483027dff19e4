package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"

	contractx "github.com/siravitp/agentic-recsys/agent/contract"
)

type routerImpl struct {
	runner compose.Runnable[map[string]any, routerLLMOutput]
}

type routerLLMOutput struct {
	Next string `json:"next"`
}

func newRouter(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*routerImpl, error) {
	runner, err := compileStructuredLLMGraph[routerLLMOutput](ctx, chatModel, systemPrompt, "router.model_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile router graph: %v", contractx.ErrModelInvoke, err)
	}
	return &routerImpl{runner: runner}, nil
}

// Route presents the full transcript to the structured-decision model and
// returns one of the enumerated next steps.
func (r *routerImpl) Route(ctx context.Context, req contractx.RouteRequest) (contractx.Decision, error) {
	if req.Transcript == nil || len(req.Transcript.Messages) == 0 {
		return "", fmt.Errorf("%w: transcript is empty", contractx.ErrValidation)
	}

	payload := map[string]any{
		"messages":      req.Transcript.Messages,
		"previous_next": req.Transcript.Next,
	}
	if !req.Now.IsZero() {
		payload["now"] = req.Now.UTC().Format(time.RFC3339)
	}
	inputBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: marshal router payload: %v", contractx.ErrValidation, err)
	}

	out, err := r.runner.Invoke(ctx, map[string]any{
		"input": string(inputBytes),
	})
	if err != nil {
		return "", fmt.Errorf("%w: router invoke: %v", contractx.ErrModelInvoke, err)
	}

	decision := contractx.Decision(strings.ToLower(strings.TrimSpace(out.Next)))
	if !decision.Valid() {
		return "", fmt.Errorf("%w: unsupported routing decision %q", contractx.ErrSchemaViolation, out.Next)
	}
	return decision, nil
}
