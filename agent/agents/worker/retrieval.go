package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/siravitp/agentic-recsys/agent/contract"
	toolx "github.com/siravitp/agentic-recsys/agent/tool"
)

// maxToolRounds bounds the tool-calling loop. This is the only iteration
// limit inside a worker and must stay in place: ambiguous model output must
// degrade, not loop.
const maxToolRounds = 5

type retrieverImpl struct {
	runner       compose.Runnable[[]*schema.Message, *schema.Message]
	executor     toolx.Executor
	allowedTools map[string]struct{}
	systemPrompt string
}

func newRetriever(
	ctx context.Context,
	chatModel einomodel.ToolCallingChatModel,
	systemPrompt string,
	infos []*schema.ToolInfo,
	executor toolx.Executor,
) (*retrieverImpl, error) {
	toolModel, err := chatModel.WithTools(infos)
	if err != nil {
		return nil, fmt.Errorf("%w: bind retrieval tools: %v", contractx.ErrModelInvoke, err)
	}

	runner, err := compileToolLoopGraph(ctx, toolModel, "retrieval.tool_loop_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile retrieval graph: %v", contractx.ErrModelInvoke, err)
	}

	allowed := make(map[string]struct{}, len(infos))
	for _, t := range infos {
		if t == nil || strings.TrimSpace(t.Name) == "" {
			continue
		}
		allowed[t.Name] = struct{}{}
	}

	return &retrieverImpl{
		runner:       runner,
		executor:     executor,
		allowedTools: allowed,
		systemPrompt: systemPrompt,
	}, nil
}

// Retrieve drives the model's tool selection for up to maxToolRounds rounds
// and accumulates the structured result from actual tool outputs. The result
// therefore can never contain data a tool did not produce. A hard model
// failure aborts the query; tool failures only degrade the result.
func (r *retrieverImpl) Retrieve(ctx context.Context, query string) (contractx.RetrievalResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return contractx.RetrievalResult{}, fmt.Errorf("%w: query is required", contractx.ErrValidation)
	}

	messages := []*schema.Message{
		schema.SystemMessage(r.systemPrompt),
		schema.UserMessage(query),
	}

	result := contractx.RetrievalResult{
		Products:      []contractx.ProductMatch{},
		Cooccurrences: []contractx.CooccurrenceGroup{},
	}

	toolRounds := 0
	for round := 0; round < maxToolRounds; round++ {
		msg, err := r.runner.Invoke(ctx, messages)
		if err != nil {
			return contractx.RetrievalResult{}, fmt.Errorf("%w: retrieval invoke: %v", contractx.ErrModelInvoke, err)
		}
		if msg == nil {
			return contractx.RetrievalResult{}, fmt.Errorf("%w: empty retrieval response", contractx.ErrSchemaViolation)
		}

		if len(msg.ToolCalls) == 0 {
			// Model is done gathering; the accumulated result is complete.
			return result, nil
		}

		toolRounds++
		messages = append(messages, msg)
		for _, call := range msg.ToolCalls {
			messages = append(messages, r.executeCall(ctx, call, &result))
		}
	}

	// Round budget exhausted; surface whatever the tools produced.
	log.Warn().
		Int("rounds", toolRounds).
		Err(contractx.ErrToolOutputMalformed).
		Msg("retrieval loop hit round cap, returning degraded result")
	result.Degraded = true
	return result, nil
}

// executeCall runs one tool call, folds its output into the result, and
// returns the tool message fed back to the model.
func (r *retrieverImpl) executeCall(
	ctx context.Context,
	call schema.ToolCall,
	result *contractx.RetrievalResult,
) *schema.Message {
	name := strings.TrimSpace(call.Function.Name)
	if name == "" {
		result.Degraded = true
		return schema.ToolMessage("tool call name is empty", call.ID)
	}
	if _, ok := r.allowedTools[name]; !ok {
		result.Degraded = true
		return schema.ToolMessage(fmt.Sprintf("tool=%s is not available", name), call.ID)
	}

	args := map[string]any{}
	if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			result.Degraded = true
			return schema.ToolMessage(fmt.Sprintf("invalid tool arguments: %v", err), call.ID)
		}
	}

	out, err := r.executor(ctx, name, args)
	if err != nil {
		result.Degraded = true
		return schema.ToolMessage(fmt.Sprintf("tool execution failed: %v", err), call.ID)
	}
	if out.Error != "" {
		log.Debug().Str("tool", name).Str("error", out.Error).Msg("tool call failed")
		result.Degraded = true
		return schema.ToolMessage(out.Error, call.ID)
	}

	accumulate(out, result)

	content, err := json.Marshal(out.Result)
	if err != nil {
		result.Degraded = true
		return schema.ToolMessage(fmt.Sprintf("marshal tool result: %v", err), call.ID)
	}
	return schema.ToolMessage(string(content), call.ID)
}

// accumulate folds a successful tool output into the structured result.
// Distinct-name listings inform the model but are not part of the final
// payload, matching the result's two named lists.
func accumulate(out contractx.ToolResult, result *contractx.RetrievalResult) {
	switch payload := out.Result.(type) {
	case []contractx.ProductMatch:
		result.Products = append(result.Products, payload...)
	case contractx.CooccurrenceGroup:
		result.Cooccurrences = append(result.Cooccurrences, payload)
	}
}
