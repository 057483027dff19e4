package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/siravitp/agentic-recsys/agent/contract"
	toolx "github.com/siravitp/agentic-recsys/agent/tool"
)

func toolCallMessage(id, name, args string) *schema.Message {
	return &schema.Message{
		Role: schema.Assistant,
		ToolCalls: []schema.ToolCall{
			{
				ID:   id,
				Type: "function",
				Function: schema.FunctionCall{
					Name:      name,
					Arguments: args,
				},
			},
		},
	}
}

func retrievalToolInfos() []*schema.ToolInfo {
	return []*schema.ToolInfo{
		{Name: toolx.ToolProductSearch},
		{Name: toolx.ToolCooccurrenceLookup},
		{Name: toolx.ToolDistinctProducts},
	}
}

func TestRetrieveAccumulatesToolOutputs(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			toolCallMessage("call_1", toolx.ToolProductSearch, `{"query":"racing game"}`),
			toolCallMessage("call_2", toolx.ToolCooccurrenceLookup, `{"product_name":"Mario Kart 8 Deluxe"}`),
			{Role: schema.Assistant, Content: "done"},
		},
	}

	executor := func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error) {
		switch tool {
		case toolx.ToolProductSearch:
			return contractx.ToolResult{
				Tool:   tool,
				Result: []contractx.ProductMatch{{Name: "Mario Kart 8 Deluxe"}},
			}, nil
		case toolx.ToolCooccurrenceLookup:
			return contractx.ToolResult{
				Tool: tool,
				Result: contractx.CooccurrenceGroup{
					Product: "Mario Kart 8 Deluxe",
					Related: []contractx.CooccurrencePair{
						{Product1: "Mario Kart 8 Deluxe", Product2: "Splatoon 3", Count: 4},
					},
				},
			}, nil
		}
		return contractx.ToolResult{Tool: tool, Error: "unexpected tool"}, nil
	}

	retriever, err := newRetriever(context.Background(), fake, "retrieval prompt", retrievalToolInfos(), executor)
	if err != nil {
		t.Fatalf("newRetriever() error = %v", err)
	}

	result, err := retriever.Retrieve(context.Background(), "racing game for kids")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if result.Degraded {
		t.Fatal("result must not be degraded")
	}
	if len(result.Products) != 1 || result.Products[0].Name != "Mario Kart 8 Deluxe" {
		t.Fatalf("unexpected products: %+v", result.Products)
	}
	if len(result.Cooccurrences) != 1 || result.Cooccurrences[0].Product != "Mario Kart 8 Deluxe" {
		t.Fatalf("unexpected cooccurrences: %+v", result.Cooccurrences)
	}
}

func TestRetrieveFeedsToolOutputBackToModel(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			toolCallMessage("call_1", toolx.ToolProductSearch, `{"query":"racing game"}`),
			{Role: schema.Assistant, Content: "done"},
		},
	}

	matches := []contractx.ProductMatch{{Name: "Mario Kart 8 Deluxe"}}
	executor := func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error) {
		return contractx.ToolResult{Tool: tool, Result: matches}, nil
	}

	retriever, err := newRetriever(context.Background(), fake, "retrieval prompt", retrievalToolInfos(), executor)
	if err != nil {
		t.Fatalf("newRetriever() error = %v", err)
	}

	if _, err := retriever.Retrieve(context.Background(), "racing game"); err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}

	// The second model round must see the tool message with the call id.
	last := fake.lastInput[len(fake.lastInput)-1]
	if last.Role != schema.Tool {
		t.Fatalf("last message role = %s, want tool", last.Role)
	}
	if last.ToolCallID != "call_1" {
		t.Fatalf("tool call id = %q, want call_1", last.ToolCallID)
	}
	var echoed []contractx.ProductMatch
	if err := json.Unmarshal([]byte(last.Content), &echoed); err != nil {
		t.Fatalf("tool message content is not the tool output: %v", err)
	}
	if len(echoed) != 1 || echoed[0].Name != "Mario Kart 8 Deluxe" {
		t.Fatalf("unexpected echoed output: %+v", echoed)
	}
}

func TestRetrieveDistinctNamesNotInResult(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			toolCallMessage("call_1", toolx.ToolDistinctProducts, `{}`),
			{Role: schema.Assistant, Content: "done"},
		},
	}

	executor := func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error) {
		return contractx.ToolResult{Tool: tool, Result: []string{"A", "B"}}, nil
	}

	retriever, err := newRetriever(context.Background(), fake, "retrieval prompt", retrievalToolInfos(), executor)
	if err != nil {
		t.Fatalf("newRetriever() error = %v", err)
	}

	result, err := retriever.Retrieve(context.Background(), "what games do you have")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(result.Products) != 0 || len(result.Cooccurrences) != 0 {
		t.Fatalf("name listing leaked into the result: %+v", result)
	}
	if result.Degraded {
		t.Fatal("successful listing must not degrade the result")
	}
}

func TestRetrieveDisallowedToolDegrades(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			toolCallMessage("call_1", "orders.create", `{}`),
			{Role: schema.Assistant, Content: "done"},
		},
	}

	executorRan := false
	executor := func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error) {
		executorRan = true
		return contractx.ToolResult{Tool: tool}, nil
	}

	retriever, err := newRetriever(context.Background(), fake, "retrieval prompt", retrievalToolInfos(), executor)
	if err != nil {
		t.Fatalf("newRetriever() error = %v", err)
	}

	result, err := retriever.Retrieve(context.Background(), "racing game")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if !result.Degraded {
		t.Fatal("disallowed tool call must degrade the result")
	}
	if executorRan {
		t.Fatal("executor must not run for a disallowed tool")
	}
}

func TestRetrieveMalformedArgumentsDegrade(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			toolCallMessage("call_1", toolx.ToolProductSearch, `{"query": unquoted}`),
			{Role: schema.Assistant, Content: "done"},
		},
	}

	executor := func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error) {
		t.Error("executor must not run with malformed arguments")
		return contractx.ToolResult{Tool: tool}, nil
	}

	retriever, err := newRetriever(context.Background(), fake, "retrieval prompt", retrievalToolInfos(), executor)
	if err != nil {
		t.Fatalf("newRetriever() error = %v", err)
	}

	result, err := retriever.Retrieve(context.Background(), "racing game")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if !result.Degraded {
		t.Fatal("malformed arguments must degrade the result")
	}
}

func TestRetrieveToolErrorDegradesButKeepsEarlierData(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			toolCallMessage("call_1", toolx.ToolProductSearch, `{"query":"racing game"}`),
			toolCallMessage("call_2", toolx.ToolCooccurrenceLookup, `{"product_name":"Mario Kart 8 Deluxe"}`),
			{Role: schema.Assistant, Content: "done"},
		},
	}

	executor := func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error) {
		if tool == toolx.ToolProductSearch {
			return contractx.ToolResult{
				Tool:   tool,
				Result: []contractx.ProductMatch{{Name: "Mario Kart 8 Deluxe"}},
			}, nil
		}
		return contractx.ToolResult{Tool: tool, Error: "store unavailable"}, nil
	}

	retriever, err := newRetriever(context.Background(), fake, "retrieval prompt", retrievalToolInfos(), executor)
	if err != nil {
		t.Fatalf("newRetriever() error = %v", err)
	}

	result, err := retriever.Retrieve(context.Background(), "racing game")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if !result.Degraded {
		t.Fatal("tool failure must degrade the result")
	}
	if len(result.Products) != 1 {
		t.Fatalf("earlier tool output lost: %+v", result.Products)
	}
	if len(result.Cooccurrences) != 0 {
		t.Fatalf("failed tool must not contribute data: %+v", result.Cooccurrences)
	}
}

func TestRetrieveRoundCapDegrades(t *testing.T) {
	t.Parallel()

	// One tool call per round, never a final answer.
	responses := make([]*schema.Message, 0, maxToolRounds)
	for i := 0; i < maxToolRounds; i++ {
		responses = append(responses, toolCallMessage("call", toolx.ToolDistinctProducts, `{}`))
	}
	fake := &fakeToolCallingModel{responses: responses}

	executor := func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error) {
		return contractx.ToolResult{Tool: tool, Result: []string{"A"}}, nil
	}

	retriever, err := newRetriever(context.Background(), fake, "retrieval prompt", retrievalToolInfos(), executor)
	if err != nil {
		t.Fatalf("newRetriever() error = %v", err)
	}

	result, err := retriever.Retrieve(context.Background(), "racing game")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if !result.Degraded {
		t.Fatal("exhausting the round budget must degrade the result")
	}
}

func TestRetrieveModelFailureIsFatal(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{err: errors.New("upstream down")}

	retriever, err := newRetriever(context.Background(), fake, "retrieval prompt", retrievalToolInfos(), nil)
	if err != nil {
		t.Fatalf("newRetriever() error = %v", err)
	}

	_, err = retriever.Retrieve(context.Background(), "racing game")
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("Retrieve() error = %v, want ErrModelInvoke", err)
	}
	if !errors.Is(err, contractx.ErrUpstreamUnavailable) {
		t.Fatalf("Retrieve() error = %v, must also match ErrUpstreamUnavailable", err)
	}
}

func TestRetrieveEmptyQuery(t *testing.T) {
	t.Parallel()

	retriever, err := newRetriever(context.Background(), &fakeToolCallingModel{}, "retrieval prompt", retrievalToolInfos(), nil)
	if err != nil {
		t.Fatalf("newRetriever() error = %v", err)
	}

	_, err = retriever.Retrieve(context.Background(), "  ")
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("Retrieve() error = %v, want ErrValidation", err)
	}
}
