package supervisor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/siravitp/agentic-recsys/agent/contract"
	transcriptx "github.com/siravitp/agentic-recsys/agent/transcript"
)

// turnState carries one routing turn through the graph. The transcript is
// append-only; each node adds at most one message.
type turnState struct {
	Query      string
	Transcript *transcriptx.Transcript

	Decision      contractx.Decision
	LastRetrieved contractx.RetrievalResult

	Done   bool
	Answer string
}

func (s *Supervisor) compileTurnGraph(
	ctx context.Context,
) (compose.Runnable[*turnState, *turnState], error) {
	graph := compose.NewGraph[*turnState, *turnState]()

	if err := graph.AddLambdaNode("route",
		compose.InvokableLambda(func(ctx context.Context, st *turnState) (*turnState, error) {
			return s.route(ctx, st)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node route: %w", err)
	}

	if err := graph.AddLambdaNode("retrieval_step",
		compose.InvokableLambda(func(ctx context.Context, st *turnState) (*turnState, error) {
			return s.runRetrieval(ctx, st)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node retrieval_step: %w", err)
	}

	if err := graph.AddLambdaNode("recommendation_step",
		compose.InvokableLambda(func(ctx context.Context, st *turnState) (*turnState, error) {
			return s.runRecommendation(ctx, st)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node recommendation_step: %w", err)
	}

	if err := graph.AddLambdaNode("finish_step",
		compose.InvokableLambda(func(ctx context.Context, st *turnState) (*turnState, error) {
			return s.finish(ctx, st)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finish_step: %w", err)
	}

	branch := compose.NewGraphBranch(
		func(ctx context.Context, st *turnState) (string, error) {
			if st == nil {
				return "", fmt.Errorf("%w: turn state is nil", contractx.ErrValidation)
			}
			switch st.Decision {
			case contractx.DecisionRetrieval:
				return "retrieval_step", nil
			case contractx.DecisionRecommendation:
				return "recommendation_step", nil
			case contractx.DecisionFinish:
				return "finish_step", nil
			default:
				return "", fmt.Errorf("%w: unsupported decision %q", contractx.ErrSchemaViolation, st.Decision)
			}
		},
		map[string]bool{
			"retrieval_step":      true,
			"recommendation_step": true,
			"finish_step":         true,
		},
	)

	if err := graph.AddEdge(compose.START, "route"); err != nil {
		return nil, fmt.Errorf("add edge start->route: %w", err)
	}
	if err := graph.AddBranch("route", branch); err != nil {
		return nil, fmt.Errorf("add routing branch: %w", err)
	}
	if err := graph.AddEdge("retrieval_step", compose.END); err != nil {
		return nil, fmt.Errorf("add edge retrieval->end: %w", err)
	}
	if err := graph.AddEdge("recommendation_step", compose.END); err != nil {
		return nil, fmt.Errorf("add edge recommendation->end: %w", err)
	}
	if err := graph.AddEdge("finish_step", compose.END); err != nil {
		return nil, fmt.Errorf("add edge finish->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("supervisor.turn_graph"))
	if err != nil {
		return nil, fmt.Errorf("compile supervisor turn graph: %w", err)
	}
	return runner, nil
}

func (s *Supervisor) route(ctx context.Context, st *turnState) (*turnState, error) {
	if st == nil || st.Transcript == nil {
		return nil, fmt.Errorf("%w: turn state is nil", contractx.ErrValidation)
	}

	decision, err := s.models.Router().Route(ctx, contractx.RouteRequest{
		Transcript: st.Transcript,
		Now:        s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	st.Decision = decision
	st.Transcript.SetNext(string(decision))
	return st, nil
}

func (s *Supervisor) runRetrieval(ctx context.Context, st *turnState) (*turnState, error) {
	result, err := s.models.Retriever().Retrieve(ctx, st.Transcript.UserQuery())
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal retrieval result: %v", contractx.ErrValidation, err)
	}

	st.LastRetrieved = result
	st.Transcript.Append(transcriptx.Message{
		Role:    transcriptx.RoleAssistant,
		Name:    transcriptx.WorkerRetrieval,
		Content: string(encoded),
	})
	return st, nil
}

func (s *Supervisor) runRecommendation(ctx context.Context, st *turnState) (*turnState, error) {
	text, err := s.models.Recommender().Recommend(ctx, contractx.RecommendationRequest{
		Query:     st.Query,
		Retrieved: st.LastRetrieved,
	})
	if err != nil {
		return nil, err
	}

	st.Transcript.Append(transcriptx.Message{
		Role:    transcriptx.RoleAssistant,
		Name:    transcriptx.WorkerRecommendation,
		Content: text,
	})

	// recommendation is always terminal
	st.Answer = text
	st.Done = true
	return st, nil
}

func (s *Supervisor) finish(ctx context.Context, st *turnState) (*turnState, error) {
	if !st.Transcript.WorkerRan() {
		// First-pass finish: the query was judged out of scope before any
		// worker ran, so generate the polite refusal.
		refusal, err := s.models.Recommender().Refuse(ctx, st.Query)
		if err != nil {
			return nil, err
		}
		st.Transcript.Append(transcriptx.Message{
			Role:    transcriptx.RoleAssistant,
			Content: refusal,
		})
		st.Answer = refusal
		st.Done = true
		return st, nil
	}

	st.Answer = st.Transcript.LastAssistantContent()
	st.Done = true
	return st, nil
}
