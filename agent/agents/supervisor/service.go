package supervisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	contractx "github.com/siravitp/agentic-recsys/agent/contract"
	transcriptx "github.com/siravitp/agentic-recsys/agent/transcript"
)

// maxTurns bounds the routing loop. Recommendation and finish are terminal,
// so a well-behaved decider always terminates; the cap only guards against a
// decider that answers "retrieval" forever.
const maxTurns = 8

var ErrInvalidQuery = errors.New("query is empty")

// Supervisor owns the turn-based routing state machine over the shared
// transcript. One Supervisor handles many concurrent queries; each Answer
// call runs its own graph instance with no shared mutable state.
type Supervisor struct {
	models  contractx.Registry
	archive transcriptx.ArchiveStore

	turnRunner compose.Runnable[*turnState, *turnState]

	now func() time.Time
}

type Option func(*Supervisor)

// WithArchiveStore enables best-effort persistence of finished conversations.
func WithArchiveStore(store transcriptx.ArchiveStore) Option {
	return func(s *Supervisor) {
		s.archive = store
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Supervisor) {
		if now != nil {
			s.now = now
		}
	}
}

func New(models contractx.Registry, opts ...Option) (*Supervisor, error) {
	if models == nil {
		return nil, errors.New("worker registry is required")
	}

	s := &Supervisor{
		models: models,
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	turnRunner, err := s.compileTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	s.turnRunner = turnRunner

	return s, nil
}

// Answer runs the full routing state machine for one user query and returns
// the final recommendation or refusal text.
func (s *Supervisor) Answer(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("%w: %v", contractx.ErrInvalidInput, ErrInvalidQuery)
	}

	st := &turnState{
		Query:      query,
		Transcript: transcriptx.New(query),
	}

	for turn := 0; turn < maxTurns; turn++ {
		out, err := s.turnRunner.Invoke(ctx, st)
		if err != nil {
			return "", err
		}
		st = out

		log.Debug().
			Int("turn", turn).
			Str("next", string(st.Decision)).
			Bool("done", st.Done).
			Msg("routing turn completed")

		if st.Done {
			s.archiveConversation(ctx, st)
			return st.Answer, nil
		}
	}

	return "", fmt.Errorf("%w: routing did not terminate within %d turns", contractx.ErrSchemaViolation, maxTurns)
}

func (s *Supervisor) archiveConversation(ctx context.Context, st *turnState) {
	if s.archive == nil {
		return
	}

	rec := &transcriptx.ConversationRecord{
		Query:     st.Query,
		Answer:    st.Answer,
		Messages:  st.Transcript.Messages,
		Next:      st.Transcript.Next,
		CreatedAt: s.now().UTC(),
	}
	if err := s.archive.Save(ctx, rec); err != nil {
		// archival is best-effort; the answer already exists
		log.Warn().Err(err).Msg("archive conversation failed")
	}
}
