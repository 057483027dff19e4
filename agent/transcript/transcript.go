package transcript

import "strings"

// Role identifies who authored a transcript message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Worker names attached to assistant messages so the router can see which
// step produced what.
const (
	WorkerRetrieval      = "retrieval_agent"
	WorkerRecommendation = "recommendation_agent"
)

type Message struct {
	Role    Role   `json:"role"`
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`
}

// Transcript is the shared conversation state threaded through one query's
// graph execution. Messages are append-only; Next records the most recent
// routing decision. The supervisor owns termination, but every worker may
// append.
type Transcript struct {
	Messages []Message `json:"messages"`
	Next     string    `json:"next,omitempty"`
}

// New starts a transcript containing only the user's initial query.
func New(query string) *Transcript {
	return &Transcript{
		Messages: []Message{
			{Role: RoleUser, Content: strings.TrimSpace(query)},
		},
	}
}

func (t *Transcript) Append(m Message) {
	t.Messages = append(t.Messages, m)
}

func (t *Transcript) SetNext(next string) {
	t.Next = next
}

// UserQuery returns the most recent user message.
func (t *Transcript) UserQuery() string {
	for i := len(t.Messages) - 1; i >= 0; i-- {
		if t.Messages[i].Role == RoleUser {
			return t.Messages[i].Content
		}
	}
	return ""
}

// LastAssistantContent returns the most recent assistant message, or "" when
// no worker has produced output yet.
func (t *Transcript) LastAssistantContent() string {
	for i := len(t.Messages) - 1; i >= 0; i-- {
		if t.Messages[i].Role == RoleAssistant {
			return t.Messages[i].Content
		}
	}
	return ""
}

// WorkerRan reports whether any worker has appended output. A transcript
// where this is false still holds only the original user message, which is
// the condition for the first-pass refusal path.
func (t *Transcript) WorkerRan() bool {
	for _, m := range t.Messages {
		if m.Role == RoleAssistant && m.Name != "" {
			return true
		}
	}
	return false
}
