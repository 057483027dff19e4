package contract

import (
	"time"

	transcriptx "github.com/siravitp/agentic-recsys/agent/transcript"
)

type AgentType string

const (
	AgentTypeRouter         AgentType = "router"
	AgentTypeRetrieval      AgentType = "retrieval"
	AgentTypeRecommendation AgentType = "recommendation"
)

// Decision is the router's enumerated next step.
type Decision string

const (
	DecisionRetrieval      Decision = "retrieval"
	DecisionRecommendation Decision = "recommendation"
	DecisionFinish         Decision = "finish"
)

func (d Decision) Valid() bool {
	switch d {
	case DecisionRetrieval, DecisionRecommendation, DecisionFinish:
		return true
	}
	return false
}

type RouteRequest struct {
	Transcript *transcriptx.Transcript `json:"transcript"`
	Now        time.Time               `json:"now"`
}

// ProductMatch is one nearest-neighbor search hit. Internal columns (id,
// text, tokens, embedding) are deliberately excluded.
type ProductMatch struct {
	Name          string     `bun:"name" json:"name"`
	ReleaseDate   *time.Time `bun:"release_date" json:"release_date,omitempty"`
	TimesSold     int        `bun:"times_sold" json:"times_sold"`
	StoreA        int        `bun:"store_a" json:"store_a"`
	StoreB        int        `bun:"store_b" json:"store_b"`
	StoreC        int        `bun:"store_c" json:"store_c"`
	Type          string     `bun:"type" json:"type"`
	Category      string     `bun:"category" json:"category"`
	Franchise     string     `bun:"franchise" json:"franchise"`
	MinAge        int        `bun:"min_age" json:"min_age"`
	MajorCategory string     `bun:"major_category" json:"major_category"`
}

// CooccurrencePair is one undirected co-purchase row. Product1 and Product2
// are stored in canonical (lexicographic) order.
type CooccurrencePair struct {
	Product1 string `bun:"product1" json:"product1"`
	Product2 string `bun:"product2" json:"product2"`
	Count    int    `bun:"cooccurrence_count" json:"cooccurrence_count"`
}

// CooccurrenceGroup keys a co-occurrence lookup by the product that anchored
// it, since the caller cannot know the canonical column order.
type CooccurrenceGroup struct {
	Product string             `json:"product"`
	Related []CooccurrencePair `json:"related"`
}

// RetrievalResult is the retrieval agent's merged structured output. It is
// always well-formed; Degraded marks a partial result produced after the
// tool-calling loop exhausted its round budget.
type RetrievalResult struct {
	Products      []ProductMatch      `json:"products"`
	Cooccurrences []CooccurrenceGroup `json:"cooccurrences"`
	Degraded      bool                `json:"degraded,omitempty"`
}

type RecommendationRequest struct {
	Query     string          `json:"query"`
	Retrieved RetrievalResult `json:"retrieved"`
}

type ToolResult struct {
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}
