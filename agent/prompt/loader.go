package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/router.txt
	routerRaw string

	//go:embed template/retrieval.txt
	retrievalRaw string

	//go:embed template/recommendation.txt
	recommendationRaw string

	//go:embed template/refusal.txt
	refusalRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Router         string
	Retrieval      string
	Recommendation string
	Refusal        string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Router:         strings.TrimSpace(routerRaw),
		Retrieval:      strings.TrimSpace(retrievalRaw),
		Recommendation: strings.TrimSpace(recommendationRaw),
		Refusal:        strings.TrimSpace(refusalRaw),
	}
}
