package contract

import "context"

// Router is the pluggable structured-decision strategy. Implementations may
// be model-backed or rule-based; the supervisor only sees this signature.
type Router interface {
	Route(ctx context.Context, req RouteRequest) (Decision, error)
}

type Retriever interface {
	Retrieve(ctx context.Context, query string) (RetrievalResult, error)
}

type Recommender interface {
	Recommend(ctx context.Context, req RecommendationRequest) (string, error)
	// Refuse produces the polite scope-refusal reply for out-of-domain
	// queries judged unroutable on the first pass.
	Refuse(ctx context.Context, query string) (string, error)
}

type Registry interface {
	Router() Router
	Retriever() Retriever
	Recommender() Recommender
}

// Embedder converts free text into a fixed-dimension vector plus the token
// count the upstream service charged for it.
type Embedder interface {
	Embed(ctx context.Context, text string) (tokens int, vector []float32, err error)
}

// Catalog is the read-only query surface of the product store.
type Catalog interface {
	DistinctProductNames(ctx context.Context) ([]string, error)
	SearchByEmbedding(ctx context.Context, vector []float32, limit int) ([]ProductMatch, error)
	CooccurrencesFor(ctx context.Context, productName string, limit int) ([]CooccurrencePair, error)
}
