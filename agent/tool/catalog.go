package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	catalogx "github.com/siravitp/agentic-recsys/agent/catalog"
	contractx "github.com/siravitp/agentic-recsys/agent/contract"
)

const (
	ToolProductSearch      = "products.search"
	ToolDistinctProducts   = "products.list_distinct"
	ToolCooccurrenceLookup = "cooccurrences.lookup"
)

// Executor runs one named tool call. Infrastructure failures are reported in
// ToolResult.Error rather than as a Go error so the retrieval loop can
// degrade instead of aborting.
type Executor func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error)

// BuildForRetrieval returns the retrieval agent's tool declarations and an
// executor backed by the catalog store and embedding client.
func BuildForRetrieval(catalog contractx.Catalog, embedder contractx.Embedder) ([]*schema.ToolInfo, Executor) {
	return Infos(), NewExecutor(catalog, embedder)
}

func Infos() []*schema.ToolInfo {
	return []*schema.ToolInfo{
		{
			Name: ToolProductSearch,
			Desc: "Semantic similarity search over the product catalog. Returns product details including categories, franchise, minimum age, and per-store sold counts.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {Type: schema.String, Desc: "Free text describing what the user wants", Required: true},
			}),
		},
		{
			Name: ToolCooccurrenceLookup,
			Desc: "Products most frequently bought together with the given product, ordered by co-purchase count.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"product_name": {Type: schema.String, Desc: "Exact product name as stored in the catalog", Required: true},
				"limit":        {Type: schema.Integer, Desc: "Maximum rows to return (default 15)"},
			}),
		},
		{
			Name: ToolDistinctProducts,
			Desc: "All distinct product names present in the catalog.",
		},
	}
}

func NewExecutor(catalog contractx.Catalog, embedder contractx.Embedder) Executor {
	return func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error) {
		switch tool {
		case ToolProductSearch:
			return executeProductSearch(ctx, catalog, embedder, args)
		case ToolCooccurrenceLookup:
			return executeCooccurrenceLookup(ctx, catalog, args)
		case ToolDistinctProducts:
			return executeDistinctProducts(ctx, catalog)
		default:
			return contractx.ToolResult{
				Tool:  tool,
				Error: fmt.Sprintf("tool=%s is not available to the retrieval agent", tool),
			}, nil
		}
	}
}

func executeProductSearch(
	ctx context.Context,
	catalog contractx.Catalog,
	embedder contractx.Embedder,
	args map[string]any,
) (contractx.ToolResult, error) {
	query, err := stringArg(args, "query")
	if err != nil {
		return contractx.ToolResult{Tool: ToolProductSearch, Error: err.Error()}, nil
	}

	log.Debug().Str("query", query).Msg("running embedding search")

	_, vector, err := embedder.Embed(ctx, query)
	if err != nil {
		return contractx.ToolResult{
			Tool:  ToolProductSearch,
			Error: fmt.Errorf("%w: %v", contractx.ErrEmbeddingFailed, err).Error(),
		}, nil
	}

	matches, err := catalog.SearchByEmbedding(ctx, vector, catalogx.DefaultSearchLimit)
	if err != nil {
		return contractx.ToolResult{Tool: ToolProductSearch, Error: err.Error()}, nil
	}

	log.Debug().Int("matches", len(matches)).Msg("embedding search done")
	return contractx.ToolResult{Tool: ToolProductSearch, Result: matches}, nil
}

func executeCooccurrenceLookup(
	ctx context.Context,
	catalog contractx.Catalog,
	args map[string]any,
) (contractx.ToolResult, error) {
	name, err := stringArg(args, "product_name")
	if err != nil {
		return contractx.ToolResult{Tool: ToolCooccurrenceLookup, Error: err.Error()}, nil
	}

	limit := intArg(args, "limit", catalogx.DefaultCooccurrenceLimit)

	log.Debug().Str("product", name).Int("limit", limit).Msg("querying co-occurrences")

	pairs, err := catalog.CooccurrencesFor(ctx, name, limit)
	if err != nil {
		return contractx.ToolResult{Tool: ToolCooccurrenceLookup, Error: err.Error()}, nil
	}
	if pairs == nil {
		// a product with no recorded co-purchases is valid input
		pairs = []contractx.CooccurrencePair{}
	}

	return contractx.ToolResult{
		Tool: ToolCooccurrenceLookup,
		Result: contractx.CooccurrenceGroup{
			Product: name,
			Related: pairs,
		},
	}, nil
}

func executeDistinctProducts(ctx context.Context, catalog contractx.Catalog) (contractx.ToolResult, error) {
	log.Debug().Msg("fetching distinct product names")

	names, err := catalog.DistinctProductNames(ctx)
	if err != nil {
		return contractx.ToolResult{Tool: ToolDistinctProducts, Error: err.Error()}, nil
	}
	if names == nil {
		names = []string{}
	}

	log.Debug().Int("count", len(names)).Msg("distinct product names fetched")
	return contractx.ToolResult{Tool: ToolDistinctProducts, Result: names}, nil
}

func stringArg(args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok {
		return "", fmt.Errorf("%s is required", key)
	}
	value, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%s is empty", key)
	}
	return value, nil
}

func intArg(args map[string]any, key string, fallback int) int {
	raw, ok := args[key]
	if !ok {
		return fallback
	}
	switch v := raw.(type) {
	case int:
		if v > 0 {
			return v
		}
	case int64:
		if v > 0 {
			return int(v)
		}
	case float64:
		if v > 0 {
			return int(v)
		}
	}
	return fallback
}
