// Command ingest bulk-loads the product catalog: it normalizes and inserts
// the co-occurrence CSV, backfills missing product embeddings through the
// embedding API, and inserts the products. Run once against an empty store.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	catalogx "github.com/siravitp/agentic-recsys/agent/catalog"
	embeddingx "github.com/siravitp/agentic-recsys/agent/embedding"
	llmx "github.com/siravitp/agentic-recsys/agent/llm"
	configx "github.com/siravitp/agentic-recsys/pkg/config"
	_ "github.com/siravitp/agentic-recsys/pkg/logger/autoload"
	openaix "github.com/siravitp/agentic-recsys/pkg/openaix"
)

var (
	cooccurrencePath = flag.String("cooccurrences", "data/cooccurrences_data.csv", "path to co-occurrence csv")
	productsPath     = flag.String("products", "data/products_data.json", "path to products json")
)

func main() {
	llmCfg := configx.MustNew[llmx.Config]("OPENAI")
	catalogCfg := configx.MustNew[catalogx.Config]("CATALOG")

	ctx := context.Background()

	store, err := catalogx.New(*catalogCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("connect catalog store")
	}
	defer store.Close()

	if err := store.Init(ctx); err != nil {
		log.Fatal().Err(err).Msg("initialize schema")
	}

	if err := ingestCooccurrences(ctx, store, *cooccurrencePath); err != nil {
		log.Fatal().Err(err).Str("path", *cooccurrencePath).Msg("ingest co-occurrences")
	}

	embedClient := openaix.NewClient(openaix.Config{
		BaseURL: llmCfg.BaseURL,
		APIKey:  llmCfg.APIKey,
		Model:   llmCfg.EmbeddingModel,
		Timeout: llmCfg.Timeout,
	})
	embedder, err := embeddingx.New(embedClient, llmCfg.EmbeddingModel, catalogx.EmbeddingDim)
	if err != nil {
		log.Fatal().Err(err).Msg("create embedding client")
	}

	if err := ingestProducts(ctx, store, embedder, *productsPath); err != nil {
		log.Fatal().Err(err).Str("path", *productsPath).Msg("ingest products")
	}

	log.Info().Msg("ingestion complete")
}

func ingestCooccurrences(ctx context.Context, store *catalogx.Store, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open co-occurrence csv: %w", err)
	}
	defer file.Close()

	rows, err := catalogx.ReadCooccurrenceCSV(file)
	if err != nil {
		return err
	}

	log.Info().Int("rows", len(rows)).Msg("ingesting product co-occurrence data")
	return store.InsertCooccurrences(ctx, rows)
}

func ingestProducts(ctx context.Context, store *catalogx.Store, embedder *embeddingx.Client, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read products json: %w", err)
	}

	var records []catalogx.ProductRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return fmt.Errorf("parse products json: %w", err)
	}

	log.Info().Int("products", len(records)).Msg("creating missing product embeddings")
	changed, err := catalogx.EnsureEmbeddings(ctx, embedder, records)
	if err != nil {
		return err
	}

	if changed {
		// keep the computed embeddings so a rerun skips the API
		encoded, err := json.MarshalIndent(records, "", "    ")
		if err != nil {
			return fmt.Errorf("encode products json: %w", err)
		}
		if err := os.WriteFile(path, encoded, 0o644); err != nil {
			return fmt.Errorf("rewrite products json: %w", err)
		}
	}

	products := make([]*catalogx.Product, 0, len(records))
	for _, record := range records {
		product, err := record.ToModel()
		if err != nil {
			return err
		}
		products = append(products, product)
	}

	log.Info().Int("products", len(products)).Msg("inserting product data")
	return store.InsertProducts(ctx, products)
}
