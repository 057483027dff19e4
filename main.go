package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/siravitp/agentic-recsys/agent/agents/supervisor"
	"github.com/siravitp/agentic-recsys/agent/agents/worker"
	catalogx "github.com/siravitp/agentic-recsys/agent/catalog"
	embeddingx "github.com/siravitp/agentic-recsys/agent/embedding"
	llmx "github.com/siravitp/agentic-recsys/agent/llm"
	transcriptx "github.com/siravitp/agentic-recsys/agent/transcript"
	configx "github.com/siravitp/agentic-recsys/pkg/config"
	_ "github.com/siravitp/agentic-recsys/pkg/logger/autoload"
	openaix "github.com/siravitp/agentic-recsys/pkg/openaix"
)

type AppConfig struct {
	ArchiveConversations bool `envconfig:"ARCHIVE_CONVERSATIONS" split_words:"true" default:"false"`
}

func main() {
	appCfg := configx.MustNew[AppConfig]("")
	llmCfg := configx.MustNew[llmx.Config]("OPENAI")
	catalogCfg := configx.MustNew[catalogx.Config]("CATALOG")

	query := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if query == "" {
		fmt.Fprintln(os.Stderr, `usage: recsys "<user query>"`)
		os.Exit(2)
	}

	ctx := context.Background()

	store, err := catalogx.New(*catalogCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("connect catalog store")
	}
	defer store.Close()

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

	registry, err := worker.NewRegistry(ctx, *llmCfg, store, embedder)
	if err != nil {
		log.Fatal().Err(err).Msg("create worker registry")
	}

	var opts []supervisor.Option
	if appCfg.ArchiveConversations {
		upstashCfg := configx.MustNew[transcriptx.UpstashConfig]("UPSTASH_REDIS")
		archive, err := transcriptx.NewUpstashArchiveStore(*upstashCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("create conversation archive store")
		}
		opts = append(opts, supervisor.WithArchiveStore(archive))
	}

	sup, err := supervisor.New(registry, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("create supervisor")
	}

	answer, err := sup.Answer(ctx, query)
	if err != nil {
		log.Error().Err(err).Msg("query failed")
		fmt.Println("Sorry, I am unable to answer right now. Please try again in a moment.")
		os.Exit(1)
	}

	fmt.Println(answer)
}
