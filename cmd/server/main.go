package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"plancompare-agent/internal/config"
	"plancompare-agent/internal/integrations/ai21"
	"plancompare-agent/internal/integrations/paramstore"
	"plancompare-agent/internal/planstore"
	"plancompare-agent/internal/repository"
	"plancompare-agent/internal/server"
	"plancompare-agent/internal/usecase"
)

func main() {
	ctx := context.Background()
	log := slog.Default()

	// ---- Configuration (read only here) ----
	addr := envOr("ADDR", ":8080")
	paramPrefix := mustEnv("PARAM_PREFIX")
	historyTable := os.Getenv("HISTORY_TABLE")
	maxQuestionLen := envInt("MAX_QUESTION_LENGTH", 500)

	catalog := config.Default()
	if path := os.Getenv("CATALOG_FILE"); path != "" {
		var err error
		catalog, err = config.Load(path)
		if err != nil {
			log.Error("failed to load catalog", "err", err)
			os.Exit(1)
		}
	}

	// ---- Plan documents (fatal on any missing file) ----
	plans := planstore.New(catalog.DataDir, catalog.PlanFiles)
	if err := plans.Load(); err != nil {
		log.Error("failed to load plan documents", "err", err)
		os.Exit(1)
	}

	// ---- AWS SDK config ----
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(cfg))
	if err != nil {
		log.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}

	var clientOpts []ai21.Option
	if base := os.Getenv("AI21_BASE_URL"); base != "" {
		clientOpts = append(clientOpts, ai21.WithBaseURL(base))
	}
	llm, err := ai21.NewClient(ssmClient, paramPrefix, clientOpts...)
	if err != nil {
		log.Error("failed to create AI21 client", "err", err)
		os.Exit(1)
	}

	var historyWriter usecase.HistoryWriter
	var historyReader server.HistoryReader
	if historyTable != "" {
		repo, err := repository.New(awsdynamodb.NewFromConfig(cfg), historyTable)
		if err != nil {
			log.Error("failed to create history repository", "err", err)
			os.Exit(1)
		}
		historyWriter = repo
		historyReader = repo
	}

	// ---- Pipeline + HTTP surface ----
	compareService, err := usecase.NewCompareService(plans, llm, historyWriter, catalog.SystemPrompt, catalog.ModelParams(), maxQuestionLen)
	if err != nil {
		log.Error("failed to create compare service", "err", err)
		os.Exit(1)
	}

	srv, err := server.New(compareService, server.Catalog{
		PlanNames: plans.Names(),
		Questions: catalog.Questions,
	}, historyReader, log)
	if err != nil {
		log.Error("failed to create server", "err", err)
		os.Exit(1)
	}

	log.Info("listening", "addr", addr, "plans", len(plans.Names()), "history", historyTable != "")
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
