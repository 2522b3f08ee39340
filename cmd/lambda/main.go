package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"plancompare-agent/handler"
	"plancompare-agent/internal/config"
	"plancompare-agent/internal/integrations/ai21"
	"plancompare-agent/internal/integrations/paramstore"
	"plancompare-agent/internal/planstore"
	"plancompare-agent/internal/repository"
	"plancompare-agent/internal/usecase"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	paramPrefix := mustEnv("PARAM_PREFIX")
	historyTable := os.Getenv("HISTORY_TABLE")
	maxQuestionLen := envInt("MAX_QUESTION_LENGTH", 500)

	catalog := config.Default()
	if path := os.Getenv("CATALOG_FILE"); path != "" {
		var err error
		catalog, err = config.Load(path)
		if err != nil {
			slog.Error("failed to load catalog", "err", err)
			os.Exit(1)
		}
	}

	// Plan documents load at cold start; a missing file fails the function
	// before it ever serves a request.
	plans := planstore.New(catalog.DataDir, catalog.PlanFiles)
	if err := plans.Load(); err != nil {
		slog.Error("failed to load plan documents", "err", err)
		os.Exit(1)
	}

	// ---- AWS SDK config ----
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(cfg))
	if err != nil {
		slog.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}

	llm, err := ai21.NewClient(ssmClient, paramPrefix)
	if err != nil {
		slog.Error("failed to create AI21 client", "err", err)
		os.Exit(1)
	}

	var historyWriter usecase.HistoryWriter
	if historyTable != "" {
		repo, err := repository.New(awsdynamodb.NewFromConfig(cfg), historyTable)
		if err != nil {
			slog.Error("failed to create history repository", "err", err)
			os.Exit(1)
		}
		historyWriter = repo
	}

	// ---- Handler ----
	compareService, err := usecase.NewCompareService(plans, llm, historyWriter, catalog.SystemPrompt, catalog.ModelParams(), maxQuestionLen)
	if err != nil {
		slog.Error("failed to create compare service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewHandler(compareService)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
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
