package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kitbuilder587/product-search-bot/internal/agent"
	"github.com/kitbuilder587/product-search-bot/internal/batch"
	"github.com/kitbuilder587/product-search-bot/internal/cache/memory"
	"github.com/kitbuilder587/product-search-bot/internal/config"
	"github.com/kitbuilder587/product-search-bot/internal/domain"
	"github.com/kitbuilder587/product-search-bot/internal/flow"
	"github.com/kitbuilder587/product-search-bot/internal/llm"
	llmmock "github.com/kitbuilder587/product-search-bot/internal/llm/mock"
	"github.com/kitbuilder587/product-search-bot/internal/llm/openrouter"
	"github.com/kitbuilder587/product-search-bot/internal/metrics"
	"github.com/kitbuilder587/product-search-bot/internal/ratelimit"
	"github.com/kitbuilder587/product-search-bot/internal/repository"
	"github.com/kitbuilder587/product-search-bot/internal/repository/file"
	"github.com/kitbuilder587/product-search-bot/internal/repository/postgres"
	"github.com/kitbuilder587/product-search-bot/internal/search"
	searchmock "github.com/kitbuilder587/product-search-bot/internal/search/mock"
	"github.com/kitbuilder587/product-search-bot/internal/search/tavily"
	"github.com/kitbuilder587/product-search-bot/internal/telegram"
)

func main() {
	query := flag.String("query", "", "product to search for")
	queriesFile := flag.String("queries", "", "file with one query per line (batch mode)")
	maxRetailers := flag.Int("max-retailers", 0, "override SEARCH_MAX_RETAILERS")
	maxRetries := flag.Int("max-retries", 0, "override SEARCH_MAX_RETRIES")
	concurrency := flag.Int("concurrency", 3, "parallel searches in batch mode")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *query == "" && *queriesFile == "" {
		logger.Fatal("either -query or -queries is required")
	}

	if *maxRetailers > 0 {
		cfg.Search.MaxRetailers = *maxRetailers
	}
	if *maxRetries > 0 {
		cfg.Search.MaxRetries = *maxRetries
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	if cfg.Metrics.Addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			logger.Info("metrics server listening", zap.String("addr", cfg.Metrics.Addr))
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	llmClient := buildLLMClient(cfg, logger, m)
	searchClient := buildSearchClient(cfg, logger)

	searchCache := memory.NewWithContext(ctx, memory.WithCleanupInterval(cfg.Cache.CleanupInterval))
	defer searchCache.Stop()

	researchAgent := agent.NewResearchAgent(llmClient, searchClient, searchCache, logger, m, agent.ResearchConfig{
		CacheTTL:      cfg.Cache.TTL,
		SearchTimeout: cfg.Tavily.Timeout,
	})
	extractionAgent := agent.NewExtractionAgent(llmClient, searchClient, logger, m)
	validationAgent := agent.NewValidationAgent(llmClient, logger)
	feedbackAgent := agent.NewFeedbackAgent(llmClient, logger)

	searchFlow := flow.New(flow.Deps{
		Discoverer: researchAgent,
		Extractor:  extractionAgent,
		Validator:  validationAgent,
		Feedback:   feedbackAgent,
		Logger:     logger,
		Metrics:    m,
	})

	store := file.NewStore(cfg.Search.ResultsDir, logger)

	var runRepo repository.RunRepository
	if cfg.Database.URL != "" {
		db, err := postgres.New(ctx, cfg.Database.URL)
		if err != nil {
			logger.Fatal("database connection failed", zap.Error(err))
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			logger.Fatal("database migration failed", zap.Error(err))
		}
		runRepo = postgres.NewRunRepo(db)
	}

	var notifier *telegram.Notifier
	if cfg.Telegram.Token != "" && cfg.Telegram.ChatID != 0 {
		notifier, err = telegram.NewNotifier(cfg.Telegram.Token, cfg.Telegram.ChatID, logger)
		if err != nil {
			logger.Fatal("telegram notifier failed", zap.Error(err))
		}
	}

	sink := func(ctx context.Context, result *domain.SearchResult) {
		if _, err := store.Save(result); err != nil {
			logger.Error("save result failed", zap.Error(err))
		}
		if runRepo != nil {
			run := &domain.SearchRun{
				SessionID: result.Metadata.SessionID,
				Query:     result.SearchQuery,
				Result:    result,
			}
			if err := runRepo.SaveRun(ctx, run); err != nil {
				logger.Error("save run to database failed", zap.Error(err))
			}
		}
		if notifier != nil {
			if err := notifier.NotifySearchDone(result); err != nil {
				logger.Error("telegram notification failed", zap.Error(err))
			}
		}
	}

	if *queriesFile != "" {
		runBatch(ctx, cfg, searchFlow, sink, *queriesFile, *concurrency, logger)
		return
	}

	result, err := searchFlow.Run(ctx, domain.SearchRequest{
		Query:        *query,
		MaxRetailers: cfg.Search.MaxRetailers,
		MaxRetries:   cfg.Search.MaxRetries,
		SessionID:    uuid.NewString(),
	})
	if err != nil {
		logger.Fatal("search failed", zap.Error(err))
	}
	sink(ctx, result)

	logger.Info("done",
		zap.Int("products", len(result.Results)),
		zap.String("results_file", result.Metadata.ResultsFile),
	)
}

func runBatch(ctx context.Context, cfg *config.Config, searchFlow *flow.Flow, sink batch.Sink, queriesFile string, concurrency int, logger *zap.Logger) {
	queries, err := batch.LoadQueries(queriesFile)
	if err != nil {
		logger.Fatal("load queries failed", zap.Error(err))
	}

	limiter := ratelimit.New(ctx, ratelimit.Config{
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Window:            time.Minute,
	})

	runner := batch.NewRunner(searchFlow, limiter, batch.Config{
		MaxConcurrent: concurrency,
		MaxRetailers:  cfg.Search.MaxRetailers,
		MaxRetries:    cfg.Search.MaxRetries,
	}, logger)

	results, err := runner.Run(ctx, queries, sink)
	if err != nil {
		logger.Error("batch interrupted", zap.Error(err))
	}

	var done int
	for _, r := range results {
		if r != nil {
			done++
		}
	}
	logger.Info("batch done", zap.Int("completed", done), zap.Int("total", len(queries)))
}

func buildLLMClient(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) llm.Client {
	switch cfg.LLM.Provider {
	case "openrouter":
		return openrouter.New(openrouter.Config{
			APIKey:  cfg.LLM.OpenRouter.APIKey,
			Model:   cfg.LLM.OpenRouter.Model,
			BaseURL: cfg.LLM.OpenRouter.BaseURL,
			Timeout: cfg.LLM.OpenRouter.Timeout,
		}, logger, m)
	default:
		logger.Warn("using mock llm client", zap.String("provider", cfg.LLM.Provider))
		return llmmock.New()
	}
}

func buildSearchClient(cfg *config.Config, logger *zap.Logger) search.SearchClient {
	if cfg.Tavily.APIKey != "" {
		return tavily.New(tavily.Config{
			APIKey:  cfg.Tavily.APIKey,
			BaseURL: cfg.Tavily.BaseURL,
			Timeout: cfg.Tavily.Timeout,
		}, logger)
	}

	logger.Warn("TAVILY_API_KEY not set, using mock search client")
	return searchmock.New().WithResults([]search.SearchResult{
		{Title: "Example Store", URL: "https://example-store.com", Content: "Example retailer", Score: 0.5},
	})
}
