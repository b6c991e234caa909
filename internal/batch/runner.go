// Package batch runs many product searches from a query list with bounded
// concurrency and a shared rate limit.
package batch

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kitbuilder587/product-search-bot/internal/domain"
	"github.com/kitbuilder587/product-search-bot/internal/ratelimit"
)

// Searcher - то, что умеет выполнить один поиск; в проде это flow.Flow
type Searcher interface {
	Run(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error)
}

// Sink получает готовый отчет каждого прогона
type Sink func(ctx context.Context, result *domain.SearchResult)

type Runner struct {
	searcher Searcher
	limiter  *ratelimit.Limiter
	logger   *zap.Logger

	maxConcurrent int
	maxRetailers  int
	maxRetries    int
}

type Config struct {
	MaxConcurrent int
	MaxRetailers  int
	MaxRetries    int
}

func NewRunner(searcher Searcher, limiter *ratelimit.Limiter, cfg Config, logger *zap.Logger) *Runner {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		searcher:      searcher,
		limiter:       limiter,
		logger:        logger,
		maxConcurrent: cfg.MaxConcurrent,
		maxRetailers:  cfg.MaxRetailers,
		maxRetries:    cfg.MaxRetries,
	}
}

// LoadQueries читает запросы из файла: по одному на строку, пустые строки
// и строки с # пропускаются
func LoadQueries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open queries file: %w", err)
	}
	defer f.Close()

	var queries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		queries = append(queries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read queries file: %w", err)
	}
	return queries, nil
}

// Run выполняет все запросы и возвращает отчеты в порядке исходного списка.
// Провал одного запроса не останавливает остальные: его отчет с ошибкой
// в metadata занимает свой слот, как и успешный.
func (r *Runner) Run(ctx context.Context, queries []string, sink Sink) ([]*domain.SearchResult, error) {
	if len(queries) == 0 {
		return nil, nil
	}

	results := make([]*domain.SearchResult, len(queries))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.maxConcurrent)

	for i, query := range queries {
		i, query := i, query
		g.Go(func() error {
			if r.limiter != nil {
				if err := r.limiter.Wait(gctx, "batch"); err != nil {
					return err
				}
			}

			req := domain.SearchRequest{
				Query:        query,
				MaxRetailers: r.maxRetailers,
				MaxRetries:   r.maxRetries,
				SessionID:    uuid.NewString(),
			}

			result, err := r.searcher.Run(gctx, req)
			if err != nil {
				// невалидный запрос из файла: фиксируем и едем дальше
				r.logger.Warn("batch query rejected",
					zap.String("query", query),
					zap.Error(err),
				)
				result = &domain.SearchResult{
					SearchQuery: query,
					Metadata: domain.ResultMetadata{
						SessionID: req.SessionID,
						Error:     err.Error(),
					},
				}
			}

			mu.Lock()
			results[i] = result
			mu.Unlock()

			if sink != nil {
				sink(gctx, result)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}

	r.logger.Info("batch finished", zap.Int("queries", len(queries)))
	return results, nil
}
