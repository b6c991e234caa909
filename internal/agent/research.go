package agent

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kitbuilder587/product-search-bot/internal/cache"
	"github.com/kitbuilder587/product-search-bot/internal/domain"
	"github.com/kitbuilder587/product-search-bot/internal/llm"
	"github.com/kitbuilder587/product-search-bot/internal/metrics"
	"github.com/kitbuilder587/product-search-bot/internal/normalize"
	"github.com/kitbuilder587/product-search-bot/internal/search"
)

const researchSystemPrompt = `You are a retail research specialist finding online retailers that sell a specific product.

Rules:
1. Propose only legitimate retailers that stock the EXACT product
2. Prefer direct product page URLs over homepages
3. Never propose marketplaces of unverified third-party sellers or comparison sites
4. Respect the exclusion list: never return an excluded URL or its domain
5. When price is unknown, use "Price unavailable"

Response format (JSON only):
{"retailers": [{"vendor": "name", "url": "https://...", "price": "£9.99", "availability": "In stock", "notes": ""}], "research_summary": "...", "total_found": 0}`

type ResearchConfig struct {
	MaxSubQueries      int
	MaxResultsPerQuery int
	CacheTTL           time.Duration
	SearchTimeout      time.Duration
}

// ResearchAgent - Discoverer поверх веб-поиска + LLM: сначала собираем
// страницы через search API, потом просим LLM выбрать ритейлеров
type ResearchAgent struct {
	llm     llm.Client
	search  search.SearchClient
	cache   cache.Cache
	logger  *zap.Logger
	metrics *metrics.Metrics
	config  ResearchConfig
}

func NewResearchAgent(llmClient llm.Client, searchClient search.SearchClient, c cache.Cache, logger *zap.Logger, m *metrics.Metrics, cfg ResearchConfig) *ResearchAgent {
	if cfg.MaxSubQueries == 0 {
		cfg.MaxSubQueries = 3
	}
	if cfg.MaxResultsPerQuery == 0 {
		cfg.MaxResultsPerQuery = 5
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = time.Hour
	}
	if cfg.SearchTimeout == 0 {
		cfg.SearchTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ResearchAgent{
		llm:     llmClient,
		search:  searchClient,
		cache:   c,
		logger:  logger,
		metrics: m,
		config:  cfg,
	}
}

func (a *ResearchAgent) Discover(ctx context.Context, req DiscoveryRequest) (*DiscoveryResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.MaxRetailers <= 0 {
		req.MaxRetailers = domain.DefaultMaxRetailers
	}

	results := a.searchWeb(ctx, req)

	a.logger.Debug("research web search done",
		zap.Int("results", len(results)),
		zap.Int("excluded_urls", len(req.ExcludeURLs)),
	)

	userPrompt := a.buildPrompt(req, results)

	response, err := a.llm.CompleteWithSystem(ctx, researchSystemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("research llm call: %w", err)
	}

	data := normalize.Map(response, map[string]any{"retailers": []any{}})

	var wire struct {
		Retailers       []domain.RetailerCandidate `json:"retailers"`
		ResearchSummary string                     `json:"research_summary"`
		TotalFound      int                        `json:"total_found"`
	}
	if err := decodeInto(data, &wire); err != nil {
		a.logger.Warn("research response did not match schema", zap.Error(err))
	}

	candidates := make([]domain.RetailerCandidate, 0, len(wire.Retailers))
	excluded := make(map[string]bool, len(req.ExcludeURLs))
	for _, u := range req.ExcludeURLs {
		excluded[strings.ToLower(strings.TrimSpace(u))] = true
	}
	for _, c := range wire.Retailers {
		if c.URL == "" && c.Name == "" {
			continue
		}
		if excluded[strings.ToLower(strings.TrimSpace(c.URL))] {
			continue
		}
		candidates = append(candidates, c)
	}
	if len(candidates) > req.MaxRetailers {
		candidates = candidates[:req.MaxRetailers]
	}

	total := wire.TotalFound
	if total == 0 {
		total = len(candidates)
	}

	return &DiscoveryResult{
		Candidates: candidates,
		Summary:    wire.ResearchSummary,
		TotalFound: total,
	}, nil
}

// searchWeb собирает страницы по нескольким под-запросам параллельно.
// Поиск вспомогательный: его провал не валит discovery, LLM справится и без него.
func (a *ResearchAgent) searchWeb(ctx context.Context, req DiscoveryRequest) []search.SearchResult {
	if a.search == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.SearchTimeout)
	defer cancel()

	queries := a.subQueries(req)

	resultsChan := make(chan []search.SearchResult, len(queries))
	g, ctx := errgroup.WithContext(ctx)

	for _, query := range queries {
		query := query
		g.Go(func() error {
			results, err := a.searchSingle(ctx, query)
			if err != nil {
				a.logger.Warn("research sub-query failed",
					zap.Error(err),
					zap.String("query", query),
				)
				return nil
			}
			resultsChan <- results
			return nil
		})
	}

	g.Wait()
	close(resultsChan)

	seen := make(map[string]bool)
	var all []search.SearchResult
	for results := range resultsChan {
		for _, r := range results {
			if !seen[r.URL] {
				seen[r.URL] = true
				all = append(all, r)
			}
		}
	}
	return all
}

func (a *ResearchAgent) subQueries(req DiscoveryRequest) []string {
	queries := []string{
		req.Query + " buy online price",
		req.Query + " in stock retailer",
		req.Query + " official store",
	}
	if req.Guidance != nil && req.Guidance.ResearchGuidance != "" {
		// при ретрае первый под-запрос уточняем хинтом от feedback-агента
		queries[0] = req.Query + " " + req.Guidance.ResearchGuidance
	}
	if len(queries) > a.config.MaxSubQueries {
		queries = queries[:a.config.MaxSubQueries]
	}
	return queries
}

func (a *ResearchAgent) searchSingle(ctx context.Context, query string) ([]search.SearchResult, error) {
	key := a.cacheKey(query)

	if a.cache != nil {
		if cached, ok := a.cache.Get(key); ok {
			if results, ok := cached.([]search.SearchResult); ok {
				if a.metrics != nil {
					a.metrics.RecordCacheHit()
				}
				return results, nil
			}
		}
		if a.metrics != nil {
			a.metrics.RecordCacheMiss()
		}
	}

	start := time.Now()
	resp, err := a.search.Search(ctx, search.SearchRequest{
		Query:       query,
		MaxResults:  a.config.MaxResultsPerQuery,
		SearchDepth: "basic",
	})
	if err != nil {
		if a.metrics != nil {
			a.metrics.RecordSearchRequest("error", time.Since(start))
		}
		return nil, err
	}
	if a.metrics != nil {
		a.metrics.RecordSearchRequest("success", time.Since(start))
	}

	if a.cache != nil {
		a.cache.Set(key, resp.Results, a.config.CacheTTL)
	}
	return resp.Results, nil
}

func (a *ResearchAgent) cacheKey(query string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	hash := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("research:%x", hash[:8])
}

func (a *ResearchAgent) buildPrompt(req DiscoveryRequest, results []search.SearchResult) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Product: %s\n", req.Query)
	fmt.Fprintf(&sb, "Find up to %d retailers.\n\n", req.MaxRetailers)

	if req.Guidance != nil {
		sb.WriteString("=== RETRY GUIDANCE ===\n")
		if req.Guidance.ResearchGuidance != "" {
			sb.WriteString(req.Guidance.ResearchGuidance)
			sb.WriteString("\n")
		}
		if len(req.Guidance.FailureCategories) > 0 {
			fmt.Fprintf(&sb, "Previous failures: %s\n", strings.Join(req.Guidance.FailureCategories, ", "))
		}
		sb.WriteString("\n")
	}

	if len(req.ExcludeURLs) > 0 {
		sb.WriteString("=== EXCLUDED URLS (do not return these or their domains) ===\n")
		for _, u := range req.ExcludeURLs {
			sb.WriteString(u)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	if len(results) > 0 {
		sb.WriteString("=== WEB SEARCH RESULTS ===\n")
		for i, r := range results {
			content := r.Content
			if len(content) > 800 {
				content = content[:800] + "..."
			}
			fmt.Fprintf(&sb, "[S%d] %s\nURL: %s\n%s\n\n", i+1, r.Title, r.URL, content)
		}
	} else {
		sb.WriteString("No web search results available; rely on your own knowledge of retailers.\n")
	}

	sb.WriteString("Respond with JSON only.")
	return sb.String()
}
