package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/product-search-bot/internal/domain"
	"github.com/kitbuilder587/product-search-bot/internal/llm"
	"github.com/kitbuilder587/product-search-bot/internal/metrics"
	"github.com/kitbuilder587/product-search-bot/internal/normalize"
	"github.com/kitbuilder587/product-search-bot/internal/search"
)

const extractionSystemPrompt = `You are a product extraction specialist. Given a retailer and a product query, report the product records visible on the retailer's site.

Rules:
1. Report only products from the given retailer, nothing else
2. Every record needs name, price and a direct product page URL
3. Use "Price unavailable" when the price cannot be determined
4. Return an empty products array when the retailer does not stock the product - never invent records

Response format (JSON only):
{"products": [{"name": "...", "price": "£9.99", "url": "https://...", "retailer": "...", "availability": "In stock"}]}`

// ExtractionAgent - Extractor поверх доменного поиска + LLM. Страницу мы не
// рендерим (браузерная автоматизация вне нашего слоя), вместо этого скармливаем
// LLM выдачу поиска, ограниченную доменом ритейлера.
type ExtractionAgent struct {
	llm     llm.Client
	search  search.SearchClient
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewExtractionAgent(llmClient llm.Client, searchClient search.SearchClient, logger *zap.Logger, m *metrics.Metrics) *ExtractionAgent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExtractionAgent{
		llm:     llmClient,
		search:  searchClient,
		logger:  logger,
		metrics: m,
	}
}

func (a *ExtractionAgent) Extract(ctx context.Context, req ExtractionRequest) (*ExtractionResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	results := a.searchRetailer(ctx, req)

	userPrompt := a.buildPrompt(req, results)

	response, err := a.llm.CompleteWithSystem(ctx, extractionSystemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("extraction llm call: %w", err)
	}

	data := normalize.Map(response, map[string]any{"products": []any{}})

	var wire struct {
		Products []domain.RawProduct `json:"products"`
	}
	if err := decodeInto(data, &wire); err != nil {
		a.logger.Warn("extraction response did not match schema", zap.Error(err))
	}

	products := make([]domain.RawProduct, 0, len(wire.Products))
	for _, p := range wire.Products {
		if p.IsEmpty() {
			continue
		}
		if p.Retailer == "" {
			p.Retailer = req.Retailer
		}
		products = append(products, p)
	}

	a.logger.Debug("extraction done",
		zap.String("retailer", req.Retailer),
		zap.Int("attempt", req.Attempt),
		zap.Int("products", len(products)),
	)

	return &ExtractionResult{Products: products}, nil
}

func (a *ExtractionAgent) searchRetailer(ctx context.Context, req ExtractionRequest) []search.SearchResult {
	if a.search == nil {
		return nil
	}

	start := time.Now()
	resp, err := a.search.Search(ctx, search.SearchRequest{
		Query:          req.Query,
		IncludeDomains: []string{extractDomain(req.URL)},
		MaxResults:     5,
		SearchDepth:    "basic",
	})
	if err != nil {
		if a.metrics != nil {
			a.metrics.RecordSearchRequest("error", time.Since(start))
		}
		a.logger.Warn("retailer-scoped search failed",
			zap.Error(err),
			zap.String("retailer", req.Retailer),
		)
		return nil
	}
	if a.metrics != nil {
		a.metrics.RecordSearchRequest("success", time.Since(start))
	}
	return resp.Results
}

func (a *ExtractionAgent) buildPrompt(req ExtractionRequest, results []search.SearchResult) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Product query: %s\n", req.Query)
	fmt.Fprintf(&sb, "Retailer: %s\n", req.Retailer)
	fmt.Fprintf(&sb, "Page: %s\n", req.URL)
	fmt.Fprintf(&sb, "Attempt: %d\n\n", req.Attempt)

	if req.Guidance != nil && req.Guidance.ExtractionGuidance != "" {
		sb.WriteString("=== RETRY GUIDANCE ===\n")
		sb.WriteString(req.Guidance.ExtractionGuidance)
		sb.WriteString("\n\n")
	}

	if len(results) > 0 {
		sb.WriteString("=== RETAILER PAGES ===\n")
		for i, r := range results {
			content := r.Content
			if len(content) > 1500 {
				content = content[:1500] + "..."
			}
			fmt.Fprintf(&sb, "[P%d] %s\nURL: %s\n%s\n\n", i+1, r.Title, r.URL, content)
		}
	} else {
		sb.WriteString("No page content available for this retailer.\n")
	}

	sb.WriteString("Respond with JSON only.")
	return sb.String()
}

func extractDomain(url string) string {
	url = strings.TrimPrefix(url, "https://")
	url = strings.TrimPrefix(url, "http://")
	if idx := strings.Index(url, "/"); idx != -1 {
		url = url[:idx]
	}
	return strings.TrimPrefix(url, "www.")
}
