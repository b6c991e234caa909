package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kitbuilder587/product-search-bot/internal/cache/memory"
	"github.com/kitbuilder587/product-search-bot/internal/domain"
	llmmock "github.com/kitbuilder587/product-search-bot/internal/llm/mock"
	"github.com/kitbuilder587/product-search-bot/internal/search"
	searchmock "github.com/kitbuilder587/product-search-bot/internal/search/mock"
)

func researchResponse() string {
	return `{"retailers": [
		{"vendor": "TechStore", "url": "https://techstore.example/rtx4070", "price": "$599", "availability": "In stock"},
		{"vendor": "GPUWorld", "url": "https://gpuworld.example/4070", "price": "$619"}
	], "research_summary": "two retailers found", "total_found": 2}`
}

func TestResearchAgentDiscover(t *testing.T) {
	llmClient := llmmock.New().WithResponse(researchResponse())
	searchClient := searchmock.New().WithResults([]search.SearchResult{
		{Title: "TechStore RTX 4070", URL: "https://techstore.example/rtx4070", Content: "In stock $599"},
	})

	agent := NewResearchAgent(llmClient, searchClient, nil, nil, nil, ResearchConfig{})

	res, err := agent.Discover(context.Background(), DiscoveryRequest{
		Query:        "rtx 4070",
		MaxRetailers: 5,
	})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	if len(res.Candidates) != 2 {
		t.Fatalf("candidates = %d, want 2", len(res.Candidates))
	}
	if res.Candidates[0].Name != "TechStore" {
		t.Errorf("Candidates[0].Name = %q, want TechStore", res.Candidates[0].Name)
	}
	if res.TotalFound != 2 {
		t.Errorf("TotalFound = %d, want 2", res.TotalFound)
	}

	// выдача веб-поиска должна попасть в промпт
	if !strings.Contains(llmClient.LastPrompt, "WEB SEARCH RESULTS") {
		t.Error("prompt should contain web search results section")
	}
}

func TestResearchAgentEmptyQuery(t *testing.T) {
	agent := NewResearchAgent(llmmock.New(), nil, nil, nil, nil, ResearchConfig{})

	if _, err := agent.Discover(context.Background(), DiscoveryRequest{}); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("Discover() error = %v, want ErrEmptyQuery", err)
	}
}

func TestResearchAgentFiltersExcludedURLs(t *testing.T) {
	llmClient := llmmock.New().WithResponse(researchResponse())
	agent := NewResearchAgent(llmClient, nil, nil, nil, nil, ResearchConfig{})

	res, err := agent.Discover(context.Background(), DiscoveryRequest{
		Query:        "rtx 4070",
		MaxRetailers: 5,
		ExcludeURLs:  []string{"https://techstore.example/rtx4070"},
	})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	for _, c := range res.Candidates {
		if c.URL == "https://techstore.example/rtx4070" {
			t.Error("excluded URL leaked into candidates")
		}
	}
	if !strings.Contains(llmClient.LastPrompt, "EXCLUDED URLS") {
		t.Error("prompt should list excluded URLs")
	}
}

func TestResearchAgentCapsAtMaxRetailers(t *testing.T) {
	llmClient := llmmock.New().WithResponse(researchResponse())
	agent := NewResearchAgent(llmClient, nil, nil, nil, nil, ResearchConfig{})

	res, err := agent.Discover(context.Background(), DiscoveryRequest{
		Query:        "rtx 4070",
		MaxRetailers: 1,
	})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(res.Candidates) != 1 {
		t.Errorf("candidates = %d, want capped at 1", len(res.Candidates))
	}
}

func TestResearchAgentGuidanceInPrompt(t *testing.T) {
	llmClient := llmmock.New().WithResponse(researchResponse())
	agent := NewResearchAgent(llmClient, nil, nil, nil, nil, ResearchConfig{})

	_, err := agent.Discover(context.Background(), DiscoveryRequest{
		Query:        "rtx 4070",
		MaxRetailers: 5,
		Guidance:     domain.DefaultResearchRetryFeedback(),
	})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	if !strings.Contains(llmClient.LastPrompt, "RETRY GUIDANCE") {
		t.Error("prompt should contain retry guidance section")
	}
}

func TestResearchAgentSalvagesNoisyResponse(t *testing.T) {
	noisy := "Here are the retailers I found:\n" + researchResponse() + "\nLet me know if you need more."
	llmClient := llmmock.New().WithResponse(noisy)
	agent := NewResearchAgent(llmClient, nil, nil, nil, nil, ResearchConfig{})

	res, err := agent.Discover(context.Background(), DiscoveryRequest{
		Query:        "rtx 4070",
		MaxRetailers: 5,
	})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(res.Candidates) != 2 {
		t.Errorf("candidates = %d, want 2 salvaged from noisy text", len(res.Candidates))
	}
}

func TestResearchAgentCachesSearchResults(t *testing.T) {
	c := memory.New()
	defer c.Stop()

	llmClient := llmmock.New().WithResponse(researchResponse())
	searchClient := searchmock.New().WithResults([]search.SearchResult{
		{Title: "Page", URL: "https://techstore.example", Content: "content"},
	})

	agent := NewResearchAgent(llmClient, searchClient, c, nil, nil, ResearchConfig{MaxSubQueries: 1})

	req := DiscoveryRequest{Query: "rtx 4070", MaxRetailers: 5}
	if _, err := agent.Discover(context.Background(), req); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	first := searchClient.CallCount

	if _, err := agent.Discover(context.Background(), req); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	if searchClient.CallCount != first {
		t.Errorf("search calls = %d, want %d (second run served from cache)", searchClient.CallCount, first)
	}
}

func TestResearchAgentLLMError(t *testing.T) {
	llmClient := llmmock.New().WithError(errors.New("provider down"))
	agent := NewResearchAgent(llmClient, nil, nil, nil, nil, ResearchConfig{})

	if _, err := agent.Discover(context.Background(), DiscoveryRequest{Query: "rtx 4070"}); err == nil {
		t.Error("Discover() should propagate llm errors")
	}
}
