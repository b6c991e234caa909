package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kitbuilder587/product-search-bot/internal/domain"
	llmmock "github.com/kitbuilder587/product-search-bot/internal/llm/mock"
)

func TestFeedbackAgentGenerateFeedback(t *testing.T) {
	llmClient := llmmock.New().WithResponse(`{
		"failure_categories": ["retailer_mismatch"],
		"research_guidance": "prefer official stores",
		"extraction_guidance": "",
		"recommended_approach": "research_first",
		"should_retry_research": true,
		"should_retry_extraction": false
	}`)
	agent := NewFeedbackAgent(llmClient, nil)

	fb, err := agent.GenerateFeedback(context.Background(), FeedbackRequest{
		Query:    "rtx 4070",
		Retailer: "MarketplaceX",
		Failures: []string{"retailer_mismatch"},
		Attempt:  1,
	})
	if err != nil {
		t.Fatalf("GenerateFeedback() error = %v", err)
	}

	if fb.RecommendedApproach != domain.ApproachResearchFirst {
		t.Errorf("RecommendedApproach = %q, want research_first", fb.RecommendedApproach)
	}
	if !fb.ShouldRetryResearch || fb.ShouldRetryExtraction {
		t.Errorf("retry flags = (%v, %v), want (true, false)", fb.ShouldRetryResearch, fb.ShouldRetryExtraction)
	}
	if fb.ResearchGuidance != "prefer official stores" {
		t.Errorf("ResearchGuidance = %q", fb.ResearchGuidance)
	}
}

func TestFeedbackAgentFailuresInPrompt(t *testing.T) {
	llmClient := llmmock.New().WithResponse(`{"recommended_approach": "extraction_first", "should_retry_extraction": true}`)
	agent := NewFeedbackAgent(llmClient, nil)

	_, err := agent.GenerateFeedback(context.Background(), FeedbackRequest{
		Query:    "rtx 4070",
		Retailer: "StoreA",
		Failures: []string{"category_page", "price_missing"},
	})
	if err != nil {
		t.Fatalf("GenerateFeedback() error = %v", err)
	}

	for _, f := range []string{"category_page", "price_missing"} {
		if !strings.Contains(llmClient.LastPrompt, f) {
			t.Errorf("prompt should list failure %q", f)
		}
	}
}

func TestFeedbackAgentInvalidApproachFallsBack(t *testing.T) {
	llmClient := llmmock.New().WithResponse(`{"recommended_approach": "try_harder"}`)
	agent := NewFeedbackAgent(llmClient, nil)

	fb, err := agent.GenerateFeedback(context.Background(), FeedbackRequest{
		Query:    "rtx 4070",
		Retailer: "StoreA",
	})
	if err != nil {
		t.Fatalf("GenerateFeedback() error = %v", err)
	}

	if fb.RecommendedApproach != domain.ApproachExtractionFirst {
		t.Errorf("fallback approach = %q, want extraction_first", fb.RecommendedApproach)
	}
	if !fb.ShouldRetryExtraction {
		t.Error("fallback should allow extraction retry")
	}
}

func TestFeedbackAgentUnparsableResponseFallsBack(t *testing.T) {
	llmClient := llmmock.New().WithResponse("sorry, I cannot help with that")
	agent := NewFeedbackAgent(llmClient, nil)

	fb, err := agent.GenerateFeedback(context.Background(), FeedbackRequest{
		Query:    "rtx 4070",
		Retailer: "StoreA",
	})
	if err != nil {
		t.Fatalf("GenerateFeedback() error = %v", err)
	}
	if fb.RecommendedApproach != domain.ApproachExtractionFirst {
		t.Errorf("fallback approach = %q, want extraction_first", fb.RecommendedApproach)
	}
}

func TestFeedbackAgentEmptyQuery(t *testing.T) {
	agent := NewFeedbackAgent(llmmock.New(), nil)

	if _, err := agent.GenerateFeedback(context.Background(), FeedbackRequest{Retailer: "X"}); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("error = %v, want ErrEmptyQuery", err)
	}
}

func TestFeedbackAgentLLMError(t *testing.T) {
	agent := NewFeedbackAgent(llmmock.New().WithError(errors.New("provider down")), nil)

	if _, err := agent.GenerateFeedback(context.Background(), FeedbackRequest{Query: "rtx 4070"}); err == nil {
		t.Error("GenerateFeedback() should propagate llm errors")
	}
}
