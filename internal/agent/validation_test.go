package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/kitbuilder587/product-search-bot/internal/domain"
	llmmock "github.com/kitbuilder587/product-search-bot/internal/llm/mock"
)

func rawProducts() []domain.RawProduct {
	return []domain.RawProduct{
		{Name: "RTX 4070", Price: "$599", URL: "https://a.example/p", Retailer: "StoreA"},
	}
}

func TestValidationAgentPassed(t *testing.T) {
	llmClient := llmmock.New().WithResponse(`{
		"validation_passed": true,
		"validated_products": [
			{"name": "RTX 4070", "price": "$599", "url": "https://a.example/p", "validation_score": 0.95}
		]
	}`)
	agent := NewValidationAgent(llmClient, nil)

	res, err := agent.Validate(context.Background(), ValidationRequest{
		Query:    "rtx 4070",
		Products: rawProducts(),
		Retailer: "StoreA",
		Attempt:  1,
	})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if !res.Passed {
		t.Error("Passed = false, want true")
	}
	if len(res.Products) != 1 {
		t.Fatalf("products = %d, want 1", len(res.Products))
	}
	if res.Products[0].ValidationScore != 0.95 {
		t.Errorf("ValidationScore = %v, want 0.95", res.Products[0].ValidationScore)
	}
	if res.Products[0].Retailer != "StoreA" {
		t.Errorf("Retailer = %q, want filled from request", res.Products[0].Retailer)
	}
}

func TestValidationAgentFailedWithFeedback(t *testing.T) {
	llmClient := llmmock.New().WithResponse(`{
		"validation_passed": false,
		"validated_products": [],
		"feedback": {"validation_failures": ["wrong_product", "category_page"]}
	}`)
	agent := NewValidationAgent(llmClient, nil)

	res, err := agent.Validate(context.Background(), ValidationRequest{
		Query:    "rtx 4070",
		Products: rawProducts(),
		Retailer: "StoreA",
	})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if res.Passed {
		t.Error("Passed = true, want false")
	}
	if len(res.Failures) != 2 {
		t.Errorf("Failures = %v, want two categories", res.Failures)
	}
}

func TestValidationAgentEmptyProducts(t *testing.T) {
	llmClient := llmmock.New()
	agent := NewValidationAgent(llmClient, nil)

	res, err := agent.Validate(context.Background(), ValidationRequest{Query: "rtx 4070"})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if res.Passed {
		t.Error("empty input should not pass")
	}
	if llmClient.CallCount != 0 {
		t.Error("LLM should not be called for empty input")
	}
}

func TestValidationAgentUnparsableResponse(t *testing.T) {
	llmClient := llmmock.New().WithResponse(`{"validation_passed": "maybe", "validated_products": 42}`)
	agent := NewValidationAgent(llmClient, nil)

	res, err := agent.Validate(context.Background(), ValidationRequest{
		Query:    "rtx 4070",
		Products: rawProducts(),
	})
	if err != nil {
		t.Fatalf("Validate() error = %v, unparsable response should not fail the call", err)
	}

	if res.Passed {
		t.Error("unparsable response must not pass validation")
	}
	if len(res.Failures) == 0 {
		t.Error("unparsable response should surface a failure category")
	}
}

func TestValidationAgentLLMError(t *testing.T) {
	llmClient := llmmock.New().WithError(errors.New("provider down"))
	agent := NewValidationAgent(llmClient, nil)

	if _, err := agent.Validate(context.Background(), ValidationRequest{
		Query:    "rtx 4070",
		Products: rawProducts(),
	}); err == nil {
		t.Error("Validate() should propagate llm errors")
	}
}
