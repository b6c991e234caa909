package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kitbuilder587/product-search-bot/internal/domain"
	"github.com/kitbuilder587/product-search-bot/internal/llm"
	"github.com/kitbuilder587/product-search-bot/internal/normalize"
)

const validationSystemPrompt = `You are a critical reviewer for product search results.

Your task: judge whether the extracted records actually answer the search query.

Check for:
1. MATCH: Is each record the exact product that was asked for?
2. RETAILER: Does the record really come from the named retailer?
3. URL: Does the URL look like a direct product page (not category/search/comparison)?
4. PRICE: Is the price plausible and well-formed?

Response format (JSON only):
{
  "validation_passed": true/false,
  "validated_products": [{"name": "...", "price": "...", "url": "...", "retailer": "...", "validation_score": 0.0, "notes": "..."}],
  "feedback": {"validation_failures": ["wrong_product", "category_page"]}
}`

// ValidationAgent - Validator поверх LLM
type ValidationAgent struct {
	llm    llm.Client
	logger *zap.Logger
}

func NewValidationAgent(llmClient llm.Client, logger *zap.Logger) *ValidationAgent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ValidationAgent{llm: llmClient, logger: logger}
}

func (a *ValidationAgent) Validate(ctx context.Context, req ValidationRequest) (*ValidationResult, error) {
	if req.Query == "" {
		return nil, ErrEmptyQuery
	}
	if len(req.Products) == 0 {
		// нечего проверять - валидатор не зовется на пустой экстракции,
		// но контракт обязывает терпеть вырожденный вход
		return &ValidationResult{Passed: false, Failures: []string{"no_products"}}, nil
	}

	response, err := a.llm.CompleteWithSystem(ctx, validationSystemPrompt, a.buildPrompt(req))
	if err != nil {
		return nil, fmt.Errorf("validation llm call: %w", err)
	}

	data := normalize.Map(response, map[string]any{
		"validation_passed":  false,
		"validated_products": []any{},
	})

	var wire struct {
		ValidationPassed  bool                      `json:"validation_passed"`
		ValidatedProducts []domain.ValidatedProduct `json:"validated_products"`
		Feedback          struct {
			ValidationFailures []string `json:"validation_failures"`
		} `json:"feedback"`
	}
	if err := decodeInto(data, &wire); err != nil {
		a.logger.Warn("validation response did not match schema", zap.Error(err))
		return &ValidationResult{Passed: false, Failures: []string{"validator_parse_failed"}}, nil
	}

	accepted := make([]domain.ValidatedProduct, 0, len(wire.ValidatedProducts))
	for _, p := range wire.ValidatedProducts {
		if p.IsEmpty() {
			continue
		}
		if p.Retailer == "" {
			p.Retailer = req.Retailer
		}
		accepted = append(accepted, p)
	}

	a.logger.Info("validation completed",
		zap.String("retailer", req.Retailer),
		zap.Bool("passed", wire.ValidationPassed),
		zap.Int("accepted", len(accepted)),
		zap.Int("attempt", req.Attempt),
	)

	return &ValidationResult{
		Passed:   wire.ValidationPassed,
		Products: accepted,
		Failures: wire.Feedback.ValidationFailures,
	}, nil
}

func (a *ValidationAgent) buildPrompt(req ValidationRequest) string {
	var sb strings.Builder

	sb.WriteString("=== SEARCH QUERY ===\n")
	sb.WriteString(req.Query)
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "=== RETAILER: %s (attempt %d of %d) ===\n\n", req.Retailer, req.Attempt, req.MaxAttempts)

	sb.WriteString("=== EXTRACTED RECORDS ===\n")
	for i, p := range req.Products {
		fmt.Fprintf(&sb, "[R%d] %s\nPrice: %s\nURL: %s\nRetailer: %s\n\n", i+1, p.Name, p.Price, p.URL, p.Retailer)
	}

	sb.WriteString("Respond with JSON only.")
	return sb.String()
}
