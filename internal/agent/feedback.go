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

const feedbackSystemPrompt = `You analyze failed product validations and decide which step should retry: research (finding different retailers) or extraction (pulling better records from the current retailer).

Guidelines:
- "research_first" when the retailer itself is wrong (does not stock the product, comparison site, marketplace)
- "extraction_first" when the retailer is fine but the records are bad (category page, wrong variant, missing price)
- "both_parallel" when both look broken
- "give_up" when further retries are pointless

Response format (JSON only):
{
  "failure_categories": ["wrong_product"],
  "research_guidance": "...",
  "extraction_guidance": "...",
  "recommended_approach": "extraction_first",
  "should_retry_research": false,
  "should_retry_extraction": true
}`

// FeedbackAgent - FeedbackGenerator поверх LLM. Парсинг не удался - возвращаем
// extraction-first директиву: ретрай extraction дешевле ре-discovery.
type FeedbackAgent struct {
	llm    llm.Client
	logger *zap.Logger
}

func NewFeedbackAgent(llmClient llm.Client, logger *zap.Logger) *FeedbackAgent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedbackAgent{llm: llmClient, logger: logger}
}

func (a *FeedbackAgent) GenerateFeedback(ctx context.Context, req FeedbackRequest) (*domain.TargetedFeedback, error) {
	if req.Query == "" {
		return nil, ErrEmptyQuery
	}

	response, err := a.llm.CompleteWithSystem(ctx, feedbackSystemPrompt, a.buildPrompt(req))
	if err != nil {
		return nil, fmt.Errorf("feedback llm call: %w", err)
	}

	data := normalize.Map(response, nil)

	var fb domain.TargetedFeedback
	if err := decodeInto(data, &fb); err != nil || !fb.RecommendedApproach.IsValid() {
		a.logger.Warn("feedback response did not match schema, using default directive",
			zap.Error(err),
			zap.String("retailer", req.Retailer),
		)
		return domain.DefaultExtractionRetryFeedback(req.Retailer), nil
	}

	return &fb, nil
}

func (a *FeedbackAgent) buildPrompt(req FeedbackRequest) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Search query: %s\n", req.Query)
	fmt.Fprintf(&sb, "Retailer: %s\n", req.Retailer)
	fmt.Fprintf(&sb, "Attempt %d of %d\n\n", req.Attempt, req.MaxAttempts)

	sb.WriteString("Validation failures:\n")
	if len(req.Failures) == 0 {
		sb.WriteString("- (none reported)\n")
	}
	for _, f := range req.Failures {
		fmt.Fprintf(&sb, "- %s\n", f)
	}

	sb.WriteString("\nRespond with JSON only.")
	return sb.String()
}
