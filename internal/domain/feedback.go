package domain

type Approach string

const (
	ApproachResearchFirst   Approach = "research_first"
	ApproachExtractionFirst Approach = "extraction_first"
	ApproachBothParallel    Approach = "both_parallel"
	ApproachGiveUp          Approach = "give_up"
)

func (a Approach) IsValid() bool {
	switch a {
	case ApproachResearchFirst, ApproachExtractionFirst, ApproachBothParallel, ApproachGiveUp:
		return true
	}
	return false
}

func (a Approach) String() string { return string(a) }

// TargetedFeedback - структурированная подсказка после провала валидации:
// кому ретраиться (research или extraction) и с какими хинтами
type TargetedFeedback struct {
	FailureCategories     []string `json:"failure_categories,omitempty"`
	ResearchGuidance      string   `json:"research_guidance,omitempty"`
	ExtractionGuidance    string   `json:"extraction_guidance,omitempty"`
	RecommendedApproach   Approach `json:"recommended_approach"`
	ShouldRetryResearch   bool     `json:"should_retry_research"`
	ShouldRetryExtraction bool     `json:"should_retry_extraction"`
}

// DefaultExtractionRetryFeedback - запасная директива, когда feedback-агент
// не вернул ничего разборчивого: ретрай extraction дешевле ре-discovery.
func DefaultExtractionRetryFeedback(retailer string) *TargetedFeedback {
	return &TargetedFeedback{
		RecommendedApproach:   ApproachExtractionFirst,
		ExtractionGuidance:    "Navigate to a specific product detail page for " + retailer + ", avoid category and comparison pages.",
		ShouldRetryExtraction: true,
	}
}

// DefaultResearchRetryFeedback - директива для last-resort discovery, когда
// список кандидатов исчерпан без единого валидного продукта.
func DefaultResearchRetryFeedback() *TargetedFeedback {
	return &TargetedFeedback{
		RecommendedApproach: ApproachResearchFirst,
		ResearchGuidance:    "Previous candidates yielded no valid products. Find different retailers that stock the exact product.",
		ShouldRetryResearch: true,
	}
}
