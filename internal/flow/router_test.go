package flow

import (
	"testing"

	"github.com/kitbuilder587/product-search-bot/internal/domain"
)

func newTestSession(candidates int) *domain.SearchSession {
	req := domain.SearchRequest{
		Query:        "rtx 4070 graphics card",
		MaxRetailers: 5,
		MaxRetries:   3,
		SessionID:    "test-session",
	}
	s := domain.NewSearchSession(req)
	for i := 0; i < candidates; i++ {
		s.Candidates = append(s.Candidates, domain.RetailerCandidate{
			Name: "Retailer",
			URL:  "https://retailer.example/" + string(rune('a'+i)),
		})
	}
	return s
}

func TestRouteEmptyExtractionAdvances(t *testing.T) {
	s := newTestSession(3)

	got := Route(s, false, true)
	if got != TransitionAdvance {
		t.Errorf("Route() = %v, want %v", got, TransitionAdvance)
	}
}

func TestRouteEmptyExtractionIgnoresRetryBudget(t *testing.T) {
	s := newTestSession(3)
	s.CurrentAttempt = 1 // бюджет ретраев не тронут, но это не повод ретраить пустоту

	if got := Route(s, false, true); got != TransitionAdvance {
		t.Errorf("Route() = %v, want %v", got, TransitionAdvance)
	}
}

func TestRouteEmptyExtractionRescuesDiscoveryOnExhaustion(t *testing.T) {
	s := newTestSession(2)
	s.CurrentIndex = 1 // последний кандидат, валидных продуктов нет

	got := Route(s, false, true)
	if got != TransitionRetryDiscovery {
		t.Errorf("Route() = %v, want %v", got, TransitionRetryDiscovery)
	}
}

func TestRouteRescueHappensAtMostOnce(t *testing.T) {
	s := newTestSession(2)
	s.CurrentIndex = 1
	s.DiscoveryRescued = true

	if got := Route(s, false, true); got != TransitionAdvance {
		t.Errorf("Route() = %v, want %v", got, TransitionAdvance)
	}
}

func TestRouteNoRescueWhenProductsValidated(t *testing.T) {
	s := newTestSession(2)
	s.CurrentIndex = 1
	s.ValidatedProducts = []domain.ValidatedProduct{
		{RawProduct: domain.RawProduct{Name: "RTX 4070", URL: "https://a.example/p"}},
	}

	if got := Route(s, false, true); got != TransitionAdvance {
		t.Errorf("Route() = %v, want %v", got, TransitionAdvance)
	}
}

func TestRouteValidationPassedAdvances(t *testing.T) {
	s := newTestSession(3)
	s.LastFeedback = domain.DefaultResearchRetryFeedback() // не должен влиять

	if got := Route(s, true, false); got != TransitionAdvance {
		t.Errorf("Route() = %v, want %v", got, TransitionAdvance)
	}
}

func TestRouteRetryBudgetExhaustedAdvances(t *testing.T) {
	s := newTestSession(3)
	s.CurrentAttempt = 3
	s.LastFeedback = domain.DefaultExtractionRetryFeedback("Retailer")

	if got := Route(s, false, false); got != TransitionAdvance {
		t.Errorf("Route() = %v, want %v", got, TransitionAdvance)
	}
}

func TestRouteFeedbackApproaches(t *testing.T) {
	tests := []struct {
		name     string
		feedback *domain.TargetedFeedback
		want     Transition
	}{
		{
			name:     "nil feedback defaults to extraction retry",
			feedback: nil,
			want:     TransitionRetryExtraction,
		},
		{
			name: "research_first with retry flag",
			feedback: &domain.TargetedFeedback{
				RecommendedApproach: domain.ApproachResearchFirst,
				ShouldRetryResearch: true,
			},
			want: TransitionRetryDiscovery,
		},
		{
			name: "research_first without retry flag falls back",
			feedback: &domain.TargetedFeedback{
				RecommendedApproach: domain.ApproachResearchFirst,
			},
			want: TransitionRetryExtraction,
		},
		{
			name: "extraction_first",
			feedback: &domain.TargetedFeedback{
				RecommendedApproach:   domain.ApproachExtractionFirst,
				ShouldRetryExtraction: true,
			},
			want: TransitionRetryExtraction,
		},
		{
			name: "both_parallel starts with discovery",
			feedback: &domain.TargetedFeedback{
				RecommendedApproach:   domain.ApproachBothParallel,
				ShouldRetryResearch:   true,
				ShouldRetryExtraction: true,
			},
			want: TransitionRetryDiscovery,
		},
		{
			name: "give_up still retries extraction while budget remains",
			feedback: &domain.TargetedFeedback{
				RecommendedApproach: domain.ApproachGiveUp,
			},
			want: TransitionRetryExtraction,
		},
		{
			name: "unknown approach defaults to extraction retry",
			feedback: &domain.TargetedFeedback{
				RecommendedApproach: domain.Approach("try_harder"),
			},
			want: TransitionRetryExtraction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(3)
			s.CurrentAttempt = 1
			s.LastFeedback = tt.feedback

			if got := Route(s, false, false); got != tt.want {
				t.Errorf("Route() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRouteIsPure(t *testing.T) {
	s := newTestSession(3)
	s.CurrentAttempt = 2
	s.LastFeedback = domain.DefaultExtractionRetryFeedback("Retailer")

	before := *s
	_ = Route(s, false, false)

	if s.CurrentIndex != before.CurrentIndex || s.CurrentAttempt != before.CurrentAttempt {
		t.Error("Route() mutated session counters")
	}
	if s.Stats != before.Stats {
		t.Error("Route() mutated session stats")
	}
}

func TestTransitionString(t *testing.T) {
	tests := []struct {
		t    Transition
		want string
	}{
		{TransitionAdvance, "advance"},
		{TransitionRetryExtraction, "retry_extraction"},
		{TransitionRetryDiscovery, "retry_discovery"},
		{TransitionFinalize, "finalize"},
		{Transition(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.t.String(); got != tt.want {
			t.Errorf("Transition(%d).String() = %q, want %q", tt.t, got, tt.want)
		}
	}
}
