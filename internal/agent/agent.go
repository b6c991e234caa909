// Package agent defines the four collaborator roles the search flow drives:
// discovery, extraction, validation and feedback generation. Each role is a
// small capability interface so the flow can be tested without real LLM calls.
package agent

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/kitbuilder587/product-search-bot/internal/domain"
)

var (
	ErrEmptyQuery    = errors.New("query cannot be empty")
	ErrEmptyRetailer = errors.New("retailer cannot be empty")
)

type DiscoveryRequest struct {
	Query        string
	MaxRetailers int
	Guidance     *domain.TargetedFeedback
	ExcludeURLs  []string
}

func (r DiscoveryRequest) Validate() error {
	if r.Query == "" {
		return ErrEmptyQuery
	}
	return nil
}

type DiscoveryResult struct {
	Candidates []domain.RetailerCandidate
	Summary    string
	TotalFound int
}

type ExtractionRequest struct {
	Query    string
	Retailer string
	URL      string
	Attempt  int
	Guidance *domain.TargetedFeedback
}

func (r ExtractionRequest) Validate() error {
	if r.Query == "" {
		return ErrEmptyQuery
	}
	if r.Retailer == "" {
		return ErrEmptyRetailer
	}
	return nil
}

type ExtractionResult struct {
	Products []domain.RawProduct
}

type ValidationRequest struct {
	Query       string
	Products    []domain.RawProduct
	Retailer    string
	Attempt     int
	MaxAttempts int
}

type ValidationResult struct {
	Passed   bool
	Products []domain.ValidatedProduct
	// Failures - категории провалов из ответа валидатора, сырье для feedback-агента
	Failures []string
}

type FeedbackRequest struct {
	Query       string
	Failures    []string
	Retailer    string
	Attempt     int
	MaxAttempts int
}

// Discoverer proposes retailer candidates for a product query.
type Discoverer interface {
	Discover(ctx context.Context, req DiscoveryRequest) (*DiscoveryResult, error)
}

// Extractor pulls product records from a single retailer candidate.
type Extractor interface {
	Extract(ctx context.Context, req ExtractionRequest) (*ExtractionResult, error)
}

// Validator judges whether extracted products actually answer the query.
type Validator interface {
	Validate(ctx context.Context, req ValidationRequest) (*ValidationResult, error)
}

// FeedbackGenerator turns validation failures into targeted retry guidance.
type FeedbackGenerator interface {
	GenerateFeedback(ctx context.Context, req FeedbackRequest) (*domain.TargetedFeedback, error)
}

// decodeInto перегоняет уже нормализованный map в типизированную структуру
// через json round-trip
func decodeInto(m map[string]any, out any) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}
