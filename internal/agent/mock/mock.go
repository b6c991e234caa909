// Package mock contains scripted collaborators for flow tests.
package mock

import (
	"context"

	"github.com/kitbuilder587/product-search-bot/internal/agent"
	"github.com/kitbuilder587/product-search-bot/internal/domain"
)

// Discoverer отдает результаты из очереди; последний элемент залипает
type Discoverer struct {
	Queue []*agent.DiscoveryResult
	Err   error

	CallCount int
	Requests  []agent.DiscoveryRequest
}

func (d *Discoverer) Discover(_ context.Context, req agent.DiscoveryRequest) (*agent.DiscoveryResult, error) {
	d.CallCount++
	d.Requests = append(d.Requests, req)

	if d.Err != nil {
		return nil, d.Err
	}
	if len(d.Queue) == 0 {
		return &agent.DiscoveryResult{}, nil
	}
	res := d.Queue[0]
	if len(d.Queue) > 1 {
		d.Queue = d.Queue[1:]
	}
	return res, nil
}

type Extractor struct {
	Queue []*agent.ExtractionResult
	Err   error

	CallCount int
	Requests  []agent.ExtractionRequest
}

func (e *Extractor) Extract(_ context.Context, req agent.ExtractionRequest) (*agent.ExtractionResult, error) {
	e.CallCount++
	e.Requests = append(e.Requests, req)

	if e.Err != nil {
		return nil, e.Err
	}
	if len(e.Queue) == 0 {
		return &agent.ExtractionResult{}, nil
	}
	res := e.Queue[0]
	if len(e.Queue) > 1 {
		e.Queue = e.Queue[1:]
	}
	return res, nil
}

type Validator struct {
	Queue []*agent.ValidationResult
	Err   error

	CallCount int
	Requests  []agent.ValidationRequest
}

func (v *Validator) Validate(_ context.Context, req agent.ValidationRequest) (*agent.ValidationResult, error) {
	v.CallCount++
	v.Requests = append(v.Requests, req)

	if v.Err != nil {
		return nil, v.Err
	}
	if len(v.Queue) == 0 {
		return &agent.ValidationResult{}, nil
	}
	res := v.Queue[0]
	if len(v.Queue) > 1 {
		v.Queue = v.Queue[1:]
	}
	return res, nil
}

type FeedbackGenerator struct {
	Feedback *domain.TargetedFeedback
	Err      error

	CallCount int
	Requests  []agent.FeedbackRequest
}

func (f *FeedbackGenerator) GenerateFeedback(_ context.Context, req agent.FeedbackRequest) (*domain.TargetedFeedback, error) {
	f.CallCount++
	f.Requests = append(f.Requests, req)

	if f.Err != nil {
		return nil, f.Err
	}
	if f.Feedback == nil {
		return domain.DefaultExtractionRetryFeedback(req.Retailer), nil
	}
	return f.Feedback, nil
}
