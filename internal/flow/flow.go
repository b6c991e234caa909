// Package flow drives one product search run through its discovery,
// extraction, validation and routing states. The session is owned by the
// flow for the whole run; collaborators only see request/response DTOs.
package flow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/product-search-bot/internal/agent"
	"github.com/kitbuilder587/product-search-bot/internal/domain"
	"github.com/kitbuilder587/product-search-bot/internal/metrics"
)

type state int

const (
	stateDiscover state = iota
	stateExtract
	stateValidate
	stateRoute
	stateRetryDiscover
	stateFinalize
)

func (s state) String() string {
	switch s {
	case stateDiscover:
		return "discover"
	case stateExtract:
		return "extract"
	case stateValidate:
		return "validate"
	case stateRoute:
		return "route"
	case stateRetryDiscover:
		return "retry_discover"
	case stateFinalize:
		return "finalize"
	}
	return "unknown"
}

type Deps struct {
	Discoverer agent.Discoverer
	Extractor  agent.Extractor
	Validator  agent.Validator
	Feedback   agent.FeedbackGenerator

	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Flow - оркестратор одного поиска. Stateless между прогонами: все
// изменяемое живет в run, поэтому один Flow можно гонять конкурентно.
type Flow struct {
	discoverer agent.Discoverer
	extractor  agent.Extractor
	validator  agent.Validator
	feedback   agent.FeedbackGenerator

	logger  *zap.Logger
	metrics *metrics.Metrics
}

func New(deps Deps) *Flow {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Flow{
		discoverer: deps.Discoverer,
		extractor:  deps.Extractor,
		validator:  deps.Validator,
		feedback:   deps.Feedback,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
	}
}

// run - изменяемое состояние одного прогона
type run struct {
	session *domain.SearchSession

	// результаты последней пары extract/validate, вход для Route
	validationPassed bool
	extractionEmpty  bool
}

// Run выполняет полный цикл поиска и всегда возвращает отчет, даже
// частичный: ошибки коллабораторов и отмена контекста попадают в metadata,
// а не теряют уже валидированные продукты. Ошибка возвращается только на
// невалидный запрос.
func (f *Flow) Run(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error) {
	req.Sanitize()
	req.ApplyDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	if f.metrics != nil {
		f.metrics.IncSearchesInFlight()
		defer f.metrics.DecSearchesInFlight()
	}

	r := &run{session: domain.NewSearchSession(req)}
	logger := f.logger.With(
		zap.String("session_id", req.SessionID),
		zap.String("query", req.Query),
	)
	logger.Info("search started",
		zap.Int("max_retailers", req.MaxRetailers),
		zap.Int("max_retries", req.MaxRetries),
	)

	st := stateDiscover
	for st != stateFinalize {
		// отмена проверяется только между переходами: начатый шаг
		// дорабатывает до конца
		if err := ctx.Err(); err != nil {
			r.session.LastError = fmt.Sprintf("cancelled: %v", err)
			logger.Warn("search cancelled", zap.String("state", st.String()))
			break
		}

		var next state
		switch st {
		case stateDiscover:
			next = f.discover(ctx, r, logger)
		case stateExtract:
			next = f.extract(ctx, r, logger)
		case stateValidate:
			next = f.validate(ctx, r, logger)
		case stateRoute:
			next = f.route(r, logger)
		case stateRetryDiscover:
			next = f.retryDiscover(ctx, r, logger)
		default:
			next = stateFinalize
		}
		st = next
	}

	result := f.finalize(r, logger)

	if f.metrics != nil {
		status := "ok"
		if r.session.LastError != "" {
			status = "error"
		}
		f.metrics.RecordSearch(status, time.Since(start))
		f.metrics.RecordValidatedProducts(len(r.session.ValidatedProducts))
	}

	return result, nil
}

func (f *Flow) discover(ctx context.Context, r *run, logger *zap.Logger) state {
	s := r.session

	res, err := f.discoverer.Discover(ctx, agent.DiscoveryRequest{
		Query:        s.Query,
		MaxRetailers: s.MaxRetailers,
	})
	if err != nil {
		return f.fail(r, logger, "discovery", err)
	}

	s.Candidates = DedupeByURL(res.Candidates)
	if len(s.Candidates) == 0 {
		// пустой discovery - не ошибка: тратим единственный спасательный
		// повтор, пустой повтор финализирует чисто
		logger.Warn("discovery returned no candidates, retrying once")
		s.DiscoveryRescued = true
		s.LastFeedback = domain.DefaultResearchRetryFeedback()
		return stateRetryDiscover
	}

	logger.Info("discovery done",
		zap.Int("candidates", len(s.Candidates)),
		zap.Int("total_found", res.TotalFound),
	)
	return stateExtract
}

func (f *Flow) extract(ctx context.Context, r *run, logger *zap.Logger) state {
	s := r.session

	candidate, ok := s.CurrentCandidate()
	if !ok {
		// защитная ветка: сюда попадаем только если merge оставил пустой список
		return stateFinalize
	}

	s.Stats.TotalAttempts++
	if f.metrics != nil {
		f.metrics.RecordAttempt()
	}

	res, err := f.extractor.Extract(ctx, agent.ExtractionRequest{
		Query:    s.Query,
		Retailer: candidate.Name,
		URL:      resolveCandidateURL(*candidate),
		Attempt:  s.CurrentAttempt,
		Guidance: s.LastFeedback,
	})
	if err != nil {
		return f.fail(r, logger, "extraction", err)
	}

	products := res.Products
	for i := range products {
		BackfillFromDiscovery(&products[i], *candidate)
	}
	s.PendingProducts = products

	r.extractionEmpty = len(products) == 0
	r.validationPassed = false

	logger.Debug("extraction done",
		zap.String("retailer", candidate.Name),
		zap.Int("attempt", s.CurrentAttempt),
		zap.Int("products", len(products)),
	)

	if r.extractionEmpty {
		// валидировать нечего, сразу к роутеру
		return stateRoute
	}
	return stateValidate
}

func (f *Flow) validate(ctx context.Context, r *run, logger *zap.Logger) state {
	s := r.session
	candidate, _ := s.CurrentCandidate()
	retailer := ""
	if candidate != nil {
		retailer = candidate.Name
	}

	res, err := f.validator.Validate(ctx, agent.ValidationRequest{
		Query:       s.Query,
		Products:    s.PendingProducts,
		Retailer:    retailer,
		Attempt:     s.CurrentAttempt,
		MaxAttempts: s.MaxRetries,
	})
	if err != nil {
		return f.fail(r, logger, "validation", err)
	}

	r.validationPassed = res.Passed
	if res.Passed {
		s.RecordValidated(res.Products)
		s.LastFeedback = nil
		logger.Info("validation passed",
			zap.String("retailer", retailer),
			zap.Int("validated", len(res.Products)),
		)
		return stateRoute
	}

	logger.Info("validation failed",
		zap.String("retailer", retailer),
		zap.Int("attempt", s.CurrentAttempt),
		zap.Strings("failures", res.Failures),
	)

	// feedback-агент совещательный: его ошибка не роняет прогон,
	// ретраим extraction по дефолтной директиве
	fb, err := f.feedback.GenerateFeedback(ctx, agent.FeedbackRequest{
		Query:       s.Query,
		Failures:    res.Failures,
		Retailer:    retailer,
		Attempt:     s.CurrentAttempt,
		MaxAttempts: s.MaxRetries,
	})
	if err != nil || fb == nil {
		logger.Warn("feedback generation failed, using default directive", zap.Error(err))
		fb = domain.DefaultExtractionRetryFeedback(retailer)
	}
	s.LastFeedback = fb

	return stateRoute
}

func (f *Flow) route(r *run, logger *zap.Logger) state {
	s := r.session

	t := Route(s, r.validationPassed, r.extractionEmpty)
	if f.metrics != nil {
		f.metrics.RecordTransition(t.String())
	}
	logger.Debug("route decision",
		zap.String("transition", t.String()),
		zap.Int("index", s.CurrentIndex),
		zap.Int("attempt", s.CurrentAttempt),
	)

	switch t {
	case TransitionAdvance:
		if c, ok := s.CurrentCandidate(); ok {
			s.ExcludeURL(c.URL)
		}
		if !s.Advance() {
			return stateFinalize
		}
		return stateExtract

	case TransitionRetryExtraction:
		s.CurrentAttempt++
		return stateExtract

	case TransitionRetryDiscovery:
		if r.extractionEmpty {
			// последний шанс: список исчерпан, валидных продуктов нет.
			// Пустой ритейлер сначала засчитывается как пройденный.
			if c, ok := s.CurrentCandidate(); ok {
				s.ExcludeURL(c.URL)
			}
			s.Advance()
			s.DiscoveryRescued = true
			if s.LastFeedback == nil {
				s.LastFeedback = domain.DefaultResearchRetryFeedback()
			}
			return stateRetryDiscover
		}
		s.CurrentAttempt++
		return stateRetryDiscover

	default:
		return stateFinalize
	}
}

func (f *Flow) retryDiscover(ctx context.Context, r *run, logger *zap.Logger) state {
	s := r.session

	res, err := f.discoverer.Discover(ctx, agent.DiscoveryRequest{
		Query:        s.Query,
		MaxRetailers: s.MaxRetailers,
		Guidance:     s.LastFeedback,
		ExcludeURLs:  s.ExcludedURLs,
	})
	if err != nil {
		return f.fail(r, logger, "retry discovery", err)
	}

	improved := DedupeByURL(res.Candidates)
	if len(improved) == 0 && s.Exhausted() {
		logger.Warn("retry discovery returned nothing")
		return stateFinalize
	}

	MergeImprovedCandidates(s, improved)
	if _, ok := s.CurrentCandidate(); !ok {
		return stateFinalize
	}

	logger.Info("retry discovery merged",
		zap.Int("improved", len(improved)),
		zap.Int("candidates", len(s.Candidates)),
	)
	return stateExtract
}

// fail фиксирует ошибку коллаборатора и уводит прогон в финализацию
// с частичным результатом
func (f *Flow) fail(r *run, logger *zap.Logger, stage string, err error) state {
	r.session.LastError = fmt.Sprintf("%s: %v", stage, err)
	logger.Error("stage failed", zap.String("stage", stage), zap.Error(err))
	return stateFinalize
}

func (f *Flow) finalize(r *run, logger *zap.Logger) *domain.SearchResult {
	s := r.session

	attempts := s.Stats.TotalAttempts
	if attempts < 1 {
		attempts = 1
	}
	s.Stats.SuccessRate = float64(len(s.ValidatedProducts)) / float64(attempts)

	result := domain.BuildSearchResult(s, time.Now())

	logger.Info("search finished",
		zap.Int("validated", len(s.ValidatedProducts)),
		zap.Int("retailers_searched", s.Stats.RetailersSearched),
		zap.Int("total_attempts", s.Stats.TotalAttempts),
		zap.Float64("success_rate", s.Stats.SuccessRate),
		zap.String("error", s.LastError),
	)
	return result
}

// resolveCandidateURL - extraction всегда получает какой-то URL: сырой из
// discovery, достроенный по схеме, или заглушка по имени ритейлера
func resolveCandidateURL(c domain.RetailerCandidate) string {
	u := strings.TrimSpace(c.URL)
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	if u != "" {
		return "https://" + u
	}

	slug := strings.ToLower(strings.TrimSpace(c.Name))
	slug = strings.ReplaceAll(slug, " ", "")
	if slug == "" {
		slug = "unknown"
	}
	return "https://www." + slug + ".com"
}
