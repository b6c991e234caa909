package domain

import "strings"

const (
	MaxQueryLength      = 500
	DefaultMaxRetailers = 5
	DefaultMaxRetries   = 3
)

// SearchRequest - входные параметры одного поиска
type SearchRequest struct {
	Query        string
	MaxRetailers int
	MaxRetries   int
	SessionID    string
}

func (r *SearchRequest) ApplyDefaults() {
	if r.MaxRetailers == 0 {
		r.MaxRetailers = DefaultMaxRetailers
	}
	if r.MaxRetries == 0 {
		r.MaxRetries = DefaultMaxRetries
	}
}

func (r *SearchRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return ErrEmptyQuery
	}
	if len(r.Query) > MaxQueryLength {
		return ErrQueryTooLong
	}
	if r.MaxRetailers < 1 || r.MaxRetailers > 20 {
		return ErrInvalidMaxRetailers
	}
	if r.MaxRetries < 1 || r.MaxRetries > 10 {
		return ErrInvalidMaxRetries
	}
	return nil
}

func (r *SearchRequest) Sanitize() {
	r.Query = strings.TrimSpace(r.Query)
}

// SessionStats - счетчики, обновляются только в определенных переходах
type SessionStats struct {
	RetailersSearched int
	TotalAttempts     int
	SuccessRate       float64
}

// SearchSession is the single mutable record of one product search run. It is
// owned exclusively by the flow for the run's lifetime and never shared, so
// no locking is needed.
type SearchSession struct {
	Query        string
	MaxRetailers int
	MaxRetries   int
	SessionID    string

	// Candidates are processed in discovery order. CurrentIndex == len(Candidates)
	// signals exhaustion; the index is clamped, never allowed past that.
	Candidates     []RetailerCandidate
	CurrentIndex   int
	CurrentAttempt int

	// PendingProducts is scratch space for the active candidate, replaced
	// wholesale by each extraction. ValidatedProducts only ever grows.
	PendingProducts   []RawProduct
	ValidatedProducts []ValidatedProduct
	ExcludedURLs      []string
	LastFeedback      *TargetedFeedback

	Stats SessionStats

	// DiscoveryRescued marks that the one last-resort discovery pass on
	// exhaustion-with-zero-results has already been spent.
	DiscoveryRescued bool

	LastError string
}

func NewSearchSession(req SearchRequest) *SearchSession {
	return &SearchSession{
		Query:          req.Query,
		MaxRetailers:   req.MaxRetailers,
		MaxRetries:     req.MaxRetries,
		SessionID:      req.SessionID,
		CurrentAttempt: 1,
	}
}

// CurrentCandidate возвращает активного кандидата, ok=false если список исчерпан
func (s *SearchSession) CurrentCandidate() (*RetailerCandidate, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Candidates) {
		return nil, false
	}
	return &s.Candidates[s.CurrentIndex], true
}

func (s *SearchSession) Exhausted() bool {
	return s.CurrentIndex >= len(s.Candidates)
}

// WouldExhaustOnAdvance reports whether moving past the active candidate
// leaves nothing to process, either because the list ends or because the
// retailer budget is spent.
func (s *SearchSession) WouldExhaustOnAdvance() bool {
	hasMoreInList := s.CurrentIndex+1 < len(s.Candidates)
	withinBudget := s.Stats.RetailersSearched+1 < s.MaxRetailers
	return !(hasMoreInList && withinBudget)
}

// Advance moves to the next candidate, resets the attempt counter and clears
// per-retailer scratch state. Returns true when another candidate is available.
func (s *SearchSession) Advance() bool {
	s.CurrentIndex++
	s.ClampIndex()
	s.CurrentAttempt = 1
	s.Stats.RetailersSearched++
	s.PendingProducts = nil
	s.LastFeedback = nil

	return s.CurrentIndex < len(s.Candidates) && s.Stats.RetailersSearched < s.MaxRetailers
}

// ClampIndex держит индекс в пределах [0, len(candidates)] - выход за границу
// это сигнал исчерпания, а не паника
func (s *SearchSession) ClampIndex() {
	if s.CurrentIndex > len(s.Candidates) {
		s.CurrentIndex = len(s.Candidates)
	}
	if s.CurrentIndex < 0 {
		s.CurrentIndex = 0
	}
}

func (s *SearchSession) RecordValidated(products []ValidatedProduct) {
	s.ValidatedProducts = append(s.ValidatedProducts, products...)
}

func (s *SearchSession) ExcludeURL(url string) {
	if url == "" {
		return
	}
	for _, u := range s.ExcludedURLs {
		if u == url {
			return
		}
	}
	s.ExcludedURLs = append(s.ExcludedURLs, url)
}

// CheckInvariants проверяет структурные инварианты сессии; используется в
// тестах как observable checkpoint
func (s *SearchSession) CheckInvariants() error {
	if s.CurrentIndex < 0 || s.CurrentIndex > len(s.Candidates) {
		return ErrIndexOutOfBand
	}
	if s.CurrentAttempt < 1 || s.CurrentAttempt > s.MaxRetries {
		return ErrInvalidMaxRetries
	}
	return nil
}
