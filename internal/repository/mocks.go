package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kitbuilder587/product-search-bot/internal/domain"
)

// MockRunRepository - in-memory реализация для тестов и прогонов без БД
type MockRunRepository struct {
	mu   sync.RWMutex
	runs map[string]*domain.SearchRun // key: SessionID
}

func NewMockRunRepository() *MockRunRepository {
	return &MockRunRepository{
		runs: make(map[string]*domain.SearchRun),
	}
}

func (m *MockRunRepository) SaveRun(ctx context.Context, run *domain.SearchRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.runs[run.SessionID]; exists {
		return domain.ErrDuplicateRun
	}

	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	m.runs[run.SessionID] = run
	return nil
}

func (m *MockRunRepository) GetBySessionID(ctx context.Context, sessionID string) (*domain.SearchRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if run, exists := m.runs[sessionID]; exists {
		return run, nil
	}
	return nil, domain.ErrRunNotFound
}

func (m *MockRunRepository) ListRecent(ctx context.Context, limit int) ([]domain.SearchRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]domain.SearchRun, 0, len(m.runs))
	for _, r := range m.runs {
		result = append(result, *r)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockRunRepository) ListByQuery(ctx context.Context, query string, limit int) ([]domain.SearchRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	queryLower := strings.ToLower(query)
	var result []domain.SearchRun
	for _, r := range m.runs {
		if strings.Contains(strings.ToLower(r.Query), queryLower) {
			result = append(result, *r)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
