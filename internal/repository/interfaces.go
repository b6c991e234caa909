package repository

import (
	"context"

	"github.com/kitbuilder587/product-search-bot/internal/domain"
)

// RunRepository - история прогонов поиска. Хранилище опционально:
// прогон работает и без него, теряется только история.
type RunRepository interface {
	SaveRun(ctx context.Context, run *domain.SearchRun) error
	GetBySessionID(ctx context.Context, sessionID string) (*domain.SearchRun, error)
	ListRecent(ctx context.Context, limit int) ([]domain.SearchRun, error)
	ListByQuery(ctx context.Context, query string, limit int) ([]domain.SearchRun, error)
}
