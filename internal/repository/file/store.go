// Package file persists finished search reports as timestamped JSON files.
package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/product-search-bot/internal/domain"
)

const filenameLayout = "20060102_150405"

type Store struct {
	dir    string
	logger *zap.Logger
}

func NewStore(dir string, logger *zap.Logger) *Store {
	if dir == "" {
		dir = "product-search-results"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{dir: dir, logger: logger}
}

// Save пишет отчет в <dir>/product_search_<timestamp>.json и возвращает путь.
// Путь также прописывается в metadata отчета, чтобы потребители результата
// знали, где лежит файл.
func (s *Store) Save(result *domain.SearchResult) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create results dir: %w", err)
	}

	filename := fmt.Sprintf("product_search_%s.json", time.Now().Format(filenameLayout))
	path := filepath.Join(s.dir, filename)

	result.Metadata.ResultsFile = path

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write result file: %w", err)
	}

	s.logger.Info("result saved",
		zap.String("path", path),
		zap.Int("products", len(result.Results)),
	)
	return path, nil
}
