package domain

import "time"

// ProductResult - одна строка финального отчета
type ProductResult struct {
	ProductName string `json:"product_name"`
	Price       string `json:"price"`
	URL         string `json:"url"`
	Retailer    string `json:"retailer"`
	Timestamp   string `json:"timestamp"`
}

type ResultMetadata struct {
	SessionID         string  `json:"session_id"`
	RetailersSearched int     `json:"retailers_searched"`
	TotalAttempts     int     `json:"total_attempts"`
	SuccessRate       float64 `json:"success_rate"`
	CompletedAt       string  `json:"completed_at"`
	ResultsFile       string  `json:"results_file,omitempty"`
	Error             string  `json:"error,omitempty"`
}

// SearchResult - итоговая запись одного прогона, сериализуется в файл как есть
type SearchResult struct {
	SearchQuery string          `json:"search_query"`
	Results     []ProductResult `json:"results"`
	Metadata    ResultMetadata  `json:"metadata"`
}

// SearchRun - запись истории прогонов для хранилища
type SearchRun struct {
	SessionID string
	Query     string
	Result    *SearchResult
	CreatedAt time.Time
}

// BuildSearchResult собирает финальный отчет из состояния сессии.
// Частичный результат - тоже результат: ошибки попадают в metadata, не наружу.
func BuildSearchResult(s *SearchSession, completedAt time.Time) *SearchResult {
	results := make([]ProductResult, 0, len(s.ValidatedProducts))
	for _, p := range s.ValidatedProducts {
		results = append(results, ProductResult{
			ProductName: p.Name,
			Price:       p.Price,
			URL:         p.URL,
			Retailer:    p.Retailer,
			Timestamp:   completedAt.Format(time.RFC3339),
		})
	}

	return &SearchResult{
		SearchQuery: s.Query,
		Results:     results,
		Metadata: ResultMetadata{
			SessionID:         s.SessionID,
			RetailersSearched: s.Stats.RetailersSearched,
			TotalAttempts:     s.Stats.TotalAttempts,
			SuccessRate:       s.Stats.SuccessRate,
			CompletedAt:       completedAt.Format(time.RFC3339),
			Error:             s.LastError,
		},
	}
}
