package flow

import (
	"strings"

	"github.com/kitbuilder587/product-search-bot/internal/domain"
)

func normalizeURL(u string) string {
	return strings.ToLower(strings.TrimSpace(u))
}

// DedupeByURL убирает дубли по нормализованному URL, сохраняя порядок
// первых вхождений. Кандидаты без URL не дедуплицируются.
func DedupeByURL(candidates []domain.RetailerCandidate) []domain.RetailerCandidate {
	seen := make(map[string]bool, len(candidates))
	out := make([]domain.RetailerCandidate, 0, len(candidates))
	for _, c := range candidates {
		key := normalizeURL(c.URL)
		if key != "" {
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out = append(out, c)
	}
	return out
}

// AppendUniqueByURL добавляет кандидатов с еще не встречавшимся URL.
// maxItems > 0 ограничивает итоговую длину target.
func AppendUniqueByURL(target []domain.RetailerCandidate, candidates []domain.RetailerCandidate, maxItems int) []domain.RetailerCandidate {
	existing := make(map[string]bool, len(target))
	for _, c := range target {
		if key := normalizeURL(c.URL); key != "" {
			existing[key] = true
		}
	}

	for _, c := range candidates {
		key := normalizeURL(c.URL)
		if key == "" || existing[key] {
			continue
		}
		if maxItems > 0 && len(target) >= maxItems {
			break
		}
		target = append(target, c)
		existing[key] = true
	}
	return target
}

// BackfillFromDiscovery заполняет пустые поля продукта из discovery-записи.
// Непустые поля не перезаписываются никогда: extraction надежнее discovery,
// но иногда возвращает полупустые записи.
func BackfillFromDiscovery(p *domain.RawProduct, c domain.RetailerCandidate) {
	if p == nil {
		return
	}
	if p.Price == "" || p.Price == domain.PriceUnavailable {
		if c.Price != "" {
			p.Price = c.Price
		}
	}
	if p.URL == "" {
		p.URL = c.URL
	}
	if p.Retailer == "" {
		p.Retailer = c.Name
	}
	if p.Availability == "" {
		p.Availability = c.Availability
	}
}

// MergeImprovedCandidates вливает результат повторного discovery в сессию:
// первый улучшенный кандидат замещает активный слот, остальные дописываются
// в хвост без дублей по URL, с капом на max retailers. Если список пуст или
// индекс за границей - сеемся заново и откатываем индекс на 0.
func MergeImprovedCandidates(s *domain.SearchSession, improved []domain.RetailerCandidate) {
	if len(improved) == 0 {
		return
	}

	if _, ok := s.CurrentCandidate(); ok {
		s.Candidates[s.CurrentIndex] = improved[0]
		s.Candidates = AppendUniqueByURL(s.Candidates, improved[1:], s.MaxRetailers)
		return
	}

	s.Candidates = AppendUniqueByURL(nil, improved, s.MaxRetailers)
	s.CurrentIndex = 0
}
