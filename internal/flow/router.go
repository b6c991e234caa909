package flow

import "github.com/kitbuilder587/product-search-bot/internal/domain"

// Transition - решение роутера о следующем шаге
type Transition int

const (
	TransitionAdvance Transition = iota
	TransitionRetryExtraction
	TransitionRetryDiscovery
	TransitionFinalize
)

func (t Transition) String() string {
	switch t {
	case TransitionAdvance:
		return "advance"
	case TransitionRetryExtraction:
		return "retry_extraction"
	case TransitionRetryDiscovery:
		return "retry_discovery"
	case TransitionFinalize:
		return "finalize"
	}
	return "unknown"
}

// Route - чистая функция маршрутизации после валидации. Порядок правил строгий:
//
//  1. Пустая экстракция - всегда advance, ретраи на "ничего не нашлось" не
//     тратим. Исключение: если advance исчерпает список и валидных продуктов
//     нет вообще, один раз отправляем на повторный discovery вместо финализации.
//  2. Валидация прошла или бюджет попыток кончился - advance.
//  3. Валидация провалилась, бюджет остался - выбираем ретрай по targeted
//     feedback; без внятного feedback ретраим extraction (дешевле ре-discovery).
//
// Сессию не мутирует: инкремент попытки делает диспетчер перехода.
func Route(s *domain.SearchSession, validationPassed, extractionEmpty bool) Transition {
	if extractionEmpty {
		if s.WouldExhaustOnAdvance() && len(s.ValidatedProducts) == 0 && !s.DiscoveryRescued {
			return TransitionRetryDiscovery
		}
		return TransitionAdvance
	}

	if validationPassed || s.CurrentAttempt >= s.MaxRetries {
		return TransitionAdvance
	}

	fb := s.LastFeedback
	if fb == nil {
		return TransitionRetryExtraction
	}

	switch fb.RecommendedApproach {
	case domain.ApproachResearchFirst:
		if fb.ShouldRetryResearch {
			return TransitionRetryDiscovery
		}
	case domain.ApproachExtractionFirst:
		if fb.ShouldRetryExtraction {
			return TransitionRetryExtraction
		}
	case domain.ApproachBothParallel:
		// discovery первым, extraction подхватит обновленного кандидата
		// на следующем витке
		return TransitionRetryDiscovery
	}

	// give_up и все нераспознанное
	return TransitionRetryExtraction
}
