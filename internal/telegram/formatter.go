// Package telegram sends finished search reports to a Telegram chat.
// The bot is a one-way notifier, not a command interface.
package telegram

import (
	"fmt"
	"html"
	"strings"

	"github.com/kitbuilder587/product-search-bot/internal/domain"
)

const maxMessageLength = 4096

// FormatSearchResult рендерит отчет в HTML для отправки в чат
func FormatSearchResult(result *domain.SearchResult) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "<b>Поиск:</b> %s\n\n", html.EscapeString(result.SearchQuery))

	if len(result.Results) == 0 {
		sb.WriteString("Ничего не найдено.\n")
	} else {
		for i, p := range result.Results {
			fmt.Fprintf(&sb, "%d. <b>%s</b>\n", i+1, html.EscapeString(p.ProductName))
			fmt.Fprintf(&sb, "   %s — %s\n", html.EscapeString(p.Retailer), html.EscapeString(p.Price))
			if p.URL != "" {
				fmt.Fprintf(&sb, "   <a href=\"%s\">%s</a>\n", html.EscapeString(p.URL), html.EscapeString(truncateURL(p.URL, 50)))
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString("━━━━━━━━━━━━━━━━━━━━━\n")
	m := result.Metadata
	fmt.Fprintf(&sb, "Ритейлеров: %d | Попыток: %d | Успех: %.0f%%",
		m.RetailersSearched, m.TotalAttempts, m.SuccessRate*100)

	if m.Error != "" {
		fmt.Fprintf(&sb, "\n⚠ %s", html.EscapeString(m.Error))
	}

	return sb.String()
}

func SplitMessage(text string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = maxMessageLength
	}
	if len(text) <= maxLen {
		return []string{text}
	}

	var messages []string
	for len(text) > 0 {
		if len(text) <= maxLen {
			messages = append(messages, text)
			break
		}

		splitPoint := findSafeSplitPoint(text, maxLen)
		if splitPoint <= 0 || splitPoint > len(text) {
			splitPoint = maxLen
		}

		messages = append(messages, text[:splitPoint])
		text = text[splitPoint:]
	}

	return messages
}

func findSafeSplitPoint(text string, maxLen int) int {
	// ищем перевод строки ближе к границе, чтобы не резать HTML-теги
	for i := maxLen; i > maxLen/2; i-- {
		if text[i-1] == '\n' {
			return i
		}
	}
	for i := maxLen; i > maxLen/2; i-- {
		if text[i-1] == ' ' {
			return i
		}
	}
	return maxLen
}

func truncateURL(url string, maxLen int) string {
	if len(url) <= maxLen {
		return url
	}
	return url[:maxLen-3] + "..."
}
