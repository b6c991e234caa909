package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/kitbuilder587/product-search-bot/internal/domain"
)

type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *zap.Logger
}

func NewNotifier(token string, chatID int64, logger *zap.Logger) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	logger.Info("telegram notifier ready", zap.String("bot", bot.Self.UserName))
	return &Notifier{bot: bot, chatID: chatID, logger: logger}, nil
}

// NotifySearchDone шлет отчет в чат, при необходимости несколькими
// сообщениями. Ошибки отправки логируются, но прогон не роняют.
func (n *Notifier) NotifySearchDone(result *domain.SearchResult) error {
	text := FormatSearchResult(result)

	for _, chunk := range SplitMessage(text, maxMessageLength) {
		msg := tgbotapi.NewMessage(n.chatID, chunk)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true

		if _, err := n.bot.Send(msg); err != nil {
			n.logger.Error("send notification failed",
				zap.Int64("chat_id", n.chatID),
				zap.Error(err),
			)
			return fmt.Errorf("send message: %w", err)
		}
	}

	return nil
}
