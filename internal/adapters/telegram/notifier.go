package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/salesintel/tracker/internal/adapters/config"
	"github.com/salesintel/tracker/pkg/logger"
	"github.com/salesintel/tracker/pkg/models"
)

// Notifier pushes hot-company alerts to a Telegram chat after a pipeline run.
type Notifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewNotifier creates a Telegram notifier. Token and chat ID are both
// required; callers should skip construction when alerts are not configured.
func NewNotifier(cfg *config.TelegramConfig) (*Notifier, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}
	if cfg.ChatID == 0 {
		return nil, fmt.Errorf("telegram chat ID is required")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	bot.Debug = false

	logger.Info("telegram notifier initialized",
		zap.String("bot_username", bot.Self.UserName),
	)

	return &Notifier{
		api:    bot,
		chatID: cfg.ChatID,
	}, nil
}

// SendHotCompanies sends one message listing every company currently ranked
// hot. Does nothing when the slice is empty.
func (n *Notifier) SendHotCompanies(ctx context.Context, summaries []models.CompanyPainSummary) error {
	hot := make([]models.CompanyPainSummary, 0, len(summaries))
	for _, s := range summaries {
		if s.Urgency == models.UrgencyHot {
			hot = append(hot, s)
		}
	}
	if len(hot) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("🔥 *Hot accounts*\n\n")
	for _, s := range hot {
		name := s.Name
		if s.Ticker != nil && *s.Ticker != "" {
			name = fmt.Sprintf("%s (%s)", s.Name, *s.Ticker)
		}
		fmt.Fprintf(&b, "*%s* — pain %.2f, %d signal(s)\n%s\n\n",
			name, s.MaxPainScore, s.SignalCount, s.MaxPainSummary)
	}

	return n.sendMessageMarkdown(b.String())
}

func (n *Notifier) sendMessageMarkdown(text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = "Markdown"

	_, err := n.api.Send(msg)
	if err != nil {
		logger.Error("failed to send telegram message",
			zap.Int64("chat_id", n.chatID),
			zap.Error(err),
		)
		return err
	}

	return nil
}
