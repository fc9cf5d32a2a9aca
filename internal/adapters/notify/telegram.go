package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"os"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/okian/cfcoach/internal/domain/report"
	"github.com/okian/cfcoach/pkg/logger"
	"github.com/okian/cfcoach/pkg/metrics"
)

const (
	channelTelegram = "telegram"
	plotCaption     = "📈 Progress Plot"
)

// Sender is the part of *tgbotapi.BotAPI used for delivery.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramOption applies a configuration option to the Telegram notifier.
type TelegramOption func(*Telegram)

// WithTelegramLogger sets the logger.
func WithTelegramLogger(l logger.Logger) TelegramOption {
	return func(t *Telegram) {
		if l != nil {
			t.logger = l
		}
	}
}

// Telegram sends an HTML message and the plot image to one chat.
type Telegram struct {
	sender Sender
	chatID int64
	logger logger.Logger
}

// NewTelegram creates a Telegram notifier sending through sender.
func NewTelegram(sender Sender, chatID int64, opts ...TelegramOption) (*Telegram, error) {
	if sender == nil || chatID == 0 {
		return nil, fmt.Errorf("%w: telegram needs a sender and a chat id", ErrInvalidSetup)
	}
	t := &Telegram{
		sender: sender,
		chatID: chatID,
		logger: logger.Get().Named("telegram"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// NewTelegramBot connects to the Bot API with token. The getMe call it makes
// doubles as a connectivity check.
func NewTelegramBot(token string) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("%w: telegram: %w", ErrInvalidSetup, err)
	}
	return bot, nil
}

// Notify implements Notifier. A missing plot file is not an error.
func (t *Telegram) Notify(ctx context.Context, rep report.Report, plotPath string) error {
	msg := tgbotapi.NewMessage(t.chatID, Format(rep))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := t.sender.Send(msg); err != nil {
		return t.fail(ctx, fmt.Errorf("%w: telegram message: %w", ErrDelivery, err))
	}

	if plotPath != "" {
		if _, err := os.Stat(plotPath); err == nil {
			photo := tgbotapi.NewPhoto(t.chatID, tgbotapi.FilePath(plotPath))
			photo.Caption = plotCaption
			if _, err := t.sender.Send(photo); err != nil {
				return t.fail(ctx, fmt.Errorf("%w: telegram photo: %w", ErrDelivery, err))
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			t.logger.Warn(ctx, "plot not readable", logger.String("path", plotPath), logger.Error(err))
		}
	}

	metrics.RecordNotification(channelTelegram, outcomeOK)
	t.logger.Info(ctx, "report delivered", logger.String("handle", rep.Handle))
	return nil
}

func (t *Telegram) fail(ctx context.Context, err error) error {
	metrics.RecordNotification(channelTelegram, outcomeError)
	t.logger.Error(ctx, "telegram delivery failed", logger.Error(err))
	return err
}

// Format renders rep as Telegram HTML. Empty sections are omitted.
func Format(rep report.Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>🏆 %s</b>\n", html.EscapeString(rep.Title()))
	fmt.Fprintf(&sb, "Current Rating: %d (%s)\n", rep.Rating, html.EscapeString(rep.Tier))
	fmt.Fprintf(&sb, "Next Milestone: %d points to %s\n", rep.PointsToNext, html.EscapeString(rep.NextTier))

	if weak := rep.Weakest(); len(weak) > 0 {
		sb.WriteString("\n<b>🔍 Weak Areas:</b>\n")
		for _, w := range weak {
			fmt.Fprintf(&sb, "- %s (%s)\n", html.EscapeString(w.Topic), report.FormatAccuracy(w.Accuracy))
		}
	}
	if len(rep.Recommendations) > 0 {
		sb.WriteString("\n<b>📚 Recommended Problems:</b>\n")
		for _, p := range rep.Recommendations {
			fmt.Fprintf(&sb, "- <a href=\"%s\">%s</a> (%d rating)\n",
				html.EscapeString(p.URL), html.EscapeString(p.Name), p.Rating)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
