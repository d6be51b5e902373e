package notify

import (
	"context"
	"fmt"
	"strings"

	"digitbot/internal/models"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

type tgSender interface {
	Send(c tgbot.Chattable) (tgbot.Message, error)
}

// TelegramSink — сигналы в чат. Лимитер держит нас в рамках лимитов Bot API.
type TelegramSink struct {
	bot     tgSender
	chatID  int64
	limiter *rate.Limiter
}

func NewTelegramSink(token string, chatID int64, perSec float64) (*TelegramSink, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return newTelegramSink(b, chatID, perSec), nil
}

func newTelegramSink(bot tgSender, chatID int64, perSec float64) *TelegramSink {
	return &TelegramSink{
		bot:     bot,
		chatID:  chatID,
		limiter: rate.NewLimiter(rate.Limit(perSec), 1),
	}
}

func (t *TelegramSink) Name() string { return "telegram" }

func (t *TelegramSink) Publish(ctx context.Context, token string, sig models.Signal) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := t.bot.Send(tgbot.NewMessage(t.chatID, formatSignal(token, sig)))
	return err
}

func formatSignal(token string, sig models.Signal) string {
	var b strings.Builder
	emoji := "🎯"
	if sig.Action == models.ActionHedge {
		emoji = "⚖️"
	}
	fmt.Fprintf(&b, "%s %s [%s]\n", emoji, sig.Strategy, tail(token))
	for _, c := range sig.Contracts {
		fmt.Fprintf(&b, "- %s %d on %s, stake %.2f, %d ticks\n",
			strings.ToUpper(strings.TrimPrefix(string(c.Type), "digit_")), c.Prediction, c.Symbol, c.Amount, c.Duration)
	}
	b.WriteString(sig.Reason)
	return b.String()
}
