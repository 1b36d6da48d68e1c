package telegram

import (
	"context"
	"fmt"
	"microcap-trading/config"
	"microcap-trading/pkg/logger"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/telebot.v3"
)

// Notifier pushes plain-text messages to a single operator chat.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

type sender interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

type TelegramNotifier struct {
	cfg           *config.TelegramConfig
	log           *logger.Logger
	globalLimiter *rate.Limiter
	bot           sender
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, string) error { return nil }

// NewNotifier creates a rate-limited telegram notifier. Without a bot token or chat id
// it returns a notifier that does nothing.
func NewNotifier(cfg *config.TelegramConfig, log *logger.Logger) (Notifier, error) {
	if cfg.BotToken == "" || cfg.ChatID == 0 {
		log.Debug("Telegram notifier disabled")
		return nopNotifier{}, nil
	}

	bot, err := telebot.NewBot(telebot.Settings{
		Token:   cfg.BotToken,
		Poller:  &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) { log.Error("Telegram bot error", logger.ErrorField(err)) },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return newTelegramNotifier(cfg, log, bot), nil
}

func newTelegramNotifier(cfg *config.TelegramConfig, log *logger.Logger, bot sender) *TelegramNotifier {
	perSecond := cfg.MaxGlobalRequestPerSecond
	if perSecond <= 0 {
		perSecond = 1
	}
	return &TelegramNotifier{
		cfg:           cfg,
		log:           log,
		globalLimiter: rate.NewLimiter(rate.Limit(perSecond), perSecond),
		bot:           bot,
	}
}

func (t *TelegramNotifier) Notify(ctx context.Context, message string) error {
	if err := t.globalLimiter.Wait(ctx); err != nil {
		t.log.ErrorContext(ctx, "Failed to wait for global rate limit", logger.ErrorField(err))
		return err
	}
	if _, err := t.bot.Send(&telebot.Chat{ID: t.cfg.ChatID}, message); err != nil {
		t.log.ErrorContext(ctx, "Failed to send telegram message", logger.ErrorField(err))
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}
