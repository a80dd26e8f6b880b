package service

import (
	"fmt"

	"signal_bot/internal/models"
	"signal_bot/internal/modules/config"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// StatusSource — что показываем по /status (живёт в диспетчере).
type StatusSource interface {
	QueueDepth() int
	HeldSymbols() []string
}

// HealthView — сводка для периодического health-сообщения.
type HealthView interface {
	WSConnected() bool
}

// Telegram слушает сигнальный чат и шлёт журнал исполнения в лог-чат.
type Telegram struct {
	bot     *tgbot.BotAPI
	sources *config.Sources

	// разобранные сигналы уходят сюда, диспетчер читает с той стороны
	signals chan<- models.Signal

	status StatusSource
	health HealthView
}

func NewTelegram(cfg *config.Config, sources *config.Sources, signals chan models.Signal) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &Telegram{
		bot:     b,
		sources: sources,
		signals: signals,
	}, nil
}

// SetStatusSource вяжет /status к диспетчеру после сборки графа
// (прямая зависимость дала бы цикл: диспетчер сам шлёт сюда события).
func (t *Telegram) SetStatusSource(s StatusSource) { t.status = s }

func (t *Telegram) SetHealthView(h HealthView) { t.health = h }

// Send — сообщение в лог-чат. Ошибки доставки глотаем: нотификация
// не должна ронять исполнение.
func (t *Telegram) Send(msg string) {
	if t == nil || t.bot == nil || t.sources.LogChatID == 0 {
		return
	}
	_, _ = t.bot.Send(tgbot.NewMessage(t.sources.LogChatID, msg))
}

func (t *Telegram) Sendf(format string, args ...any) { t.Send(fmt.Sprintf(format, args...)) }

func (t *Telegram) Stop() {
	if t != nil && t.bot != nil {
		t.bot.StopReceivingUpdates()
	}
}
