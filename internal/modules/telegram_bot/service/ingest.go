package service

import (
	"context"
	"fmt"
	"strings"

	"signal_bot/internal/parser"
	"signal_bot/pkg/logger"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Start: long-polling апдейтов. Сообщения сигнального чата гоняем через
// парсер; команды принимаем из лог-чата.
func (t *Telegram) Start(ctx context.Context) error {
	if t == nil || t.bot == nil {
		return nil
	}

	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message", "channel_post"}

	updates := t.bot.GetUpdatesChan(u)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case upd := <-updates:
				msg := upd.Message
				if msg == nil {
					msg = upd.ChannelPost
				}
				if msg == nil || msg.Chat == nil {
					continue
				}

				switch msg.Chat.ID {
				case t.sources.SignalChatID:
					t.onSignalMessage(ctx, msg.Text)
				case t.sources.LogChatID:
					if msg.IsCommand() {
						t.onCommand(msg.Command())
					}
				}
			}
		}
	}()
	return nil
}

func (t *Telegram) onSignalMessage(ctx context.Context, text string) {
	if strings.TrimSpace(text) == "" || !parser.LooksLikeSignal(text) {
		return
	}

	sig, err := parser.ParseSignal(text)
	if err != nil {
		// не сигнал или битый сигнал — в очередь не попадает
		logger.Info("[INGEST] message rejected: %v", err)
		return
	}

	select {
	case t.signals <- sig:
		logger.Info("[INGEST] %s %s parsed and forwarded", sig.Symbol, sig.Position)
	case <-ctx.Done():
	}
}

func (t *Telegram) onCommand(cmd string) {
	switch cmd {
	case "status":
		if t.status == nil {
			t.Send("📭 Диспетчер ещё не запущен")
			return
		}
		held := t.status.HeldSymbols()
		if len(held) == 0 {
			t.Sendf("📊 Очередь: %d | в работе: нет", t.status.QueueDepth())
			return
		}
		t.Sendf("📊 Очередь: %d | в работе: %s", t.status.QueueDepth(), strings.Join(held, ", "))
	case "ping":
		t.Send(fmt.Sprintf("🏓 pong, ws=%v", t.health != nil && t.health.WSConnected()))
	}
}
