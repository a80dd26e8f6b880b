package service

import (
	"context"
	"time"
)

// HealthLoop раз в полминуты шлёт сводку в лог-чат: живы, стрим
// подключён, очередь такая-то.
func (t *Telegram) HealthLoop(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ws := t.health != nil && t.health.WSConnected()

			queue, inflight := 0, 0
			if t.status != nil {
				queue = t.status.QueueDepth()
				inflight = len(t.status.HeldSymbols())
			}
			t.Sendf("🩺 HEALTH | ws=%v | queue=%d | inflight=%d", ws, queue, inflight)
		}
	}
}
