package service

import (
	"context"
	"strconv"
	"time"

	"signal_bot/pkg/logger"

	"github.com/bytedance/sonic"
)

// поток mark price по всем инструментам раз в секунду
const markPriceStream = "/!markPrice@arr@1s"

// Start гоняет read-loop до отмены контекста. Разрыв соединения не
// фатален: кэш продолжает отдавать последние цены, мы переподключаемся
// с короткой паузой, сколько потребуется.
func (c *Client) Start(ctx context.Context) {
	url := c.cfg.Binance.StreamURL + markPriceStream

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		logger.Info("[WS] connect %s", url)
		conn, _, err := c.wsDialer.DialContext(ctx, url, nil)
		if err != nil {
			logger.Error("[WS] dial error: %v", err)
			time.Sleep(time.Second)
			continue
		}
		c.state.SetWSConnected(true)

		c.readLoop(ctx, conn)

		c.state.SetWSConnected(false)
		_ = conn.Close()

		select {
		case <-ctx.Done():
			return
		default:
			time.Sleep(time.Second)
		}
	}
}

type markPriceEvent struct {
	Event  string `json:"e"`
	Symbol string `json:"s"`
	Price  string `json:"p"`
}

func (c *Client) readLoop(ctx context.Context, conn interface {
	ReadMessage() (int, []byte, error)
	Close() error
}) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			logger.Error("[WS] read error: %v", err)
			return
		}

		var events []markPriceEvent
		if err := sonic.Unmarshal(msg, &events); err != nil {
			continue
		}

		now := time.Now()
		for _, ev := range events {
			if ev.Event != "markPriceUpdate" || ev.Symbol == "" {
				continue
			}
			p, err := strconv.ParseFloat(ev.Price, 64)
			if err != nil || p <= 0 {
				continue
			}
			c.cache.Update(ev.Symbol, p)
		}
		c.state.TouchTick(now)
	}
}
