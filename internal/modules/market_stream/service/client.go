package service

import (
	"time"

	"signal_bot/internal/modules/config"
	"signal_bot/internal/pricecache"

	"github.com/gorilla/websocket"
)

// HealthState — что стрим сообщает health-эндпоинту.
type HealthState interface {
	SetWSConnected(v bool)
	TouchTick(t time.Time)
}

// Client — единственный писатель в кэш цен: один WebSocket на весь
// рынок (mark price по всем символам), бесконечный reconnect.
type Client struct {
	cfg      *config.Config
	wsDialer *websocket.Dialer
	cache    *pricecache.Cache
	state    HealthState
}

func NewClient(cfg *config.Config, cache *pricecache.Cache, state HealthState) *Client {
	return &Client{
		cfg:      cfg,
		wsDialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		cache:    cache,
		state:    state,
	}
}
