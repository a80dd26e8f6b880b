package binance_client

import (
	"signal_bot/internal/modules/binance_client/service"

	"go.uber.org/fx"
)

// Module поднимает REST-клиент биржи.
func Module() fx.Option {
	return fx.Module("binance_client",
		fx.Provide(
			service.NewClient, // *service.Client
		),
	)
}
