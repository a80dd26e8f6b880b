package market_stream

import (
	"context"

	health "signal_bot/internal/modules/health/service"
	"signal_bot/internal/modules/market_stream/service"
	"signal_bot/internal/pricecache"

	"go.uber.org/fx"
)

// Module поднимает стример цен и кэш, который он кормит.
func Module() fx.Option {
	return fx.Module("market_stream",
		fx.Provide(
			pricecache.New, // *pricecache.Cache
			service.NewClient,
			// адаптер: *health.State -> service.HealthState
			func(s *health.State) service.HealthState {
				return s
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, c *service.Client, ctx context.Context) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go c.Start(ctx)
					return nil
				},
			})
		}),
	)
}
