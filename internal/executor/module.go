package executor

import (
	"context"

	"signal_bot/internal/models"
	binance "signal_bot/internal/modules/binance_client/service"
	"signal_bot/internal/modules/config"
	"signal_bot/internal/pricecache"

	"go.uber.org/fx"
)

// Module собирает диспетчер, запускает пул воркеров и перекачивает
// сигналы из входного канала в очередь.
func Module() fx.Option {
	return fx.Module("executor",
		fx.Provide(
			func(cfg *config.Config, gw Gateway, prices PriceSource, n Notifier, j Journal) *Dispatcher {
				return New(Params{
					Investment:   cfg.Executor.Investment,
					Workers:      cfg.Executor.Workers,
					QueueSize:    cfg.Executor.QueueSize,
					PollInterval: cfg.Executor.PollInterval,
					WaitCeiling:  cfg.Executor.WaitCeiling,
					DeferDelay:   cfg.Executor.DeferDelay,
				}, gw, prices, n, j)
			},

			// адаптеры к конкретным реализациям
			func(c *binance.Client) Gateway {
				return c
			},
			func(c *pricecache.Cache) PriceSource {
				return c
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, d *Dispatcher, signals chan models.Signal, ctx context.Context) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go d.Run(ctx)
					go func() {
						for {
							select {
							case <-ctx.Done():
								return
							case sig := <-signals:
								if err := d.Enqueue(ctx, sig); err != nil {
									d.n.Sendf("🚫 [%s] Сигнал отклонён: %v", sig.Symbol, err)
								}
							}
						}
					}()
					return nil
				},
			})
		}),
	)
}
