package telegram

import (
	"context"

	"signal_bot/internal/executor"
	health "signal_bot/internal/modules/health/service"
	"signal_bot/internal/modules/telegram_bot/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("telegram",
		fx.Provide(
			service.NewTelegram,

			// адаптер: *service.Telegram -> executor.Notifier
			func(t *service.Telegram) executor.Notifier {
				return t
			},
		),

		// /status и health-сводка вяжутся после сборки графа,
		// прямая зависимость от диспетчера дала бы цикл
		fx.Invoke(func(t *service.Telegram, d *executor.Dispatcher, s *health.State) {
			t.SetStatusSource(d)
			t.SetHealthView(s)
		}),

		fx.Invoke(func(lc fx.Lifecycle, t *service.Telegram, ctx context.Context) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					if err := t.Start(ctx); err != nil {
						return err
					}
					go t.HealthLoop(ctx)
					return nil
				},
				OnStop: func(_ context.Context) error {
					t.Stop()
					return nil
				},
			})
		}),
	)
}
