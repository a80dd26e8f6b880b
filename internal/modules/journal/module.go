package journal

import (
	"context"

	"signal_bot/internal/executor"
	"signal_bot/internal/modules/journal/service/pg"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("journal",
		fx.Provide(
			pg.NewJournal,

			// адаптер: *pg.Journal -> executor.Journal
			func(j *pg.Journal) executor.Journal {
				return j
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, j *pg.Journal) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					return j.EnsureSchema(ctx)
				},
			})
		}),
	)
}
