package main

import (
	"context"
	"log"

	"signal_bot/internal/executor"
	"signal_bot/internal/models"
	binance "signal_bot/internal/modules/binance_client"
	"signal_bot/internal/modules/config"
	"signal_bot/internal/modules/health"
	"signal_bot/internal/modules/journal"
	"signal_bot/internal/modules/market_stream"
	"signal_bot/internal/modules/postgres"
	telegram "signal_bot/internal/modules/telegram_bot"
	"signal_bot/pkg/logger"
	"signal_bot/pkg/tracing"

	"go.uber.org/fx"
)

func main() {
	logger.SetServiceName("signal_bot")
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	tracing.SetServiceName("signal_bot")

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
			// канал разобранных сигналов: Telegram пишет, диспетчер читает
			func() chan models.Signal {
				return make(chan models.Signal, 16)
			},
		),
		config.Module(),
		postgres.Module(),
		journal.Module(),
		binance.Module(),
		market_stream.Module(),
		health.Module(),
		executor.Module(),
		telegram.Module(),
		fx.Invoke(func(cfg *config.Config) error {
			_, _, err := tracing.InitTracer(tracing.Config{
				Host: cfg.Jaeger.Host,
				Port: cfg.Jaeger.Port,
			})
			return err
		}),
	)
	if err := app.Start(context.Background()); err != nil {
		logger.Fatal("%v", err)
	}
	<-app.Done()
}
