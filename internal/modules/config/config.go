package config

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	databaseDSN       = "DATABASE_DSN"
	binanceKeyENV     = "BINANCE_API_KEY"
	binanceSecretENV  = "BINANCE_API_SECRET"
)

// Config ...
type Config struct {
	Telegram struct {
		Token string `mapstructure:"token"`
	} `mapstructure:"telegram"`

	DB string `mapstructure:"db_dsn"`

	Binance struct {
		APIKey    string `mapstructure:"api_key"`
		APISecret string `mapstructure:"api_secret"`
		BaseURL   string `mapstructure:"base_url"`
		StreamURL string `mapstructure:"stream_url"`
	} `mapstructure:"binance"`

	// Исполнение сигналов
	Executor struct {
		// Фиксированная ставка на сигнал в USDT, до плеча.
		Investment float64 `mapstructure:"investment"`
		Workers    int     `mapstructure:"workers"`
		QueueSize  int     `mapstructure:"queue_size"`

		// Ожидание входа в диапазон
		PollInterval time.Duration `mapstructure:"poll_interval"`
		WaitCeiling  time.Duration `mapstructure:"wait_ceiling"`

		// Пауза перед повторной постановкой сигнала по занятому символу
		DeferDelay time.Duration `mapstructure:"defer_delay"`
	} `mapstructure:"executor"`

	Jaeger struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
	} `mapstructure:"jaeger"`

	HealthAddr string `mapstructure:"health_addr"`
}

func NewConfig() (*Config, error) {
	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local"
	}
	configFileName = strings.TrimSuffix(configFileName, ".yaml")

	v := viper.New()
	v.SetConfigName(configFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath("configs")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("binance.base_url", "https://fapi.binance.com")
	v.SetDefault("binance.stream_url", "wss://fstream.binance.com/ws")
	v.SetDefault("executor.investment", 30.0)
	v.SetDefault("executor.workers", 4)
	v.SetDefault("executor.queue_size", 64)
	v.SetDefault("executor.poll_interval", "15s")
	v.SetDefault("executor.wait_ceiling", "30m")
	v.SetDefault("executor.defer_delay", "5s")
	v.SetDefault("jaeger.host", "127.0.0.1")
	v.SetDefault("jaeger.port", 6831)
	v.SetDefault("health_addr", ":8080")

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "read config file")
	}

	config := Config{}
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "decode config file")
	}

	// Секреты всегда можно переопределить окружением.
	if token := os.Getenv(tokenTelegramENV); token != "" {
		config.Telegram.Token = token
	}
	if dsn := os.Getenv(databaseDSN); dsn != "" {
		config.DB = dsn
	}
	if key := os.Getenv(binanceKeyENV); key != "" {
		config.Binance.APIKey = key
	}
	if secret := os.Getenv(binanceSecretENV); secret != "" {
		config.Binance.APISecret = secret
	}

	return &config, nil
}
