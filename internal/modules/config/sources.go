package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const sourcesFilePathENV = "SOURCES_FILE"

// Sources — маршрутизация Telegram-чатов: откуда читаем сигналы,
// куда шлём журнал исполнения.
type Sources struct {
	SignalChatID int64 `yaml:"signal_chat_id"`
	LogChatID    int64 `yaml:"log_chat_id"`
}

func NewSources() (*Sources, error) {
	fileName := os.Getenv(sourcesFilePathENV)
	if fileName == "" {
		fileName = "configs/sources.yaml"
	}

	file, err := os.Open(fileName)
	if err != nil {
		return nil, errors.Wrap(err, "open sources file")
	}
	defer func() {
		_ = file.Close()
	}()

	sources := Sources{}
	if err := yaml.NewDecoder(file).Decode(&sources); err != nil {
		return nil, errors.Wrap(err, "decode sources file")
	}
	if sources.SignalChatID == 0 {
		return nil, errors.New("sources: signal_chat_id is required")
	}
	if sources.LogChatID == 0 {
		// без отдельного лог-чата журналим в сигнальный
		sources.LogChatID = sources.SignalChatID
	}
	return &sources, nil
}
