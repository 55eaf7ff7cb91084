package docxtemplar

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Config — настройки запуска, читаемые из YAML-файла.
//
//	extensions: [".txt", ".json"]
//	highlight: [error, failed, stopped, f]
//	highlight_color: yellow
//	warn_unresolved: true
//	log_level: debug
type Config struct {
	Extensions     []string `mapstructure:"extensions"`
	Highlight      []string `mapstructure:"highlight"`
	HighlightColor string   `mapstructure:"highlight_color"`
	WarnUnresolved bool     `mapstructure:"warn_unresolved"`
	LogLevel       string   `mapstructure:"log_level"`
}

// DefaultConfig повторяет поведение без файла настроек.
func DefaultConfig() Config {
	return Config{
		Extensions:     append([]string(nil), DefaultExtensions...),
		Highlight:      append([]string(nil), DefaultSentinels...),
		HighlightColor: DefaultHighlightColor,
		LogLevel:       "info",
	}
}

// LoadConfig читает YAML поверх DefaultConfig. Неизвестные ключи — ошибка.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("чтение настроек %s: %w", path, err)
	}
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return cfg, fmt.Errorf("разбор настроек %s: %w", path, err)
	}
	if len(raw) == 0 {
		return cfg, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		ZeroFields:       true,
	})
	if err != nil {
		return cfg, err
	}
	if err := dec.Decode(raw); err != nil {
		return cfg, fmt.Errorf("настройки %s: %w", path, err)
	}
	if _, err := log.ParseLevel(cfg.LogLevel); err != nil {
		return cfg, fmt.Errorf("настройки %s: log_level: %w", path, err)
	}
	return cfg, nil
}

// Options переводит настройки в опции заполнения.
func (c Config) Options(logger *log.Logger) Options {
	return Options{
		Extensions:     normalizeExtensions(c.Extensions),
		Sentinels:      c.Highlight,
		HighlightColor: c.HighlightColor,
		WarnUnresolved: c.WarnUnresolved,
		Logger:         logger,
	}
}

// NewLogger создаёт текстовый логгер с уровнем из настроек.
func NewLogger(w io.Writer, level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return nil, err
	}
	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
	}), nil
}
