package enlist

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSyncTimeout - время ожидания завершения транзакции по умолчанию.
const DefaultSyncTimeout = 5 * time.Second

// Ключи свойств для ConfigFromProperties.
const (
	PropertyUseConnectionOnPrepare = "transaction.use_connection_on_prepare"
	PropertySyncTimeout            = "transaction.sync_timeout"
)

var ErrInvalidConfig = errors.New("#ENLIST_INVALID_CONFIG")

// Config - настройки присоединения к транзакциям.
type Config struct {
	// UseConnectionOnPrepare выбирает режим Durable: соединение доступно на фазе подготовки и отложенные изменения
	// записываются автоматически. Иначе используется режим Volatile.
	UseConnectionOnPrepare bool `yaml:"use_connection_on_prepare"`
	// SyncTimeout ограничивает Wait.
	SyncTimeout time.Duration `yaml:"sync_timeout"`
}

func DefaultConfig() Config {
	return Config{UseConnectionOnPrepare: true, SyncTimeout: DefaultSyncTimeout}
}

// Mode возвращает режим присоединения, соответствующий настройкам.
func (c Config) Mode() DurabilityMode {
	if c.UseConnectionOnPrepare {
		return Durable
	}
	return Volatile
}

func (c Config) Validate() error {
	if c.SyncTimeout <= 0 {
		return fmt.Errorf("%w: sync_timeout must be positive, got %s", ErrInvalidConfig, c.SyncTimeout)
	}
	return nil
}

// LoadConfig читает настройки в формате YAML. Отсутствующие поля получают значения по умолчанию.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, cfg.Validate()
}

// ConfigFromProperties читает настройки из набора свойств ключ-значение. Незнакомые ключи игнорируются.
func ConfigFromProperties(props map[string]string) (Config, error) {
	cfg := DefaultConfig()
	if v, ok := props[PropertyUseConnectionOnPrepare]; ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, PropertyUseConnectionOnPrepare, err)
		}
		cfg.UseConnectionOnPrepare = b
	}
	if v, ok := props[PropertySyncTimeout]; ok {
		d, err := parseTimeout(strings.TrimSpace(v))
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, PropertySyncTimeout, err)
		}
		cfg.SyncTimeout = d
	}
	return cfg, cfg.Validate()
}

// parseTimeout принимает длительность Go или целое число миллисекунд.
func parseTimeout(v string) (time.Duration, error) {
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(v)
}
