package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Run("Пишет JSON в файл", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "qtx.log")
		logger, err := New(Config{Level: "warn", Output: path, Service: "qtx-demo"})
		require.NoError(t, err)

		logger.Info("skipped")
		logger.Warn("written")
		require.NoError(t, logger.Sync())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var entry map[string]any
		require.NoError(t, json.Unmarshal(data, &entry))
		assert.Equal(t, "written", entry["msg"])
		assert.Equal(t, "WARN", entry["level"])
		assert.Equal(t, "qtx-demo", entry["service"])
	})

	t.Run("Использует уровень info по умолчанию", func(t *testing.T) {
		logger, err := New(Config{Level: "verbose", Format: "console"})
		require.NoError(t, err)

		assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
		assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	})

	t.Run("Возвращает ошибку открытия файла", func(t *testing.T) {
		_, err := New(Config{Output: filepath.Join(t.TempDir(), "missing", "qtx.log")})

		assert.Error(t, err)
	})
}
