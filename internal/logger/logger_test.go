package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"alcance-reducido-backend/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFormatWritesStructuredEntries(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter("info", "json", &buf).Named("dispositivos")

	log.Info().Str("modelo", "SM-A546E").Msg("creado")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "dispositivos", entry["component"])
	assert.Equal(t, "SM-A546E", entry["modelo"])
	assert.Equal(t, "creado", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestLevelFiltersLowerEntries(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter("warn", "json", &buf)

	log.Debug().Msg("oculto")
	log.Info().Msg("oculto")
	assert.Zero(t, buf.Len())

	log.Warn().Msg("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter("verbose", "json", &buf)

	log.Debug().Msg("oculto")
	log.Info().Msg("visible")
	assert.NotContains(t, buf.String(), "oculto")
	assert.Contains(t, buf.String(), "visible")
}

func TestNewTestLoggerIsSilent(t *testing.T) {
	log := logger.NewTestLogger()
	assert.NotPanics(t, func() { log.Error().Msg("nada") })
}
