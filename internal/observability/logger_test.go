// internal/observability/logger_test.go
package observability

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/uipilot/internal/config"
)

// -- Test Helper Functions --

// initToBuffer resets the singleton and initializes it against an in-memory sink.
func initToBuffer(t *testing.T, cfg config.LoggerConfig) *bytes.Buffer {
	t.Helper()
	ResetForTest()
	t.Cleanup(ResetForTest)

	var buf bytes.Buffer
	Initialize(cfg, zapcore.AddSync(&buf))
	return &buf
}

// -- Test Cases --

func TestInitialize_ConsoleWithColors(t *testing.T) {
	buf := initToBuffer(t, config.LoggerConfig{
		Level:       "debug",
		Format:      "console",
		ServiceName: "uipilot",
		Colors:      config.ColorConfig{Info: "green"},
	})

	GetLogger().Named("agent").Info("state transition", zap.String("to", "Evaluate"))
	Sync()

	out := buf.String()
	assert.Contains(t, out, ansiColors["green"]+"INFO"+colorReset)
	assert.Contains(t, out, "uipilot.agent.")
	assert.Contains(t, out, "state transition")
	assert.Contains(t, out, `"to": "Evaluate"`)
}

func TestInitialize_JSONFormat(t *testing.T) {
	buf := initToBuffer(t, config.LoggerConfig{Level: "info", Format: "json", ServiceName: "svc"})

	GetLogger().Warn("gate blocked", zap.String("reason", "low_confidence"))
	GetLogger().Debug("filtered out")
	Sync()

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1, "debug is below the configured level")

	var entry map[string]any
	require.NoError(t, jsoniter.Unmarshal(lines[0], &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "svc", entry["logger"])
	assert.Equal(t, "low_confidence", entry["reason"])
}

func TestInitialize_InvalidLevelDefaultsToInfo(t *testing.T) {
	buf := initToBuffer(t, config.LoggerConfig{Level: "loud", Format: "json"})

	GetLogger().Debug("hidden")
	GetLogger().Info("shown")
	Sync()

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestInitialize_OnlyFirstCallWins(t *testing.T) {
	buf := initToBuffer(t, config.LoggerConfig{Level: "info", Format: "json", ServiceName: "first"})

	var other bytes.Buffer
	Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "second"}, zapcore.AddSync(&other))
	GetLogger().Info("hello")
	Sync()

	assert.Contains(t, buf.String(), `"logger":"first"`)
	assert.Empty(t, other.String())
}

func TestInitialize_WritesRotatedFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "uipilot.log")
	initToBuffer(t, config.LoggerConfig{Level: "info", Format: "console", LogFile: logFile, MaxSize: 1})

	GetLogger().Info("to file", zap.Int("step", 3))
	Sync()

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"to file"`)
	assert.Contains(t, string(data), `"step":3`)
}

func TestGetLogger_Fallback(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	logger := GetLogger()
	require.NotNil(t, logger)
	assert.Equal(t, "fallback", logger.Name())
	assert.NotPanics(t, Sync, "Sync without a logger is a no-op")
}
