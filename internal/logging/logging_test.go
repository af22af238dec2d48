package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"segrec/internal/config"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "segrec.log")

	logger, cleanup, err := New(config.LogConfig{Level: "info", File: path, MaxSizeMB: 1})
	require.NoError(t, err)

	logger.Debugw("hidden", "k", 1)
	logger.Infow("segment saved", "segment_id", "segment_1_2")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &record))
	assert.Equal(t, "segment saved", record["msg"])
	assert.Equal(t, "segment_1_2", record["segment_id"])
	assert.Equal(t, "info", record["level"])
	assert.Contains(t, record, "time")
}

func TestNewWithoutSinksIsNop(t *testing.T) {
	logger, cleanup, err := New(config.LogConfig{Level: "debug"})
	require.NoError(t, err)
	defer cleanup()

	assert.False(t, logger.Desugar().Core().Enabled(zapcore.ErrorLevel))
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, _, err := New(config.LogConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestConsoleCoreRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := zap.New(newConsoleCore(&buf, zapcore.WarnLevel)).Sugar()

	logger.Infow("quiet")
	logger.Warnw("mic busy", "device", "default")
	require.NoError(t, logger.Sync())

	out := buf.String()
	assert.NotContains(t, out, "quiet")
	assert.Contains(t, out, "mic busy")
	assert.Contains(t, out, `"device": "default"`)
}
