package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	logger, err := New(Config{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("item committed", zap.String("quote_id", "q-1"), zap.Int64("line_total_pence", 19080))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "item committed", entry["msg"])
	assert.Equal(t, "q-1", entry["quote_id"])
	assert.Equal(t, float64(19080), entry["line_total_pence"])
	assert.Contains(t, entry, "timestamp")
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	logger, err := New(Config{Level: "chatty", Output: path})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
}

func TestNew_BadOutputPath(t *testing.T) {
	_, err := New(Config{Output: filepath.Join(t.TempDir(), "missing", "dir", "app.log")})
	assert.ErrorContains(t, err, "open log output")
}

func TestMust_FallsBackToDefaults(t *testing.T) {
	logger := Must(Config{Output: filepath.Join(t.TempDir(), "missing", "app.log")})
	require.NotNil(t, logger)
}
