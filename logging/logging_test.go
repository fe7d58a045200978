package logging_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imgcompare/logging"
)

func TestSetupConsoleOnly(t *testing.T) {
	var console bytes.Buffer
	logger, cleanup, err := logging.Setup(logging.Options{Level: "warn", Console: &console})
	require.NoError(t, err)
	defer cleanup()

	logger.Info("hidden")
	logger.Warn("shown", "path", "a.png")

	out := console.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "path=a.png")
}

func TestSetupFansOutToDebugFile(t *testing.T) {
	var console bytes.Buffer
	logFile := filepath.Join(t.TempDir(), "run.log")

	logger, cleanup, err := logging.Setup(logging.Options{Level: "info", File: logFile, Console: &console})
	require.NoError(t, err)

	logger.Debug("file only", "pair", 3)
	logging.ImageSkipped(logger, "broken.jpg", errors.New("unexpected EOF"))
	require.NoError(t, cleanup())

	assert.NotContains(t, console.String(), "file only")
	assert.Contains(t, console.String(), "skipping image")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)

	var messages []string
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		var record map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &record))
		messages = append(messages, record["msg"].(string))
	}
	assert.Contains(t, messages, "file only")
	assert.Contains(t, messages, "skipping image")
}

func TestSetupRejectsUnknownFormat(t *testing.T) {
	_, _, err := logging.Setup(logging.Options{Format: "xml"})
	require.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logging.ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, logging.ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, logging.ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, logging.ParseLevel("bogus"))
}
