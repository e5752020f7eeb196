package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("text output respects level", func(t *testing.T) {
		var buf bytes.Buffer
		log := New(WithOutput(&buf), WithLevel(slog.LevelWarn))

		log.Info("info message")
		log.Warn("clock moved backwards", "behind_ms", 5)

		out := buf.String()
		assert.NotContains(t, out, "info message")
		assert.Contains(t, out, "clock moved backwards")
		assert.Contains(t, out, "behind_ms=5")
	})

	t.Run("json output", func(t *testing.T) {
		var buf bytes.Buffer
		log := New(WithOutput(&buf), WithFormat(FormatJSON), WithLevel(slog.LevelDebug))

		log.Debug("sequence exhausted", "last_timestamp", int64(1700000000000))

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "sequence exhausted", entry["msg"])
		assert.Equal(t, "DEBUG", entry["level"])
		assert.EqualValues(t, 1700000000000, entry["last_timestamp"])
	})

	t.Run("nop discards", func(t *testing.T) {
		log := Nop()
		assert.False(t, log.Enabled(t.Context(), slog.LevelError))
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}
