package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		debug bool
		want  zapcore.Level
	}{
		{name: "info by default", debug: false, want: zapcore.InfoLevel},
		{name: "debug when requested", debug: true, want: zapcore.DebugLevel},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			l, err := New(false, tt.debug)
			require.NoError(t, err)
			assert.True(t, l.Core().Enabled(tt.want))
			assert.False(t, l.Core().Enabled(tt.want-1))
		})
	}
}

func TestJSONOutputUsesStepKey(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "log.json")
	l, err := newWithOutput(true, false, []string{path})
	require.NoError(t, err)

	l.Info("generating matches", zap.String("prompt_key", "week-1"))
	require.NoError(t, l.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &line))
	assert.Equal(t, "generating matches", line["step"])
	assert.Equal(t, "week-1", line["prompt_key"])
	assert.Equal(t, "info", line["level"])
}
