package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"":      zapcore.InfoLevel,
		"INFO":  zapcore.InfoLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestInitReplacesGlobal(t *testing.T) {
	l, restore, err := Init("debug")
	require.NoError(t, err)
	defer restore()
	assert.Same(t, l, zap.L())
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	_, _, err = Init("loud")
	assert.Error(t, err)
}
