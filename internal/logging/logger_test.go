package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewDebugLogger(t *testing.T) {
	logger, err := New(true)
	require.NoError(t, err)
	defer logger.Sync() //nolint:errcheck // best-effort flush

	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNewQuietLogger(t *testing.T) {
	logger, err := New(false)
	require.NoError(t, err)
	defer logger.Sync() //nolint:errcheck // best-effort flush

	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}
