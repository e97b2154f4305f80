package utilities

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestIDGenerator_Unique(t *testing.T) {
	g, err := NewIDGenerator(1)
	require.NoError(t, err)

	seen := make(map[int64]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := g.Next()
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %d", id)
		seen[id] = struct{}{}
	}
}

func TestNewIDGenerator_BadNode(t *testing.T) {
	_, err := NewIDGenerator(5000)
	require.Error(t, err)
}

func TestRandomSuffix(t *testing.T) {
	s := RandomSuffix(12)
	assert.Len(t, s, 12)
	assert.Len(t, RandomSuffix(40), 16)
	assert.NotEqual(t, RandomSuffix(12), RandomSuffix(12))
}

func TestInitLogger(t *testing.T) {
	lg, err := InitLogger(LogConfig{Silent: true})
	require.NoError(t, err)
	lg.Info("dropped")

	lg, err = InitLogger(LogConfig{Level: "debug", Dev: true})
	require.NoError(t, err)
	assert.True(t, lg.Core().Enabled(-1))

	lg, err = InitLogger(LogConfig{Level: "warn", File: filepath.Join(t.TempDir(), "auth.log")})
	require.NoError(t, err)
	assert.False(t, lg.Core().Enabled(0))
	lg.Warn("written")
	_ = lg.Sync()
}

func TestInitLogger_Level(t *testing.T) {
	lg, err := InitLogger(LogConfig{Level: "WARNING"})
	require.NoError(t, err)
	assert.True(t, lg.Core().Enabled(zapcore.WarnLevel))
	assert.False(t, lg.Core().Enabled(zapcore.InfoLevel))

	lg, err = InitLogger(LogConfig{})
	require.NoError(t, err)
	assert.True(t, lg.Core().Enabled(zapcore.InfoLevel))

	_, err = InitLogger(LogConfig{Level: "verbose"})
	require.Error(t, err)
}
