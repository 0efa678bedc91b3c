package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/secondbrain/internal/config"
)

func TestNewDefaultsToInfoOnStderr(t *testing.T) {
	logger, closer, err := New(config.LoggingConfig{}, t.TempDir(), false)
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.Equal(t, os.Stderr, logger.Out)
}

func TestNewVerboseForcesDebug(t *testing.T) {
	logger, closer, err := New(config.LoggingConfig{Level: "warn"}, t.TempDir(), true)
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, _, err := New(config.LoggingConfig{Level: "chatty"}, t.TempDir(), false)
	assert.Error(t, err)
}

func TestNewWritesRelativeFileUnderDataDir(t *testing.T) {
	dir := t.TempDir()
	logger, closer, err := New(config.LoggingConfig{Level: "info", File: "logs/sb.log"}, dir, false)
	require.NoError(t, err)

	logger.WithField("component", "test").Info("hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(filepath.Join(dir, "logs", "sb.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.Contains(t, string(data), "component=test")
}

func TestOrDiscard(t *testing.T) {
	assert.NotNil(t, OrDiscard(nil))

	l := logrus.New()
	assert.Same(t, l, OrDiscard(l))
}
