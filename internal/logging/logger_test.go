package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/config"
)

func TestNewDefaults(t *testing.T) {
	logger := New(config.DefaultConfig().Logging)

	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
	assert.Equal(t, os.Stderr, logger.Out)
}

func TestNewLevelAndFormat(t *testing.T) {
	tests := []struct {
		name   string
		cfg    config.LoggingConfig
		level  logrus.Level
		isJSON bool
	}{
		{"debug json", config.LoggingConfig{Level: "debug", Format: "json"}, logrus.DebugLevel, true},
		{"info text", config.LoggingConfig{Level: "info", Format: "text"}, logrus.InfoLevel, false},
		{"bad level", config.LoggingConfig{Level: "loud", Format: "TEXT"}, logrus.WarnLevel, false},
		{"upper json", config.LoggingConfig{Level: "error", Format: "JSON"}, logrus.ErrorLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.cfg)
			assert.Equal(t, tt.level, logger.GetLevel())
			_, isJSON := logger.Formatter.(*logrus.JSONFormatter)
			assert.Equal(t, tt.isJSON, isJSON)
		})
	}
}

func TestNewStdout(t *testing.T) {
	logger := New(config.LoggingConfig{Output: "stdout"})
	assert.Equal(t, os.Stdout, logger.Out)
}

func TestNewFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preupg.log")
	logger := New(config.LoggingConfig{Level: "info", Output: path})

	logger.Info("imported result")

	f, ok := logger.Out.(*os.File)
	require.True(t, ok)
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "imported result")
}

func TestNewFileRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preupg.log")
	logger := New(config.LoggingConfig{Output: path, FileRotation: true, MaxSize: 5, MaxBackups: 2, MaxAge: 7})

	lj, ok := logger.Out.(*lumberjack.Logger)
	require.True(t, ok)
	assert.Equal(t, path, lj.Filename)
	assert.Equal(t, 5, lj.MaxSize)
	assert.Equal(t, 2, lj.MaxBackups)
	assert.Equal(t, 7, lj.MaxAge)
}

func TestNewUnwritableFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "dir", "preupg.log")
	logger := New(config.LoggingConfig{Output: path})
	assert.Equal(t, os.Stderr, logger.Out)
}

func TestApply(t *testing.T) {
	logger := New(config.LoggingConfig{Level: "warn"})
	Apply(logger, true, false)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())

	Apply(logger, true, true)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	quiet := New(config.LoggingConfig{Level: "trace"})
	Apply(quiet, true, false)
	assert.Equal(t, logrus.TraceLevel, quiet.GetLevel())
}
