package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/brizzai/social-connect/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LoggingConfig
		wantErr bool
	}{
		{name: "console", cfg: config.LoggingConfig{Level: "info", Format: "console"}},
		{name: "json", cfg: config.LoggingConfig{Level: "debug", Format: "json"}},
		{name: "bad level", cfg: config.LoggingConfig{Level: "loud"}, wantErr: true},
		{name: "bad format", cfg: config.LoggingConfig{Level: "info", Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewLogger(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestNewLogger_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	l, err := NewLogger(&config.LoggingConfig{
		Level:          "info",
		Format:         "json",
		OutputPath:     path,
		DisableConsole: true,
	})
	require.NoError(t, err)

	l.Info("hello")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}

func TestSetLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	restore := SetLogger(zap.New(core))
	defer restore()

	Info("recorded", zap.String("k", "v"))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "recorded", logs.All()[0].Message)
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "***", Redact("short"))
	assert.Equal(t, "EAAB12...", Redact("EAAB12345678"))
}

func TestSinks(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name       string
		cfg        config.LoggingConfig
		wantOut    []string
		wantErrOut []string
	}{
		{
			name:       "console",
			wantOut:    []string{"stdout"},
			wantErrOut: []string{"stderr"},
		},
		{
			name:       "console and file",
			cfg:        config.LoggingConfig{OutputPath: filepath.Join(dir, "a.log")},
			wantOut:    []string{"stdout", filepath.Join(dir, "a.log")},
			wantErrOut: []string{"stderr", filepath.Join(dir, "a.log")},
		},
		{
			name:       "file only",
			cfg:        config.LoggingConfig{OutputPath: filepath.Join(dir, "b.log"), DisableConsole: true},
			wantOut:    []string{filepath.Join(dir, "b.log")},
			wantErrOut: []string{filepath.Join(dir, "b.log")},
		},
		{
			name:       "nothing configured falls back to console",
			cfg:        config.LoggingConfig{DisableConsole: true},
			wantOut:    []string{"stdout"},
			wantErrOut: []string{"stderr"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, errOut, err := sinks(&tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOut, out)
			assert.Equal(t, tt.wantErrOut, errOut)
		})
	}
}

func TestSecret(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	restore := SetLogger(zap.New(core))
	defer restore()

	Info("token obtained", Secret("token", "EAAB12345678"))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "EAAB12...", logs.All()[0].ContextMap()["token"])
}
