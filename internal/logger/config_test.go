package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLogConfigValid(t *testing.T) {
	require.NoError(t, DefaultLogConfig().ValidateConfig())
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *LogConfig)
		wantErr bool
	}{
		{"lower case level", func(c *LogConfig) { c.Level = "debug" }, false},
		{"warning alias", func(c *LogConfig) { c.Level = "Warning" }, false},
		{"unknown level", func(c *LogConfig) { c.Level = "LOUD" }, true},
		{"unknown format", func(c *LogConfig) { c.Format = "xml" }, true},
		{"empty output", func(c *LogConfig) { c.Output = "" }, true},
		{"bare file prefix", func(c *LogConfig) { c.Output = "file:" }, true},
		{"file output", func(c *LogConfig) { c.Output = "file:/tmp/qrcdl.log" }, false},
		{"negative backups", func(c *LogConfig) { c.Rotation = &RotationConfig{MaxBackups: -1} }, true},
		{"bad size unit", func(c *LogConfig) { c.Rotation = &RotationConfig{MaxSize: "10XB"} }, true},
		{"valid rotation", func(c *LogConfig) {
			c.Rotation = &RotationConfig{MaxSize: "10MB", MaxAge: "7d", MaxBackups: 3, Compress: true}
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultLogConfig()
			tt.mutate(c)
			err := c.ValidateConfig()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"QRCDL_LOG_LEVEL":      "debug",
		"QRCDL_LOG_FORMAT":     "json",
		"QRCDL_LOG_OUTPUT":     "stdout",
		"QRCDL_LOG_CALLER":     "1",
		"QRCDL_LOG_TIMESTAMP":  "true",
		"QRCDL_LOG_COMPONENTS": "qrc, qqmusic,",
	}
	c := DefaultLogConfig()
	c.ApplyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "debug", c.Level)
	assert.Equal(t, "json", c.Format)
	assert.Equal(t, "stdout", c.Output)
	assert.True(t, c.ShowCaller)
	assert.True(t, c.Timestamp)
	assert.Equal(t, map[string]bool{"qrc": true, "qqmusic": true}, c.Components)

	c.ApplyEnv(func(k string) string {
		if k == "QRCDL_LOG_COMPONENTS" {
			return "all"
		}
		return ""
	})
	assert.Len(t, c.Components, len(Components))
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json")
	c := DefaultLogConfig()
	c.Level = "TRACE"
	c.Rotation = &RotationConfig{MaxSize: "1MB", MaxBackups: 2}
	require.NoError(t, c.SaveConfigToFile(path))

	loaded, err := LoadConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, c, loaded)

	_, err = LoadConfigFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCreateLoggerFromConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "qrcdl.log")
	c := DefaultLogConfig()
	c.Output = "file:" + path

	l, err := CreateLoggerFromConfig(c)
	require.NoError(t, err)
	l.WithComponent(ComponentApp).Info("to file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[INFO] [app] to file\n", string(data))

	c.Level = "nope"
	_, err = CreateLoggerFromConfig(c)
	assert.Error(t, err)
}

func TestParseSizeAndDuration(t *testing.T) {
	sizes := map[string]int64{"": 0, "512": 512, "2KB": 2048, "10MB": 10 << 20, "1 GB": 1 << 30, "5b": 5}
	for in, want := range sizes {
		got, err := parseSize(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := parseSize("MB")
	assert.Error(t, err)

	durations := map[string]time.Duration{"": 0, "30s": 30 * time.Second, "5m": 5 * time.Minute, "2h": 2 * time.Hour, "7d": 7 * 24 * time.Hour}
	for in, want := range durations {
		got, err := parseDuration(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err = parseDuration("3w")
	assert.Error(t, err)
}

func TestRotatingFileBySize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	rf, err := OpenRotatingFile(path, RotationPolicy{MaxSize: 10, MaxBackups: 2})
	require.NoError(t, err)
	defer rf.Close()

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tick := 0
	rf.nowFunc = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	for i := 0; i < 5; i++ {
		_, err := rf.Write([]byte("12345678\n"))
		require.NoError(t, err)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var backups int
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "app.log.") {
			backups++
		}
	}
	assert.Equal(t, 2, backups)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "12345678\n", string(data))
}

func TestRotatingFileCompress(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	rf, err := OpenRotatingFile(path, RotationPolicy{MaxAge: time.Hour, Compress: true})
	require.NoError(t, err)

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rf.nowFunc = func() time.Time { return now }
	rf.opened = now

	_, err = rf.Write([]byte("first\n"))
	require.NoError(t, err)
	now = now.Add(2 * time.Hour)
	_, err = rf.Write([]byte("second\n"))
	require.NoError(t, err)
	require.NoError(t, rf.Close())

	matches, err := filepath.Glob(filepath.Join(dir, "app.log.*.gz"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	_, err = rf.Write([]byte("closed"))
	assert.ErrorIs(t, err, os.ErrClosed)
}
