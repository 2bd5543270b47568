package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Scheduler.PollIntervalSeconds)
	assert.Equal(t, "dir", cfg.Reports.Backend)
	assert.Equal(t, []string{".pdf"}, cfg.Reports.Extensions)
	assert.Equal(t, "file", cfg.Thresholds.Backend)
	assert.Equal(t, 7, cfg.Thresholds.Green)
	assert.Equal(t, 14, cfg.Thresholds.Amber)
	assert.Equal(t, 30, cfg.Thresholds.Red)
	assert.Equal(t, 587, cfg.Mail.Port)
}

func TestLoadConfigFileThenEnvThenFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
mail:
  host: smtp.example.com
  port: 2525
  from: reports@example.com
scheduler:
  poll_interval_seconds: 10
reports:
  dir: /srv/reports
log:
  level: debug
`), 0o600))

	t.Setenv("SMTP_PORT", "465")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	require.NoError(t, flags.Parse([]string{"--poll-interval-seconds=5"}))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com", cfg.Mail.Host)
	assert.Equal(t, 465, cfg.Mail.Port)
	assert.Equal(t, "reports@example.com", cfg.Mail.From)
	assert.Equal(t, 5, cfg.Scheduler.PollIntervalSeconds)
	assert.Equal(t, "/srv/reports", cfg.Reports.Dir)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigUnsetFlagsDoNotOverride(t *testing.T) {
	t.Setenv("HTTP_ADDR", "0.0.0.0:9000")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	require.NoError(t, flags.Parse(nil))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.HTTP.Addr)
	assert.Equal(t, 30, cfg.Scheduler.PollIntervalSeconds)
}

func TestLoadConfigThresholdsFromEnv(t *testing.T) {
	t.Setenv("THRESHOLDS_GREEN", "2")
	t.Setenv("THRESHOLDS_AMBER", "5")
	t.Setenv("THRESHOLDS_RED", "10")

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Thresholds.Green)
	assert.Equal(t, 5, cfg.Thresholds.Amber)
	assert.Equal(t, 10, cfg.Thresholds.Red)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"zero poll interval", map[string]string{"SCHEDULER_POLL_INTERVAL_SECONDS": "0"}},
		{"bad smtp port", map[string]string{"SMTP_PORT": "70000"}},
		{"unknown reports backend", map[string]string{"REPORTS_BACKEND": "s3"}},
		{"mongo reports without uri", map[string]string{"REPORTS_BACKEND": "mongo"}},
		{"mongo thresholds without uri", map[string]string{"THRESHOLDS_BACKEND": "mongo"}},
		{"descending thresholds", map[string]string{"THRESHOLDS_GREEN": "30", "THRESHOLDS_AMBER": "14", "THRESHOLDS_RED": "7"}},
		{"negative threshold", map[string]string{"THRESHOLDS_GREEN": "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig("", nil)
			assert.Error(t, err)
		})
	}
}
