package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultTimezone, cfg.App.DefaultTimezone)
	assert.Equal(t, ":3000", cfg.HTTP.Addr)
	assert.Equal(t, DefaultDBName, cfg.Database.Path)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenDuration.Duration)
	assert.Equal(t, 10.0, cfg.Drag.ActivationDistance)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inveniam.toml")
	content := `
[app]
default_timezone = "Europe/Berlin"

[database]
path = "boards.db"

[report]
enabled = true
interval = "1h30m"
concurrency = 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("HTTP_ADDR", ":8081")
	t.Setenv("REPORT_TRIGGER_TOKEN", "s3cret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Europe/Berlin", cfg.App.DefaultTimezone)
	assert.Equal(t, "boards.db", cfg.Database.Path)
	assert.True(t, cfg.Report.Enabled)
	assert.Equal(t, 90*time.Minute, cfg.Report.Interval.Duration)
	assert.Equal(t, 2, cfg.Report.Concurrency)
	assert.Equal(t, ":8081", cfg.HTTP.Addr)
	assert.Equal(t, "s3cret", cfg.Report.TriggerToken)
	assert.Equal(t, "Europe/Berlin", cfg.Location().String())
}

func TestLoad_InvalidTimezone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inveniam.toml")
	require.NoError(t, os.WriteFile(path, []byte("[app]\ndefault_timezone = \"Mars/Olympus\"\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inveniam.toml")
	require.NoError(t, os.WriteFile(path, []byte("[report]\ninterval = \"soon\"\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
