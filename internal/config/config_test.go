package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwulff/meterimport/internal/ingest"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "meterimport.db", cfg.Database.Path)
	assert.False(t, cfg.Log.JSON)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, ingest.DefaultMmolThreshold, cfg.Ingest.MmolThreshold)
	assert.False(t, cfg.Ingest.DayFirst)
	assert.Empty(t, cfg.Ingest.Timezone)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, "meterimport.yaml", `
database:
  path: /tmp/readings.db
log:
  json: true
  level: debug
ingest:
  mmol_threshold: 30
  day_first: true
  timezone: Europe/Berlin
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/readings.db", cfg.Database.Path)
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 30.0, cfg.Ingest.MmolThreshold)
	assert.True(t, cfg.Ingest.DayFirst)
	assert.Equal(t, "Europe/Berlin", cfg.Ingest.Timezone)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "meterimport.toml", `
[ingest]
day_first = false
`)
	t.Setenv("METERIMPORT_INGEST_DAY_FIRST", "true")
	t.Setenv("METERIMPORT_DATABASE_PATH", "env.db")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Ingest.DayFirst)
	assert.Equal(t, "env.db", cfg.Database.Path)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad timezone", map[string]string{"METERIMPORT_INGEST_TIMEZONE": "Mars/Olympus"}},
		{"bad level", map[string]string{"METERIMPORT_LOG_LEVEL": "chatty"}},
		{"zero threshold", map[string]string{"METERIMPORT_INGEST_MMOL_THRESHOLD": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLocation(t *testing.T) {
	cfg := &Config{}
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	cfg.Ingest.Timezone = "UTC"
	loc, err = cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	cfg.Ingest.Timezone = "Nowhere/Special"
	_, err = cfg.Location()
	require.Error(t, err)
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestEngineOptions(t *testing.T) {
	cfg := &Config{Ingest: IngestConfig{MmolThreshold: 10, DayFirst: true, Timezone: "UTC"}}

	opts, err := cfg.EngineOptions()
	require.NoError(t, err)

	e := ingest.New(opts...)
	result := e.Ingest("Date,Time,Glucose\n03/04/2024,08:30,12")

	// 12 is above the lowered threshold, so it stays mg/dL and is rejected;
	// nothing else in the file is a plausible reading.
	assert.False(t, result.Success())

	result = e.Ingest("Date,Time,Glucose\n03/04/2024,08:30,6")
	require.True(t, result.Success())
	assert.Equal(t, 108.0, result.Readings[0].Value)
	assert.Equal(t, time.Date(2024, 4, 3, 8, 30, 0, 0, time.UTC), result.Readings[0].Timestamp)
}
