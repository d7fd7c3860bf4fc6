package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.Data.Dir)
	assert.Equal(t, "emails.csv", cfg.Data.EmailsCSV)
	assert.Equal(t, "failed_emails.csv", cfg.Data.FailedCSV)
	assert.Equal(t, "application_tracker.csv", cfg.Data.TrackerCSV)
	assert.Equal(t, 3, cfg.Fetch.MaxAttempts)
	assert.Equal(t, 2, cfg.Fetch.BackoffSeconds)
	assert.Equal(t, 4, cfg.Classifier.BatchSize)
	assert.Equal(t, "2023-12-30T23:59:59Z", cfg.Gmail.StartDate)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	yaml := `
data:
  dir: /var/lib/jobtrail
classifier:
  base_url: http://inference:9000
  batch_size: 16
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/jobtrail", cfg.Data.Dir)
	assert.Equal(t, "http://inference:9000", cfg.Classifier.BaseURL)
	assert.Equal(t, 16, cfg.Classifier.BatchSize)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Untouched keys keep defaults.
	assert.Equal(t, "emails.csv", cfg.Data.EmailsCSV)
}

func TestDataConfig_Resolve(t *testing.T) {
	d := DataConfig{Dir: "data"}
	assert.Equal(t, filepath.Join("data", "emails.csv"), d.Resolve("emails.csv"))
	assert.Equal(t, "/tmp/emails.csv", d.Resolve("/tmp/emails.csv"))
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	require.NoError(t, WriteDefault(path))

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(out), "emails_csv: emails.csv")
	assert.Contains(t, string(out), "batch_size: 4")

	// Refuses to clobber.
	err = WriteDefault(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestInitLogger_BadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "nope", Format: "console"})
	require.Error(t, err)
}
