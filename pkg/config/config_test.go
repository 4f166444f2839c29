package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PI_SHARE_ROOT", "/data/share")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "/data/share", cfg.Share.RootPath)
	assert.Equal(t, DefaultExtensions, cfg.Share.Extensions)
	assert.Equal(t, 10*time.Minute, cfg.Index.RebuildInterval)
	assert.Equal(t, "index.json", cfg.Index.SnapshotFile)
	assert.Equal(t, 60*time.Second, cfg.Index.RebuildCooldown)
	assert.Equal(t, 5, cfg.Search.ResultsPerKeyword)
	assert.Equal(t, 50, cfg.Search.BroadQueryThreshold)
	assert.Equal(t, int64(10<<20), cfg.Search.MaxPhotoBytes)
	assert.Equal(t, int64(50<<20), cfg.Search.MaxDocumentBytes)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9999
share:
  rootPath: /mnt/photos
  extensions: [".jpg", ".png"]
index:
  rebuildInterval: 5m
search:
  resultsPerKeyword: 3
  broadQueryThreshold: 20
logging:
  level: debug
  format: text
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "/mnt/photos", cfg.Share.RootPath)
	assert.Equal(t, []string{".jpg", ".png"}, cfg.Share.Extensions)
	assert.Equal(t, 5*time.Minute, cfg.Index.RebuildInterval)
	assert.Equal(t, 3, cfg.Search.ResultsPerKeyword)
	assert.Equal(t, 20, cfg.Search.BroadQueryThreshold)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched sections keep their defaults.
	assert.Equal(t, int64(10<<20), cfg.Search.MaxPhotoBytes)
	assert.Equal(t, 5432, cfg.Postgres.Port)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
share:
  rootPath: /mnt/photos
`)
	t.Setenv("PI_SHARE_ROOT", "/mnt/override")
	t.Setenv("PI_SERVER_PORT", "7070")
	t.Setenv("PI_INDEX_REBUILD_INTERVAL", "30m")
	t.Setenv("PI_SEARCH_RESULTS_PER_KEYWORD", "2")
	t.Setenv("PI_KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("PI_LOGGING_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/mnt/override", cfg.Share.RootPath)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.Index.RebuildInterval)
	assert.Equal(t, 2, cfg.Search.ResultsPerKeyword)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadMissingRootPath(t *testing.T) {
	t.Setenv("PI_SHARE_ROOT", "")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rootPath")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeConfig(t, "share: [not a mapping")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresConfig{
		Host:     "db.internal",
		Port:     5433,
		Database: "photos",
		User:     "svc",
		Password: "secret",
		SSLMode:  "require",
	}.DSN()
	assert.Equal(t, "host=db.internal port=5433 user=svc password=secret dbname=photos sslmode=require", dsn)
}
