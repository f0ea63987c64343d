package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
cdn:
  cloud_name: demo
  api_key: file-key
  api_secret: file-secret
  upload_folder: products
store:
  endpoint: https://cloud.appwrite.io/v1
  project_id: proj
  api_key: store-key
  database_id: db
  collection: products
compress:
  ceiling_kb: 300
  max_attempts: 5
  max_width: 1920
  max_height: 1080
  quality: 0.9
  format: jpeg
migrate:
  legacy_hosts:
    - firebasestorage.googleapis.com
    - legacy-cdn.example.com
  delay: 1500ms
  folder: migrated
`

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "mediasync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "demo", cfg.CDN.CloudName)
	assert.Equal(t, "products", cfg.CDN.UploadFolder)
	assert.Equal(t, "proj", cfg.Store.ProjectID)
	assert.Equal(t, 300, cfg.Compress.CeilingKB)
	assert.Equal(t, 0.9, cfg.Compress.Quality)
	assert.Equal(t, []string{"firebasestorage.googleapis.com", "legacy-cdn.example.com"}, cfg.Migrate.LegacyHosts)
	assert.Equal(t, 1500*time.Millisecond, cfg.Migrate.Delay.Std())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MEDIASYNC_CDN_API_KEY", "env-key")
	t.Setenv("MEDIASYNC_CDN_API_SECRET", "env-secret")
	t.Setenv("MEDIASYNC_STORE_API_KEY", "env-store-key")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.CDN.APIKey, "env should win over the file")
	assert.Equal(t, "env-secret", cfg.CDN.APISecret)
	assert.Equal(t, "env-store-key", cfg.Store.APIKey)
	assert.Equal(t, "demo", cfg.CDN.CloudName, "fields without an override keep the file value")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "cdn: [not a map"))
	assert.Error(t, err)
}

func TestLoadIncomplete(t *testing.T) {
	_, err := Load(writeConfig(t, "cdn:\n  cloud_name: demo\n"))
	assert.Error(t, err, "a config without credentials must not validate")
}

func TestLoadInvalidDuration(t *testing.T) {
	bad := strings.Replace(sampleYAML, "delay: 1500ms", "delay: soonish", 1)
	_, err := Load(writeConfig(t, bad))
	assert.Error(t, err, "an unparseable delay must fail the load")
}

func TestApplyEnvIgnoresEmpty(t *testing.T) {
	cfg := Config{CDN: CDNConfig{APIKey: "keep"}}
	cfg.applyEnv(func(key string) (string, bool) {
		if key == "MEDIASYNC_CDN_API_KEY" {
			return "", true
		}
		return "", false
	})
	assert.Equal(t, "keep", cfg.CDN.APIKey, "an empty env value must not clobber the file value")
}
