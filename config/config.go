// Package config loads the tool configuration from a YAML file and applies
// MEDIASYNC_* environment overrides. The resulting Config is passed
// explicitly to the client constructors; nothing here is a process-wide
// singleton.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "1500ms" parse.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return errors.Wrap(err, "config: duration must be a string")
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return errors.Wrapf(err, "config: invalid duration %q", s)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// CDNConfig configures the image CDN client.
type CDNConfig struct {
	CloudName    string `yaml:"cloud_name"`
	APIKey       string `yaml:"api_key"`
	APISecret    string `yaml:"api_secret"`
	BaseURL      string `yaml:"base_url"`
	DeliveryHost string `yaml:"delivery_host"`
	UploadFolder string `yaml:"upload_folder"`
}

// StoreConfig configures the document database client.
type StoreConfig struct {
	Endpoint   string `yaml:"endpoint"`
	ProjectID  string `yaml:"project_id"`
	APIKey     string `yaml:"api_key"`
	DatabaseID string `yaml:"database_id"`
	Collection string `yaml:"collection"`
}

// CompressConfig configures the adaptive re-encoder.
type CompressConfig struct {
	CeilingKB   int     `yaml:"ceiling_kb"`
	MaxAttempts int     `yaml:"max_attempts"`
	MaxWidth    int     `yaml:"max_width"`
	MaxHeight   int     `yaml:"max_height"`
	Quality     float64 `yaml:"quality"`
	Format      string  `yaml:"format"`
}

// MigrateConfig configures the batch migration workflow.
type MigrateConfig struct {
	// LegacyHosts are the hostnames of the pre-migration storage provider.
	LegacyHosts []string `yaml:"legacy_hosts"`
	// Delay is the pause between items, respecting the CDN rate limit.
	Delay Duration `yaml:"delay"`
	// Folder is the CDN destination folder for migrated assets.
	Folder string `yaml:"folder"`
}

// Config is the full tool configuration.
type Config struct {
	CDN      CDNConfig      `yaml:"cdn"`
	Store    StoreConfig    `yaml:"store"`
	Compress CompressConfig `yaml:"compress"`
	Migrate  MigrateConfig  `yaml:"migrate"`
}

// envOverrides maps environment variables onto config fields. Credentials
// are the usual candidates for keeping out of the file.
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set("MEDIASYNC_CDN_CLOUD_NAME", &c.CDN.CloudName)
	set("MEDIASYNC_CDN_API_KEY", &c.CDN.APIKey)
	set("MEDIASYNC_CDN_API_SECRET", &c.CDN.APISecret)
	set("MEDIASYNC_STORE_ENDPOINT", &c.Store.Endpoint)
	set("MEDIASYNC_STORE_PROJECT_ID", &c.Store.ProjectID)
	set("MEDIASYNC_STORE_API_KEY", &c.Store.APIKey)
	set("MEDIASYNC_STORE_DATABASE_ID", &c.Store.DatabaseID)
}

// Validate checks the fields every workflow needs. Workflow-specific fields
// (e.g. legacy hosts) are validated by the workflow that uses them.
func (c *Config) Validate() error {
	if c.CDN.CloudName == "" || c.CDN.APIKey == "" || c.CDN.APISecret == "" {
		return errors.New("config: cdn cloud_name, api_key, and api_secret are required")
	}
	if c.Store.Endpoint == "" || c.Store.ProjectID == "" || c.Store.APIKey == "" || c.Store.DatabaseID == "" {
		return errors.New("config: store endpoint, project_id, api_key, and database_id are required")
	}
	if c.Compress.CeilingKB < 0 || c.Compress.MaxAttempts < 0 {
		return errors.New("config: compress limits must not be negative")
	}
	return nil
}

// Load reads the YAML file at path, applies environment overrides, and
// validates the result.
//
// Arguments:
//   - path: Path to the YAML configuration file.
//
// Returns:
//   - *Config: The loaded configuration.
//   - error: An error if the file is unreadable, malformed, or incomplete.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: failed to read %s", path)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "config: failed to parse %s", path)
	}

	cfg.applyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
