package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config is the complete application configuration.
type Config struct {
	Storage  StorageConfig  `yaml:"storage" envconfig:"STORAGE"`
	Regions  RegionsConfig  `yaml:"regions" envconfig:"REGIONS"`
	Identity IdentityConfig `yaml:"identity" envconfig:"IDENTITY"`
	Output   OutputConfig   `yaml:"output" envconfig:"OUTPUT"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
}

// StorageConfig locates the usage reports in the object store.
type StorageConfig struct {
	// Root is the directory the filesystem-backed object store serves
	// buckets from.
	Root           string `yaml:"root" envconfig:"ROOT" default:"storage" validate:"required"`
	Bucket         string `yaml:"bucket" envconfig:"BUCKET"`
	PrefixTemplate string `yaml:"prefix_template" envconfig:"PREFIX_TEMPLATE" validate:"required"`
	AccountID      string `yaml:"account_id" envconfig:"ACCOUNT_ID"`
	Service        string `yaml:"service" envconfig:"SERVICE" default:"QDeveloper" validate:"oneof=QDeveloper Kiro"`
}

// RegionsConfig selects the regions to aggregate and their display labels.
type RegionsConfig struct {
	Enabled []string          `yaml:"enabled" envconfig:"ENABLED"`
	Labels  map[string]string `yaml:"labels" envconfig:"LABELS"`
}

// IdentityConfig tunes the identity cache and directory access.
type IdentityConfig struct {
	StoreFile string        `yaml:"store_file" envconfig:"STORE_FILE" default:"data/user_cache.json" validate:"required"`
	TTL       time.Duration `yaml:"ttl" envconfig:"TTL" default:"24h" validate:"gt=0"`
	// MaxEntries bounds the persisted cache; 0 keeps it unbounded.
	MaxEntries     int     `yaml:"max_entries" envconfig:"MAX_ENTRIES" default:"0" validate:"min=0"`
	DirectoryRPS   float64 `yaml:"directory_rps" envconfig:"DIRECTORY_RPS" default:"10" validate:"gt=0"`
	DirectoryBurst int     `yaml:"directory_burst" envconfig:"DIRECTORY_BURST" default:"5" validate:"min=1"`
}

// OutputConfig controls where consolidated artifacts are written.
type OutputConfig struct {
	DataDir           string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data" validate:"required"`
	MultiRegionPrefix string `yaml:"multi_region_prefix" envconfig:"MULTI_REGION_PREFIX" default:"consolidated_multiregion"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
}

// ServerConfig contains HTTP server configuration for the data API.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// Load builds the configuration from environment variables (USAGE_ prefix)
// layered under an optional config.yaml in the working directory.
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom is Load with an explicit config file path. An empty or missing
// path skips the file layer.
func LoadFrom(configFile string) (*Config, error) {
	var cfg Config

	if err := envconfig.Process("USAGE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			data, err := os.ReadFile(configFile)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
			}
		}
	}

	cfg.applyDefaults()

	if err := cfg.resolvePaths(); err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Storage.PrefixTemplate == "" {
		c.Storage.PrefixTemplate = DefaultPrefixTemplate
	}
	if len(c.Regions.Enabled) == 0 {
		c.Regions.Enabled = []string{DefaultRegion}
	}
	if c.Regions.Labels == nil {
		c.Regions.Labels = SupportedRegions
	}
}

func (c *Config) resolvePaths() error {
	for _, p := range []*string{&c.Storage.Root, &c.Identity.StoreFile, &c.Output.DataDir, &c.Logging.FilePath} {
		if *p == "" || filepath.IsAbs(*p) {
			continue
		}
		abs, err := filepath.Abs(*p)
		if err != nil {
			return err
		}
		*p = abs
	}
	return nil
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	for _, region := range c.Regions.Enabled {
		if _, ok := c.Regions.Labels[region]; !ok {
			return fmt.Errorf("region %q has no label; add it to regions.labels", region)
		}
	}
	return nil
}

// RegionLabel returns the human-readable label for a region code, falling
// back to the code itself.
func (c *Config) RegionLabel(region string) string {
	if label, ok := c.Regions.Labels[region]; ok {
		return label
	}
	return region
}

// BasePrefix expands the prefix template without a region segment. It
// fails when the template requires an account id that is not configured.
func (c *Config) BasePrefix() (string, error) {
	prefix := strings.ReplaceAll(c.Storage.PrefixTemplate, "{service}", c.Storage.Service)
	if strings.Contains(prefix, "{account_id}") {
		if c.Storage.AccountID == "" {
			return "", fmt.Errorf("prefix template %q requires storage.account_id", c.Storage.PrefixTemplate)
		}
		prefix = strings.ReplaceAll(prefix, "{account_id}", c.Storage.AccountID)
	}
	return prefix, nil
}

// RegionPrefix expands the prefix template for one region.
func (c *Config) RegionPrefix(region string) (string, error) {
	base, err := c.BasePrefix()
	if err != nil {
		return "", err
	}
	return base + region + "/", nil
}

func getConfigFilePath() string {
	if path := os.Getenv("USAGE_CONFIG_FILE"); path != "" {
		return path
	}
	return "config.yaml"
}
