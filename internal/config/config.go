// Package config loads and validates the indexer's configuration from a
// YAML file, environment variables, and defaults, in that priority order.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Indexer IndexerConfig `mapstructure:"indexer"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// IndexerConfig holds the indexing engine's tunables, mirroring the CLI
// flags so `--config` and env vars can set the same values a flag would.
type IndexerConfig struct {
	Threads                 int           `mapstructure:"threads"`
	RequestTimeout          time.Duration `mapstructure:"request_timeout"`
	UserAgent               string        `mapstructure:"user_agent"`
	Username                string        `mapstructure:"username"`
	Password                string        `mapstructure:"password"`
	ExactFileSizes          bool          `mapstructure:"exact_file_sizes"`
	DetermineSizeByDownload bool          `mapstructure:"determine_size_by_download"`
	RespectRobotsTxt        bool          `mapstructure:"respect_robots_txt"`
	GdIndexRootID           string        `mapstructure:"gdindex_root_id"`
	MaxFTPConnections       int64         `mapstructure:"max_ftp_connections"`
	NoURLs                  bool          `mapstructure:"no_urls"`
	NoReddit                bool          `mapstructure:"no_reddit"`
	WriteJSON               bool          `mapstructure:"write_json"`
	OutputFile              string        `mapstructure:"output_file"`
	UploadURLs              bool          `mapstructure:"upload_urls"`
	Speedtest               bool          `mapstructure:"speedtest"`
	QuitImmediately         bool          `mapstructure:"quit"`
}

// LoggingConfig holds zerolog's tunables.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

var (
	loaded     *Config
	haveLoaded bool
)

// Load reads configuration from configPath (or the default search
// path), environment variables under the GODIRINDEX_ prefix, and
// package defaults.
func Load(configPath string) (*Config, error) {
	if haveLoaded && loaded != nil {
		return loaded, nil
	}

	viper.SetConfigName("godirindex")
	viper.SetConfigType("yaml")

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.godirindex")
	}

	setDefaults()

	viper.SetEnvPrefix("GODIRINDEX")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	loaded = &cfg
	haveLoaded = true
	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("indexer.threads", 5)
	viper.SetDefault("indexer.request_timeout", "100s")
	viper.SetDefault("indexer.respect_robots_txt", true)
	viper.SetDefault("indexer.max_ftp_connections", 3)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")
}

// Get returns the previously loaded configuration, loading with
// defaults if Load has not yet been called.
func Get() *Config {
	if !haveLoaded || loaded == nil {
		cfg, _ := Load("")
		return cfg
	}
	return loaded
}

// Validate checks the fields Load cannot enforce through viper alone.
func (c *Config) Validate() error {
	if c.Indexer.Threads <= 0 {
		return fmt.Errorf("indexer.threads must be positive")
	}
	if c.Indexer.RequestTimeout <= 0 {
		return fmt.Errorf("indexer.request_timeout must be positive")
	}
	return nil
}
