package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config represents the cdfgraph tool configuration
type Config struct {
	Store StoreConfig `mapstructure:"store"`
	Log   LogConfig   `mapstructure:"log"`
}

// StoreConfig selects and configures the metadata store backend
type StoreConfig struct {
	// Backend is "json" or "sqlite"
	Backend string `mapstructure:"backend"`
	// Path is the JSON document path (json backend)
	Path string `mapstructure:"path"`
	// DSN is the database source name (sqlite backend)
	DSN string `mapstructure:"dsn"`
}

// LogConfig configures diagnostic logging
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Load loads the configuration from cdfgraph.yml or cdfgraph.yaml
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("store.backend", "json")
	v.SetDefault("store.path", "metadata.json")
	v.SetDefault("store.dsn", "metadata.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetConfigName("cdfgraph")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CDFGRAPH")
	v.AutomaticEnv()

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func validateConfig(config *Config) error {
	switch config.Store.Backend {
	case "json", "sqlite":
	default:
		return fmt.Errorf("unknown store backend %q (want json or sqlite)", config.Store.Backend)
	}
	switch config.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", config.Log.Level)
	}
	return nil
}
