package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config drives the feedsim CLI.
type Config struct {
	Redis   RedisConfig   `mapstructure:"redis"`
	Replay  ReplayConfig  `mapstructure:"replay"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type RedisConfig struct {
	Addr string `mapstructure:"addr"`
	DB   int    `mapstructure:"db"`
}

type ReplayConfig struct {
	GameID          string  `mapstructure:"game_id"`
	FixturePath     string  `mapstructure:"fixture_path"`
	EventsPerSecond float64 `mapstructure:"events_per_second"`
	Loop            bool    `mapstructure:"loop"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("replay.events_per_second", 1.0)
	v.SetDefault("replay.loop", false)
	v.SetDefault("logging.level", "info")

	// Environment variable support
	v.SetEnvPrefix("BLAZE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("feedsim")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required")
	}
	if c.Replay.EventsPerSecond <= 0 {
		return fmt.Errorf("replay.events_per_second must be > 0")
	}
	return nil
}
