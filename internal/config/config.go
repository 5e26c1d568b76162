// Package config provides configuration loading for the stealthctl CLI.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the CLI.
type Config struct {
	Chain Chain `mapstructure:"chain"`
	Scan  Scan  `mapstructure:"scan"`
	Keys  Keys  `mapstructure:"keys"`
}

// Chain holds RPC endpoint and contract addresses.
type Chain struct {
	RPCURL    string `mapstructure:"rpc_url"`
	Registry  string `mapstructure:"registry"`
	Announcer string `mapstructure:"announcer"`
}

// Scan holds announcement scanning settings.
type Scan struct {
	Workers   int   `mapstructure:"workers"`
	FromBlock int64 `mapstructure:"from_block"`
	ToBlock   int64 `mapstructure:"to_block"` // 0 means latest
}

// Keys holds key file settings.
type Keys struct {
	File string `mapstructure:"file"`
}

// Load reads configuration from files and environment variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("stealthctl")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/stealthctl")
	v.AddConfigPath("/etc/stealthctl")

	v.SetEnvPrefix("STEALTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; defaults plus env vars are enough to run.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("chain.rpc_url", "http://localhost:8545")
	v.SetDefault("chain.registry", "")
	v.SetDefault("chain.announcer", "")

	v.SetDefault("scan.workers", 4)
	v.SetDefault("scan.from_block", 0)
	v.SetDefault("scan.to_block", 0)

	v.SetDefault("keys.file", "stealth-keys.yaml")
}
