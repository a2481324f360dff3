// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type Config struct {
	Server struct {
		Host string `json:"host"`
		Port int    `json:"port"`
	} `json:"server"`

	Database struct {
		Path string `json:"path"`
	} `json:"database"`

	Redis struct {
		Addr     string `json:"addr"`
		Password string `json:"password"`
		DB       int    `json:"db"`
	} `json:"redis"`

	Cache struct {
		LocalTTLSeconds  int `json:"local_ttl_seconds"`  // short, bounds local staleness
		SharedTTLSeconds int `json:"shared_ttl_seconds"` // long, shared tier expiry
		LocalSize        int `json:"local_size"`
	} `json:"cache"`

	Sync struct {
		// Scopes synced on a full resync, in "channel:tenant:region:env"
		// form. Scopes observed at runtime are added to this set.
		Scopes []string `json:"scopes"`
	} `json:"sync"`

	Environment string `json:"environment"` // dev, prod
	LogLevel    string `json:"log_level"`   // debug, info, warn, error
}

// Path returns the environment-selected config file path.
func Path() string {
	env := os.Getenv("INTENTCFG_ENV")
	if env == "" {
		env = "development"
	}
	return fmt.Sprintf("config/config.%s.json", env)
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var config Config
	if err := json.NewDecoder(file).Decode(&config); err != nil {
		return nil, err
	}
	config.applyDefaults()

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Cache.LocalTTLSeconds == 0 {
		c.Cache.LocalTTLSeconds = 300 // 5m local cache
	}
	if c.Cache.SharedTTLSeconds == 0 {
		c.Cache.SharedTTLSeconds = 1800 // 30m shared cache
	}
	if c.Cache.LocalSize == 0 {
		c.Cache.LocalSize = 1024
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) LocalTTL() time.Duration {
	return time.Duration(c.Cache.LocalTTLSeconds) * time.Second
}

func (c *Config) SharedTTL() time.Duration {
	return time.Duration(c.Cache.SharedTTLSeconds) * time.Second
}
