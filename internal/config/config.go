// Package config loads the TOML configuration for the gametree server.
//
// Every field has a working default, so a config file is optional:
//
//	listen = ":8080"
//
//	[cache]
//	backend = "redis"        # "file", "redis", or "none"
//	redis_addr = "localhost:6379"
//	ttl = "1h"
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Default values applied when the config file omits a field.
const (
	DefaultListen = ":8080"
	DefaultTTL    = time.Hour

	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config is the server configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string      `toml:"listen"`
	Cache  CacheConfig `toml:"cache"`
}

// CacheConfig selects and tunes the artifact cache backend.
type CacheConfig struct {
	// Backend is "file", "redis", or "none".
	Backend string `toml:"backend"`
	// Dir is the file backend's directory; empty means the XDG default.
	Dir string `toml:"dir"`
	// RedisAddr is the redis backend's host:port.
	RedisAddr string `toml:"redis_addr"`
	// TTL is how long cached artifacts live.
	TTL Duration `toml:"ttl"`
}

// Duration wraps time.Duration so TOML files can use "90s" / "1h" syntax.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	dur, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = dur
	return nil
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Listen: DefaultListen,
		Cache: CacheConfig{
			Backend:   BackendFile,
			RedisAddr: "localhost:6379",
			TTL:       Duration{DefaultTTL},
		},
	}
}

// Load reads a TOML config file and overlays it on the defaults.
// A missing file at path is an error; use [LoadOptional] when the path
// comes from a default location that may not exist.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOptional behaves like [Load] but returns defaults when the file
// does not exist.
func LoadOptional(path string) (Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

func (c Config) validate() error {
	switch c.Cache.Backend {
	case BackendFile, BackendRedis, BackendNone, "":
		return nil
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
}
