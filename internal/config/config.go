// Package config loads toolkit settings from a TOML file.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds the toolkit's tunable settings.
type Config struct {
	// Workers caps the goroutines used by parallel operations.
	// Zero means one per CPU.
	Workers int `toml:"workers"`

	// Compression is the default GeoTIFF write compression,
	// "deflate" or "none".
	Compression string `toml:"compression"`

	// Colormap is the default quicklook color ramp.
	Colormap string `toml:"colormap"`

	Server ServerConfig `toml:"server"`
}

// ServerConfig configures the raster catalog server.
type ServerConfig struct {
	// Addr is the listen address, host:port.
	Addr string `toml:"addr"`

	// Root is the directory whose GeoTIFFs are served.
	Root string `toml:"root"`
}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		Workers:     runtime.NumCPU(),
		Compression: "deflate",
		Colormap:    "viridis",
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
			Root: ".",
		},
	}
}

// Load reads a TOML config file, filling unset fields from Default.
// Keys the toolkit does not know are an error rather than silently
// ignored.
func Load(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config %s has unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	switch c.Compression {
	case "deflate", "none", "uncompressed":
	default:
		return fmt.Errorf("compression %q is not supported, use deflate or none", c.Compression)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	return nil
}
