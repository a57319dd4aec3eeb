// Package config loads the server's startup configuration.
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// Server is the top-level startup configuration, decoded from TOML.
type Server struct {
	ListenAddr        string        `toml:"listen_addr"`
	CacheRoot         string        `toml:"cache_root"`
	ScopeFiltersPath  string        `toml:"scope_filters_path"`
	CompileTimeout    Duration      `toml:"compile_timeout"`
	HousekeepingEvery Duration      `toml:"housekeeping_every"`
	Dev               bool          `toml:"dev"`
}

// Duration wraps time.Duration so it can be decoded from a TOML string
// like "30s", matching the convention used throughout the retrieval
// pack's own TOML-backed config structs.
type Duration struct{ time.Duration }

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

// Default returns the built-in configuration used when no config file
// is supplied.
func Default() Server {
	return Server{
		ListenAddr:        ":8787",
		CacheRoot:         ".hotreloadd-cache",
		ScopeFiltersPath:  "",
		CompileTimeout:    Duration{30 * time.Second},
		HousekeepingEvery: Duration{time.Minute},
	}
}

// Load decodes a Server config from a TOML file at path, starting from
// Default() so a partial file only overrides what it sets.
func Load(path string) (Server, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Server{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}
