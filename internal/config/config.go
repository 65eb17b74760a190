// Package config loads the bridge's TOML configuration file, mirroring
// nishisan-dev/n-backup's internal/config: a typed struct tagged for the
// serialization library, compiled-in defaults applied for every missing key,
// and every validation error accumulated before Load returns rather than a
// lazy per-access panic (spec.md §9 design note on config.get panicking on a
// missing default).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the bridge's full runtime configuration, keyed the way spec.md
// §6 and SPEC_FULL.md §6 name them: dot-path keys map onto nested structs.
type Config struct {
	Address            string `toml:"address"`
	Server             string `toml:"server"`
	Encryption         bool   `toml:"encryption"`
	CompressionThresh  int    `toml:"compression-thresh"`
	LogLevel           string `toml:"log-level"`
	LogFormat          string `toml:"log-format"`
	Icon               string `toml:"icon"`

	RCON    RCON    `toml:"rcon"`
	Metrics Metrics `toml:"metrics"`
	Region  Region  `toml:"region"`
	Worker  Worker  `toml:"worker-pool"`
}

// RCON holds the optional RCON listener's settings (spec.md §6).
type RCON struct {
	Enabled  bool   `toml:"enabled"`
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
}

// Metrics holds the Prometheus exporter's listen address (SPEC_FULL.md §6).
type Metrics struct {
	Addr string `toml:"addr"`
}

// Region holds chunk-persistence tuning (SPEC_FULL.md §6).
type Region struct {
	AutosaveInterval time.Duration `toml:"autosave-interval"`
}

// Worker holds chunk-generation worker pool tuning (SPEC_FULL.md §6).
// QueueLimit is loaded and validated, but worker.Pool does not read it: the
// pool's queue bound is the constant worker.MaxQueueLength.
type Worker struct {
	ChunkWorkers int `toml:"chunk-workers"`
	QueueLimit   int `toml:"queue-limit"`
}

// Defaults returns the compiled-in configuration used for any key absent
// from the loaded file.
func Defaults() Config {
	return Config{
		Address:           "0.0.0.0:25565",
		Server:             "127.0.0.1:25566",
		Encryption:        true,
		CompressionThresh: 256,
		LogLevel:          "info",
		LogFormat:         "json",
		Icon:              "",
		RCON: RCON{
			Enabled: false,
			Addr:    "0.0.0.0:25575",
		},
		Metrics: Metrics{Addr: "127.0.0.1:9090"},
		Region:  Region{AutosaveInterval: 5 * time.Minute},
		Worker:  Worker{ChunkWorkers: 4, QueueLimit: 256},
	}
}

// Load reads and parses the TOML file at path, applying Defaults() for every
// key the file omits and validating the merged result. An unknown key in the
// file produces a warning string in the returned slice rather than a fatal
// error (spec.md §6: "unknown keys warn, missing keys fall back to the
// compiled default").
func Load(path string) (*Config, []string, error) {
	cfg := Defaults()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var warnings []string
	for _, key := range meta.Undecoded() {
		warnings = append(warnings, fmt.Sprintf("config: unknown key %q ignored", key.String()))
	}

	if errs := cfg.validate(); len(errs) > 0 {
		return nil, warnings, fmt.Errorf("config: invalid: %s", strings.Join(errs, "; "))
	}
	return &cfg, warnings, nil
}

func (c *Config) validate() []string {
	var errs []string
	if c.Address == "" {
		errs = append(errs, "address must not be empty")
	}
	if c.CompressionThresh < -1 {
		errs = append(errs, "compression-thresh must be >= -1")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log-level %q is not one of debug/info/warn/error", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("log-format %q is not one of json/text", c.LogFormat))
	}
	if c.RCON.Enabled && c.RCON.Password == "" {
		errs = append(errs, "rcon.password must be set when rcon.enabled is true")
	}
	if c.Worker.ChunkWorkers <= 0 {
		errs = append(errs, "worker-pool.chunk-workers must be > 0")
	}
	if c.Worker.QueueLimit <= 0 {
		errs = append(errs, "worker-pool.queue-limit must be > 0")
	}
	if c.Region.AutosaveInterval <= 0 {
		errs = append(errs, "region.autosave-interval must be positive")
	}
	return errs
}
