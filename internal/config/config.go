package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Defaults applied by Default.
const (
	DefaultSizeKB   = 10240
	DefaultKeep     = 5
	DefaultLogLevel = "off"
)

// Config holds everything the rollout command needs to run.
type Config struct {
	// Directory holds the current log file and the rotated log files.
	// It is created, with any missing parents, when absent.
	Directory string `yaml:"directory" toml:"directory" json:"directory"`

	// Prefix is prepended to the index of every rotated log file.
	Prefix string `yaml:"prefix" toml:"prefix" json:"prefix"`

	// SizeKB is the size of the current log file, in units of 1024
	// bytes, at which it is rotated at the next newline.
	SizeKB uint64 `yaml:"size_kb" toml:"size_kb" json:"size_kb"`

	// Keep is the number of rotated log files retained. Zero retains
	// none.
	Keep uint `yaml:"keep" toml:"keep" json:"keep"`

	RotateOnStart    bool `yaml:"rotate_on_start" toml:"rotate_on_start" json:"rotate_on_start"`
	IgnoreScanErrors bool `yaml:"ignore_scan_errors" toml:"ignore_scan_errors" json:"ignore_scan_errors"`
	Sync             bool `yaml:"sync" toml:"sync" json:"sync"`

	// MetricsFile is an optional path of a Prometheus textfile.
	MetricsFile string `yaml:"metrics_file" toml:"metrics_file" json:"metrics_file"`

	LogLevel string `yaml:"log_level" toml:"log_level" json:"log_level"`
	LogJSON  bool   `yaml:"log_json" toml:"log_json" json:"log_json"`
}

// Default returns a Config with every default applied.
func Default() *Config {
	return &Config{
		SizeKB:   DefaultSizeKB,
		Keep:     DefaultKeep,
		LogLevel: DefaultLogLevel,
	}
}

// Load overlays the settings found in the file at path onto cfg. The
// file format is chosen by extension: .yaml or .yml, .toml, or .json.
// Settings absent from the file keep their value in cfg.
func Load(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		_, err = toml.Decode(string(data), cfg)
	case ".json":
		err = json.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("cannot determine format of config file %q: unknown extension %q", path, ext)
	}
	if err != nil {
		return fmt.Errorf("cannot parse config file %q: %w", path, err)
	}
	return nil
}

// MaxBytes returns the rotation threshold in bytes.
func (c *Config) MaxBytes() int64 { return int64(c.SizeKB) * 1024 }

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if c.Directory == "" {
		return errors.New("log directory not specified")
	}
	if c.Prefix == "" {
		return errors.New("missing prefix")
	}
	if strings.ContainsAny(c.Prefix, "/"+string(filepath.Separator)) {
		return fmt.Errorf("prefix must not contain a path separator '%s'", c.Prefix)
	}
	if c.SizeKB == 0 {
		return errors.New("size must be at least 1 KB")
	}
	if c.SizeKB > math.MaxInt64/1024 {
		return fmt.Errorf("size too large '%d'", c.SizeKB)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}
