package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// ParseLogLevel returns the hclog level named by s. The empty string
// and "off" both disable logging.
func ParseLogLevel(s string) (hclog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "off":
		return hclog.Off, nil
	}
	level := hclog.LevelFromString(s)
	if level == hclog.NoLevel {
		return hclog.NoLevel, fmt.Errorf("unknown log level '%s'", s)
	}
	return level, nil
}

// NewLogger returns a logger writing to w at the configured level and
// format.
func (c *Config) NewLogger(w io.Writer) (hclog.Logger, error) {
	level, err := ParseLogLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       "rollout",
		Level:      level,
		Output:     w,
		JSONFormat: c.LogJSON,
	}), nil
}
