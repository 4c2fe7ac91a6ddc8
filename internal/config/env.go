package config

import (
	"fmt"
	"os"
	"strconv"
)

// FromEnv overlays ROLLOUT_* environment variables onto cfg. It returns
// an error naming the first variable whose value does not parse.
func FromEnv(cfg *Config) error {
	if v := os.Getenv("ROLLOUT_DIR"); v != "" {
		cfg.Directory = v
	}
	if v := os.Getenv("ROLLOUT_PREFIX"); v != "" {
		cfg.Prefix = v
	}
	if v := os.Getenv("ROLLOUT_SIZE_KB"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return envError("ROLLOUT_SIZE_KB", v, err)
		}
		cfg.SizeKB = n
	}
	if v := os.Getenv("ROLLOUT_KEEP"); v != "" {
		n, err := strconv.ParseUint(v, 10, 0)
		if err != nil {
			return envError("ROLLOUT_KEEP", v, err)
		}
		cfg.Keep = uint(n)
	}
	if err := envBool("ROLLOUT_ROTATE_ON_START", &cfg.RotateOnStart); err != nil {
		return err
	}
	if err := envBool("ROLLOUT_IGNORE_SCAN_ERRORS", &cfg.IgnoreScanErrors); err != nil {
		return err
	}
	if err := envBool("ROLLOUT_SYNC", &cfg.Sync); err != nil {
		return err
	}
	if v := os.Getenv("ROLLOUT_METRICS_FILE"); v != "" {
		cfg.MetricsFile = v
	}
	if v := os.Getenv("ROLLOUT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return envBool("ROLLOUT_LOG_JSON", &cfg.LogJSON)
}

func envBool(name string, dst *bool) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return envError(name, v, err)
	}
	*dst = b
	return nil
}

func envError(name, value string, err error) error {
	return fmt.Errorf("invalid value %q for %s: %w", value, name, err)
}
