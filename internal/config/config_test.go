package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, uint64(10240), cfg.SizeKB)
	assert.Equal(t, uint(5), cfg.Keep)
	assert.Equal(t, int64(10240*1024), cfg.MaxBytes())
	assert.False(t, cfg.RotateOnStart)
	assert.Equal(t, "off", cfg.LogLevel)
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		contents string
	}{
		{
			name: "yaml",
			file: "rollout.yaml",
			contents: `directory: /var/log/app
prefix: app.
size_kb: 64
keep: 3
rotate_on_start: true
log_level: debug
`,
		},
		{
			name: "yml",
			file: "rollout.yml",
			contents: `directory: /var/log/app
prefix: app.
size_kb: 64
keep: 3
rotate_on_start: true
log_level: debug
`,
		},
		{
			name: "toml",
			file: "rollout.toml",
			contents: `directory = "/var/log/app"
prefix = "app."
size_kb = 64
keep = 3
rotate_on_start = true
log_level = "debug"
`,
		},
		{
			name:     "json",
			file:     "rollout.json",
			contents: `{"directory": "/var/log/app", "prefix": "app.", "size_kb": 64, "keep": 3, "rotate_on_start": true, "log_level": "debug"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			require.NoError(t, Load(writeFile(t, tt.file, tt.contents), cfg))

			assert.Equal(t, "/var/log/app", cfg.Directory)
			assert.Equal(t, "app.", cfg.Prefix)
			assert.Equal(t, uint64(64), cfg.SizeKB)
			assert.Equal(t, uint(3), cfg.Keep)
			assert.True(t, cfg.RotateOnStart)
			assert.Equal(t, "debug", cfg.LogLevel)
			assert.False(t, cfg.Sync)
		})
	}

	t.Run("absent settings keep defaults", func(t *testing.T) {
		cfg := Default()
		require.NoError(t, Load(writeFile(t, "partial.yaml", "prefix: app.\n"), cfg))

		assert.Equal(t, "app.", cfg.Prefix)
		assert.Equal(t, uint64(DefaultSizeKB), cfg.SizeKB)
		assert.Equal(t, uint(DefaultKeep), cfg.Keep)
	})

	t.Run("unknown extension", func(t *testing.T) {
		err := Load(writeFile(t, "rollout.ini", "prefix=app."), Default())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown extension")
	})

	t.Run("malformed file", func(t *testing.T) {
		err := Load(writeFile(t, "rollout.yaml", "size_kb: [1, 2"), Default())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot parse config file")
	})

	t.Run("missing file", func(t *testing.T) {
		err := Load(filepath.Join(t.TempDir(), "missing.yaml"), Default())
		assert.True(t, os.IsNotExist(err))
	})
}

func TestFromEnv(t *testing.T) {
	t.Setenv("ROLLOUT_DIR", "/tmp/logs")
	t.Setenv("ROLLOUT_PREFIX", "svc-")
	t.Setenv("ROLLOUT_SIZE_KB", "128")
	t.Setenv("ROLLOUT_KEEP", "0")
	t.Setenv("ROLLOUT_ROTATE_ON_START", "true")
	t.Setenv("ROLLOUT_IGNORE_SCAN_ERRORS", "1")
	t.Setenv("ROLLOUT_SYNC", "true")
	t.Setenv("ROLLOUT_METRICS_FILE", "/tmp/rollout.prom")
	t.Setenv("ROLLOUT_LOG_LEVEL", "warn")
	t.Setenv("ROLLOUT_LOG_JSON", "true")

	cfg := Default()
	require.NoError(t, FromEnv(cfg))

	assert.Equal(t, &Config{
		Directory:        "/tmp/logs",
		Prefix:           "svc-",
		SizeKB:           128,
		Keep:             0,
		RotateOnStart:    true,
		IgnoreScanErrors: true,
		Sync:             true,
		MetricsFile:      "/tmp/rollout.prom",
		LogLevel:         "warn",
		LogJSON:          true,
	}, cfg)
}

func TestFromEnvRejectsMalformedValues(t *testing.T) {
	tests := []struct {
		name, value string
	}{
		{"ROLLOUT_SIZE_KB", "lots"},
		{"ROLLOUT_SIZE_KB", "-5"},
		{"ROLLOUT_KEEP", "-1"},
		{"ROLLOUT_ROTATE_ON_START", "maybe"},
		{"ROLLOUT_IGNORE_SCAN_ERRORS", "sometimes"},
		{"ROLLOUT_SYNC", "2"},
		{"ROLLOUT_LOG_JSON", "yes please"},
	}
	for _, tt := range tests {
		t.Run(tt.name+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.name, tt.value)

			err := FromEnv(Default())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.name)
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Directory = "logs"
		cfg.Prefix = "app."
		return cfg
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing directory", func(c *Config) { c.Directory = "" }, "log directory not specified"},
		{"missing prefix", func(c *Config) { c.Prefix = "" }, "missing prefix"},
		{"prefix with separator", func(c *Config) { c.Prefix = "a/b" }, "path separator"},
		{"zero size", func(c *Config) { c.SizeKB = 0 }, "at least 1 KB"},
		{"huge size", func(c *Config) { c.SizeKB = 1 << 60 }, "size too large"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "unknown log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	t.Run("zero keep is valid", func(t *testing.T) {
		cfg := valid()
		cfg.Keep = 0
		assert.NoError(t, cfg.Validate())
	})
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]hclog.Level{
		"":      hclog.Off,
		"off":   hclog.Off,
		"OFF":   hclog.Off,
		"trace": hclog.Trace,
		"debug": hclog.Debug,
		"info":  hclog.Info,
		"warn":  hclog.Warn,
		"error": hclog.Error,
	}
	for input, want := range tests {
		got, err := ParseLogLevel(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseLogLevel("verbose")
	assert.Error(t, err)
}
