// Package config resolves the settings of the rollout command from
// defaults, an optional YAML, TOML, or JSON file, ROLLOUT_* environment
// variables, and command line flags, in increasing order of precedence.
package config
