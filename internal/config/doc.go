// Package config loads and validates the photojobs TOML configuration.
//
// The file is resolved from --config, then ~/.config/photojobs/config.toml,
// then ./photojobs.toml; absence of a file yields defaults. All path values
// support ~ expansion and are normalized to absolute paths.
package config
