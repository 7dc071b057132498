// Package config loads and validates the TOML configuration file, applying
// defaults and path expansion so downstream packages receive absolute paths.
package config
