// Package config loads, normalizes, and validates authmon configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// AUTHMON_FILE. The Config type centralizes every knob the monitor loop and CLI
// need: the watched log, the failure limit, the response command, and where
// state, history, and logs live.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
