// Package config loads, normalizes, and validates livelens configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENAI_API_KEY (optionally sourced from a .env file). The Config type
// centralizes every knob the daemon, pipeline, and CLI need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
