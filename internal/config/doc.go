// Package config loads, normalizes, and validates gamelens configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides for source
// credentials such as TWITCH_CLIENT_ID and RAWG_API_KEY. The Config type
// centralizes every knob the CLI, the source adapters, and the search
// pipeline need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
