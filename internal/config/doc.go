// Package config loads, normalizes, and validates owlmap configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the OWLMAP_DB environment
// override. The Config type centralizes the store location, matching
// thresholds, vocabulary discovery rules and audit file names so every
// command resolves them in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
