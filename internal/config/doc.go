// Package config loads, validates, and normalizes ripple's TOML
// configuration. Paths are tilde-expanded and made absolute during Load so the
// rest of the program never has to reason about relative paths.
package config
