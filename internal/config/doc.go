// Package config loads, validates, and normalizes the numcheck TOML
// configuration.
//
// Defaults live in defaults.go, tilde expansion and trimming in normalize.go,
// and usability checks in validate.go. The embedded sample_config.toml is the
// canonical reference for every available key.
package config
