// Package config loads Ripple's TOML configuration from
// ~/.config/ripple/config.toml, falling back to sensible defaults when the
// file is absent.
package config
