// Package config loads and validates vink configuration.
//
// Configuration flows through three phases: Default() produces repository
// defaults, Load() overlays a TOML file, then normalize and Validate make
// the result usable. Path fields come out expanded and absolute.
package config
