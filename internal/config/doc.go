// Package config defines the settings used by the binaries and provides
// helpers to load, validate and save them in YAML format.
//
// Validate fills defaults for the tick interval, store capacity, signal
// staleness and timeouts.
package config
