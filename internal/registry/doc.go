// Package registry holds the alarm rulebook.
//
// The compiled-in chiller rulebook is returned by Default. A YAML rule file can
// replace it so that thresholds are versioned as configuration. Validate runs
// the startup checks: store capacity, operators the engine cannot resolve and
// codes shared between definitions.
package registry
