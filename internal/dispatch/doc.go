// Package dispatch provides engine sinks: structured logging of alarm events,
// fan-out to several sinks and an external trip command.
package dispatch
