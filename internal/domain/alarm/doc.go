// Package alarm contains core domain types for alarm supervision.
//
// It defines Definition (one immutable row of the rulebook), the closed
// Kind, Priority and Operator enumerations, the Evaluate rule evaluator and
// State (the live timing and acknowledgment state of one tracked definition).
package alarm
