// Package engine implements the alarm and safety supervision engine.
//
// On every Tick the engine reads each definition's signal, applies its rule
// and advances that definition's debounce, latch and auto-clear timing.
// Activations and clears are reported to a Sink. Time is supplied by the
// caller as a wrapping millisecond counter, so the engine is deterministic
// for a given sequence of readings.
package engine
