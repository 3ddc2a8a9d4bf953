// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with console or JSON output,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing and runtime level changes,
//   - convenience functions (Infof, WarnKV, ErrorKV, etc.).
//
// Services accept a context and extract the logger from it, so alarm events
// carry the unit and component names attached by their callers.
package logger
