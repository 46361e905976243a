// Package logger wraps zap to give the builder:
//   - a global sugared logger writing human-readable console lines to stdout,
//   - context helpers (ToContext/FromContext/WithName/WithKV) so every stage
//     logs under its own name without passing loggers around,
//   - level parsing for the --log-level flag.
package logger
