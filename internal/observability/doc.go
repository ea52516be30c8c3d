// Package observability builds the zap loggers used across the router.
//
// Loggers are configured from the Observability section of the config:
//   - LOG_LEVEL selects the minimum level (debug, info, warn, error)
//   - LOG_FORMAT selects json output for production or console output for local runs
//
// WithRequestID attaches the request ID carried by a context so every line
// written while serving a request can be correlated.
package observability
