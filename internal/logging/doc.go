// Package logging provides a simple leveled logging interface for the
// video compressor service.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable.
// Setting DEBUG=1 forces debug logging regardless of LOG_LEVEL.
package logging
