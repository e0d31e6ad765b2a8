// Package logging provides a simple leveled logging interface for the
// video converter service.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information (encoder argv, stdout)
//   - INFO: General operational messages
//   - WARN: Warning conditions (cleanup failures, dropped streams)
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable.
// Messages about a single conversion should go through a JobLogger so
// every line carries the job ID.
package logging
