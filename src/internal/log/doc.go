// Package log provides simple leveled logging for nmstate.
//
// This package implements a lightweight logging system with colored output
// and support for different log levels: DEBUG, INFO, WARN, and ERROR.
// It provides global logging functions that can be used throughout the library.
//
// # Log Levels
//
//   - DEBUG: Detailed diagnostic information (only printed in verbose mode)
//   - INFO: General informational messages
//   - WARN: Warning messages for potentially problematic situations
//   - ERROR: Error messages for failures and exceptions
//
// # Hooks and capture
//
// When nmstate is loaded as a shared library, printing to the host process
// stdout is not acceptable. The C binding disables console output and uses a
// Collector to gather the records of a single call, which are then returned to
// the caller as a JSON array:
//
//	c := log.Capture()
//	defer c.Stop()
//	// ... run the operation ...
//	out := c.JSON() // [{"time":...,"level":"INFO","file":"apply.go:42","msg":"..."}]
//
// Hooks receive every record, debug records included, even when console output
// is disabled.
//
// # Example Usage
//
//	log.Infof("Applying desired state")
//	log.Warnf("Interface %s not found, skipping", name)
//	log.SetVerbose(true)
//	log.Debugf("Current state: %+v", state)
package log
