// Package preflight provides readiness checks for the binaries, paths, and
// API credentials the daemon depends on. The daemon runs them at startup
// and the CLI status command reuses the individual check functions.
package preflight
