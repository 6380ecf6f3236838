// Package daemon coordinates the long-running livelens process: it enforces
// single-instance execution with a file lock, owns the job scheduler
// lifecycle, and exposes a local HTTP status API.
package daemon
