// Command livelens is the livestream analysis CLI: it runs the daemon,
// executes analyze and clip jobs, and manages the job queue.
package main
