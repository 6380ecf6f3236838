// Package scheduler polls the job queue and dispatches work to a bounded
// worker pool. Messages are deleted before dispatch, so each job runs at
// most once; a crash between receive and delete lets the message reappear
// after its visibility timeout. Jobs run in a subprocess so an analysis
// crash never takes the daemon down.
package scheduler
