// Package deps reports the availability of external binaries the pipeline
// shells out to.
package deps
