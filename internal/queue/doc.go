// Package queue persists analysis jobs in SQLite with visibility-timeout
// semantics: received messages stay in the table but are hidden until their
// visibility deadline passes, so a crashed worker's jobs reappear instead of
// vanishing. Deleting a message acknowledges it permanently.
package queue
