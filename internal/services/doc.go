// Package services contains shared service-layer helpers: the sentinel
// error taxonomy used to classify failures, the retry policy every external
// call runs under, and context annotation helpers for job metadata.
//
// Subpackages wrap the external collaborators: vision, speech, and embed
// talk to the OpenAI API.
package services
