// Package pipeline runs the per-job analysis flow: it resolves the video
// and spreadsheet inputs, samples frames, detects phases and product
// exposures, fuses the transcript, clusters phase descriptions into global
// groups, and writes the analysis report. It also renders highlight clips
// for clip jobs. External collaborators are injected as interfaces so the
// flow is testable without ffmpeg or API access.
package pipeline
