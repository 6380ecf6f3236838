// Package media wraps the ffmpeg and ffprobe binaries for the operations
// the analysis pipeline needs: frame sampling, audio extraction, scene
// change detection, duration probing, and clip rendering.
package media
