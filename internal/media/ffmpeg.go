package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var commandContext = exec.CommandContext

// FFmpeg invokes the ffmpeg and ffprobe binaries.
type FFmpeg struct {
	ffmpegBinary   string
	ffprobeBinary  string
	sceneThreshold float64
}

// Option configures an FFmpeg wrapper.
type Option func(*FFmpeg)

// WithBinaries overrides the ffmpeg and ffprobe executables.
func WithBinaries(ffmpeg, ffprobe string) Option {
	return func(f *FFmpeg) {
		if ffmpeg != "" {
			f.ffmpegBinary = ffmpeg
		}
		if ffprobe != "" {
			f.ffprobeBinary = ffprobe
		}
	}
}

// WithSceneThreshold overrides the scene change detection threshold.
func WithSceneThreshold(threshold float64) Option {
	return func(f *FFmpeg) {
		if threshold > 0 {
			f.sceneThreshold = threshold
		}
	}
}

// NewFFmpeg builds a wrapper resolving binaries from PATH.
func NewFFmpeg(opts ...Option) *FFmpeg {
	f := &FFmpeg{
		ffmpegBinary:   "ffmpeg",
		ffprobeBinary:  "ffprobe",
		sceneThreshold: 0.4,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ExtractFrames samples one frame per second from source into outDir as
// frame_0001.jpg, frame_0002.jpg, and so on. It returns the sorted frame
// paths.
func (f *FFmpeg) ExtractFrames(ctx context.Context, source, outDir string) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create frame directory: %w", err)
	}
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-vf", "fps=1",
		"-q:v", "2",
		filepath.Join(outDir, "frame_%04d.jpg"),
	}
	cmd := commandContext(ctx, f.ffmpegBinary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("ffmpeg extract frames: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return FramePaths(outDir)
}

// FramePaths lists the extracted frame images in frame order.
func FramePaths(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "frame_*.jpg"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// ExtractAudio writes the source audio as mono 16kHz WAV to dest.
func (f *FFmpeg) ExtractAudio(ctx context.Context, source, dest string) error {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	}
	cmd := commandContext(ctx, f.ffmpegBinary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg extract audio: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// SceneTimes detects scene changes and returns their timestamps in seconds,
// ascending. An empty result means no cut crossed the threshold.
func (f *FFmpeg) SceneTimes(ctx context.Context, source string) ([]float64, error) {
	filter := fmt.Sprintf("select='gt(scene,%g)',showinfo", f.sceneThreshold)
	args := []string{
		"-hide_banner",
		"-i", source,
		"-vf", filter,
		"-f", "null",
		"-",
	}
	cmd := commandContext(ctx, f.ffmpegBinary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg scene detect: %w: %s", err, snippetTail(stderr.String()))
	}
	return ParseShowinfoTimes(stderr.String()), nil
}

var ptsTimePattern = regexp.MustCompile(`pts_time:([0-9]+(?:\.[0-9]+)?)`)

// ParseShowinfoTimes extracts pts_time values from showinfo filter output.
func ParseShowinfoTimes(output string) []float64 {
	var times []float64
	for _, match := range ptsTimePattern.FindAllStringSubmatch(output, -1) {
		value, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			continue
		}
		times = append(times, value)
	}
	sort.Float64s(times)
	return times
}

// Clip renders the [start, end) range of source to dest, optionally
// retimed by speed (1.0 keeps realtime, 2.0 halves the runtime).
func (f *FFmpeg) Clip(ctx context.Context, source, dest string, start, end, speed float64) error {
	if end <= start {
		return fmt.Errorf("ffmpeg clip: end %.2f must be after start %.2f", end, start)
	}
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", formatSeconds(start),
		"-to", formatSeconds(end),
		"-i", source,
	}
	if speed > 0 && speed != 1.0 {
		videoFilter := fmt.Sprintf("setpts=PTS/%g", speed)
		args = append(args,
			"-vf", videoFilter,
			"-af", AtempoChain(speed),
		)
	} else {
		args = append(args, "-c", "copy")
	}
	args = append(args, dest)
	cmd := commandContext(ctx, f.ffmpegBinary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg clip: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// AtempoChain builds an audio tempo filter for the given speed factor.
// A single atempo stage only covers 0.5 through 2.0, so factors outside
// that window are decomposed into a chain of stages.
func AtempoChain(speed float64) string {
	if speed <= 0 {
		speed = 1.0
	}
	var stages []string
	remaining := speed
	for remaining > 2.0 {
		stages = append(stages, "atempo=2.0")
		remaining /= 2.0
	}
	for remaining < 0.5 {
		stages = append(stages, "atempo=0.5")
		remaining /= 0.5
	}
	stages = append(stages, fmt.Sprintf("atempo=%g", remaining))
	return strings.Join(stages, ",")
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func snippetTail(output string) string {
	trimmed := strings.TrimSpace(output)
	if len(trimmed) <= 400 {
		return trimmed
	}
	return trimmed[len(trimmed)-400:]
}
