package scheduler

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"livelens/internal/queue"
	"livelens/internal/services"
)

var commandContext = exec.CommandContext

// Runner executes one job to completion.
type Runner interface {
	Run(ctx context.Context, job queue.Job) error
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, job queue.Job) error

func (f RunnerFunc) Run(ctx context.Context, job queue.Job) error {
	return f(ctx, job)
}

// SubprocessRunner re-invokes the current binary with an analyze or clip
// subcommand so job crashes are isolated from the daemon process.
type SubprocessRunner struct {
	binary     string
	configPath string
}

// SubprocessOption configures the runner.
type SubprocessOption func(*SubprocessRunner)

// WithBinary overrides the executable to invoke.
func WithBinary(binary string) SubprocessOption {
	return func(r *SubprocessRunner) {
		if binary != "" {
			r.binary = binary
		}
	}
}

// WithConfigPath forwards an explicit config file to the subprocess.
func WithConfigPath(path string) SubprocessOption {
	return func(r *SubprocessRunner) {
		r.configPath = path
	}
}

// NewSubprocessRunner builds a runner targeting the current executable.
func NewSubprocessRunner(opts ...SubprocessOption) (*SubprocessRunner, error) {
	binary, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve executable: %w", err)
	}
	runner := &SubprocessRunner{binary: binary}
	for _, opt := range opts {
		opt(runner)
	}
	return runner, nil
}

// Run launches the job subcommand and waits for it. A non-zero exit is a
// job failure.
func (r *SubprocessRunner) Run(ctx context.Context, job queue.Job) error {
	args, err := r.jobArgs(job)
	if err != nil {
		return err
	}
	cmd := commandContext(ctx, r.binary, args...) //nolint:gosec
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return services.Wrap(services.ErrSubprocess, "scheduler", job.Kind(), "job "+job.Key(), err)
	}
	return nil
}

func (r *SubprocessRunner) jobArgs(job queue.Job) ([]string, error) {
	var args []string
	switch job.Kind() {
	case queue.JobTypeVideoAnalysis:
		args = []string{"analyze",
			"--video-id", job.VideoID,
			"--blob-url", job.BlobURL,
		}
		if job.ExcelProductBlobURL != "" {
			args = append(args, "--product-sheet-url", job.ExcelProductBlobURL)
		}
		if job.ExcelTrendBlobURL != "" {
			args = append(args, "--trend-sheet-url", job.ExcelTrendBlobURL)
		}
	case queue.JobTypeGenerateClip:
		args = []string{"clip",
			"--clip-id", job.ClipID,
			"--video-id", job.VideoID,
			"--blob-url", job.BlobURL,
			"--time-start", strconv.FormatFloat(job.TimeStart, 'f', -1, 64),
			"--time-end", strconv.FormatFloat(job.TimeEnd, 'f', -1, 64),
			"--phase-index", strconv.Itoa(job.PhaseIndex),
		}
		if job.SpeedFactor > 0 {
			args = append(args, "--speed-factor", strconv.FormatFloat(job.SpeedFactor, 'f', -1, 64))
		}
	default:
		return nil, services.Wrap(services.ErrValidation, "scheduler", "dispatch", "unknown job type "+job.Type, nil)
	}
	if r.configPath != "" {
		args = append(args, "--config", r.configPath)
	}
	return args, nil
}

var _ Runner = (*SubprocessRunner)(nil)
