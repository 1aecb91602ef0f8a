package assemble

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Runner executes media commands. The default shells out to ffmpeg; tests
// substitute a recorder.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// Prober measures the duration of a media file in seconds.
type Prober interface {
	Duration(path string) (float64, error)
}

// ExecRunner runs commands through the OS.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// ExecProber measures durations with ffprobe.
type ExecProber struct{}

func (ExecProber) Duration(path string) (float64, error) {
	out, err := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).Output()
	if err != nil {
		return 0, err
	}
	var dur float64
	_, err = fmt.Sscanf(strings.TrimSpace(string(out)), "%f", &dur)
	return dur, err
}
