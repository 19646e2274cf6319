package ffmpeg

import (
	"context"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

// Sentinel errors returned by CheckDependencies.
var (
	ErrFfmpegNotFound  = errors.New("ffmpeg not found on PATH")
	ErrFfprobeNotFound = errors.New("ffprobe not found on PATH")
	ErrEncoderMissing  = errors.New("required encoder not available")
)

// RequiredEncoders are the encoders the output profile needs.
var RequiredEncoders = []string{"libx264", "aac"}

// Check is one dependency check result.
type Check struct {
	Name   string
	OK     bool
	Detail string
}

// Toolchain abstracts PATH lookup and command execution for checks.
type Toolchain struct {
	LookPath func(file string) (string, error)
	Output   func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// SystemToolchain uses the real PATH.
func SystemToolchain() Toolchain {
	return Toolchain{
		LookPath: exec.LookPath,
		Output: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).Output()
		},
	}
}

// CheckDependencies verifies ffmpeg, ffprobe and the required encoders.
// The returned error is the first failure; checks always all run.
func CheckDependencies(ctx context.Context, tc Toolchain) ([]Check, error) {
	var (
		checks   []Check
		firstErr error
	)
	fail := func(c Check, err error) {
		checks = append(checks, c)
		if firstErr == nil {
			firstErr = err
		}
	}

	ffmpegPath, err := tc.LookPath("ffmpeg")
	if err != nil {
		fail(Check{Name: "ffmpeg", Detail: err.Error()}, ErrFfmpegNotFound)
	} else {
		checks = append(checks, Check{Name: "ffmpeg", OK: true, Detail: ffmpegPath})
	}

	if p, err := tc.LookPath("ffprobe"); err != nil {
		fail(Check{Name: "ffprobe", Detail: err.Error()}, ErrFfprobeNotFound)
	} else {
		checks = append(checks, Check{Name: "ffprobe", OK: true, Detail: p})
	}

	if ffmpegPath == "" {
		return checks, firstErr
	}

	out, err := tc.Output(ctx, "ffmpeg", "-hide_banner", "-encoders")
	if err != nil {
		fail(Check{Name: "encoders", Detail: err.Error()}, errors.Wrap(err, "could not list encoders"))
		return checks, firstErr
	}

	available := parseEncoders(string(out))
	for _, enc := range RequiredEncoders {
		if available[enc] {
			checks = append(checks, Check{Name: enc, OK: true, Detail: "available"})
			continue
		}
		fail(Check{Name: enc, Detail: "missing"}, errors.Wrap(ErrEncoderMissing, enc))
	}

	return checks, firstErr
}

// parseEncoders reads `ffmpeg -encoders` output, whose rows look like
// " V....D libx264   libx264 H.264 ...".
func parseEncoders(out string) map[string]bool {
	found := make(map[string]bool)
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || len(fields[0]) != 6 {
			continue
		}
		found[fields[1]] = true
	}
	return found
}
