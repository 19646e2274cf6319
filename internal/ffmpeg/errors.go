package ffmpeg

import (
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// Class groups a per-job failure for reporting.
type Class string

const (
	ClassIO       Class = "io"
	ClassResource Class = "resource"
	ClassUnknown  Class = "unknown"
)

// ExecError is returned when ffmpeg exits with an error. Stderr holds
// everything ffmpeg wrote to its error stream.
type ExecError struct {
	Err    error
	Stderr string
}

func (e *ExecError) Error() string {
	if line := lastLine(e.Stderr); line != "" {
		return e.Err.Error() + ": " + line
	}
	return e.Err.Error()
}

func (e *ExecError) Unwrap() error { return e.Err }

// Pre-compiled patterns matched against the error text and ffmpeg stderr.
var (
	reMissingBinary = regexp.MustCompile(
		`(?i)(ffmpeg|ffprobe).*(executable file not found|no such file or directory)|` +
			`executable file not found.*(ffmpeg|ffprobe)`)

	rePermission = regexp.MustCompile(`(?i)permission denied|errno 13|operation not permitted`)

	reUnknownEncoder = regexp.MustCompile(`(?i)unknown encoder|encoder not found`)

	reMemory = regexp.MustCompile(
		`(?i)cannot allocate memory|out of memory|insufficient memory|` +
			`failed to allocate|signal: killed`)

	reUnreadable = regexp.MustCompile(
		`(?i)no such file or directory|invalid data found when processing input|` +
			`moov atom not found|could not find codec parameters|` +
			`no video stream|no streams found|could not determine video duration|` +
			`invalid frame size|invalid ffprobe output|is a directory`)
)

// StderrOf returns the ffmpeg stderr carried by err, if any.
func StderrOf(err error) string {
	var ee *ExecError
	if errors.As(err, &ee) {
		return ee.Stderr
	}
	return ""
}

// Classify sorts a per-job failure into io, resource or unknown.
func Classify(err error, stderr string) Class {
	if err == nil {
		return ClassUnknown
	}
	text := err.Error() + "\n" + stderr

	switch {
	case reMemory.MatchString(text):
		return ClassResource
	case errors.Is(err, exec.ErrNotFound),
		errors.Is(err, os.ErrPermission),
		errors.Is(err, os.ErrNotExist),
		reMissingBinary.MatchString(text),
		rePermission.MatchString(text),
		reUnknownEncoder.MatchString(text),
		reUnreadable.MatchString(text):
		return ClassIO
	default:
		return ClassUnknown
	}
}

// maxHintRunes caps the raw ffmpeg detail shown in a hint.
const maxHintRunes = 100

// Hint turns a per-job failure into a short human-readable message.
func Hint(err error, stderr string) string {
	if err == nil {
		return ""
	}
	text := err.Error() + "\n" + stderr

	switch {
	case errors.Is(err, exec.ErrNotFound) || reMissingBinary.MatchString(text):
		return "ffmpeg/ffprobe not found; is it installed and on PATH?"
	case errors.Is(err, os.ErrPermission) || rePermission.MatchString(text):
		return "permission denied; is the output directory writable?"
	case reUnknownEncoder.MatchString(text):
		enc := "aac"
		if strings.Contains(text, "libx264") {
			enc = "libx264"
		}
		return "ffmpeg does not know the " + enc + " encoder; is ffmpeg up to date?"
	case reMemory.MatchString(text):
		return "not enough memory; try smaller videos"
	}

	detail := lastLine(stderr)
	if detail == "" {
		detail = err.Error()
	}
	detail = strings.TrimSpace(strings.ReplaceAll(detail, "\n", " "))
	if r := []rune(detail); len(r) > maxHintRunes {
		detail = string(r[:maxHintRunes]) + "..."
	}
	return detail
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
