// Package logging builds the hclog loggers shared by the commands.
package logging

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
)

// New returns a root logger writing to stderr. verbose forces debug level
// regardless of level.
func New(name, level string, verbose bool) hclog.Logger {
	return NewWithOutput(name, level, verbose, os.Stderr)
}

// NewWithOutput is New with an explicit sink.
func NewWithOutput(name, level string, verbose bool, out io.Writer) hclog.Logger {
	lvl := hclog.LevelFromString(level)
	if lvl == hclog.NoLevel {
		lvl = hclog.Info
	}
	if verbose {
		lvl = hclog.Debug
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:   name,
		Level:  lvl,
		Output: out,
	})
}
