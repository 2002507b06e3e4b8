package process

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// Result holds the output and status of a finished run.
type Result struct {
	Stdout []byte
	Stderr []byte
	// ExitCode is -1 when the process was killed by a signal.
	ExitCode int
	Duration time.Duration
}

// LastLine returns the last non-blank line of stdout, trimmed.
func (r *Result) LastLine() string {
	return lastLine(r.Stdout)
}

// StderrTail returns at most n trailing lines of stderr.
func (r *Result) StderrTail(n int) string {
	lines := strings.Split(strings.TrimRight(string(r.Stderr), "\r\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

func lastLine(b []byte) string {
	b = bytes.TrimRight(b, " \t\r\n")
	if i := bytes.LastIndexByte(b, '\n'); i >= 0 {
		b = b[i+1:]
	}
	return string(bytes.TrimSpace(b))
}

// ExitError reports a non-zero exit status.
type ExitError struct {
	Code   int
	Stderr string
	Err    error
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("process: exit code %d", e.Code)
	}
	return fmt.Sprintf("process: exit code %d: %s", e.Code, e.Stderr)
}

func (e *ExitError) Unwrap() error { return e.Err }
