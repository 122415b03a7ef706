package ghostscript

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ToolError reports a failed Ghostscript invocation. Stderr holds the
// diagnostic output exactly as the tool printed it.
type ToolError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ToolError) Error() string {
	var b strings.Builder
	if e.ExitCode != 0 {
		fmt.Fprintf(&b, "ghostscript error (exit status %d)", e.ExitCode)
	} else {
		b.WriteString("ghostscript error")
	}
	if e.Stderr != "" {
		b.WriteString(":\n")
		b.WriteString(e.Stderr)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// BaseArgs returns the flags passed on every invocation, ahead of the profile flags.
func BaseArgs() []string {
	return []string{
		"-sDEVICE=pdfwrite",
		"-dCompatibilityLevel=1.4",
		"-dNOPAUSE",
		"-dQUIET",
		"-dBATCH",
	}
}

// BuildArgs assembles the full argument vector: base flags, profile flags,
// the output file flag and finally the input path.
func BuildArgs(profileArgs []string, outputPath, inputPath string) []string {
	args := BaseArgs()
	args = append(args, profileArgs...)
	return append(args, "-sOutputFile="+outputPath, inputPath)
}

// Tool runs a located Ghostscript executable.
type Tool struct {
	path    string
	timeout time.Duration
	logger  *logrus.Logger
}

// NewTool returns a Tool for the executable at path. A zero timeout lets
// each invocation run until Ghostscript exits on its own.
func NewTool(path string, timeout time.Duration, logger *logrus.Logger) *Tool {
	if logger == nil {
		logger = logrus.New()
	}
	return &Tool{
		path:    path,
		timeout: timeout,
		logger:  logger,
	}
}

// Path returns the executable path.
func (t *Tool) Path() string {
	return t.path
}

// Run invokes Ghostscript synchronously. The call succeeds only when the
// process exits with status 0 and writes nothing to stderr.
func (t *Tool) Run(ctx context.Context, args []string) error {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.SysProcAttr = sysProcAttr()

	start := time.Now()
	err := cmd.Run()
	t.logger.WithFields(logrus.Fields{
		"operation": "ghostscript",
		"duration":  time.Since(start).String(),
	}).Debugf("%s %s", t.path, strings.Join(args, " "))

	if ctx.Err() == context.DeadlineExceeded {
		return &ToolError{ExitCode: -1, Stderr: stderr.String(), Err: fmt.Errorf("timed out after %v", t.timeout)}
	}
	if err != nil {
		toolErr := &ToolError{ExitCode: -1, Stderr: stderr.String(), Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			toolErr.ExitCode = exitErr.ExitCode()
		}
		return toolErr
	}
	if stderr.Len() > 0 {
		return &ToolError{Stderr: stderr.String()}
	}
	if stdout.Len() > 0 {
		t.logger.WithField("operation", "ghostscript").Debug(strings.TrimSpace(stdout.String()))
	}
	return nil
}
