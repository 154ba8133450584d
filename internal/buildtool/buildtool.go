// Package buildtool wraps the external build-tool collaborator (Defects4J)
// behind an interface. Every operation is an external process with an
// explicit timeout; on expiry the process is killed, not abandoned. The core
// only ever sees exit codes and captured output.
package buildtool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/AnuParkACar/libro-replication/internal/types"
)

// ErrToolUnavailable means the build tool binary cannot be run at all. This
// is fatal for the whole run, unlike per-candidate failures.
var ErrToolUnavailable = errors.New("build tool unavailable")

// CmdResult is the raw outcome of one external invocation.
type CmdResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
	Duration time.Duration
}

// Combined returns stdout and stderr glued together, the form the failure
// parsers consume.
func (r *CmdResult) Combined() string { return r.Stdout + r.Stderr }

// Tool is the four-operation collaborator contract the pipeline depends on.
type Tool interface {
	// Checkout materializes the given revision of a bug into dir.
	Checkout(ctx context.Context, project, bugNumber string, rev types.Revision, dir string) (*CmdResult, error)
	// Compile builds the project in dir.
	Compile(ctx context.Context, dir string) (*CmdResult, error)
	// RunTest runs a single named test method in a compiled project.
	RunTest(ctx context.Context, dir, testClass, testMethod string) (*CmdResult, error)
	// TriggerTests lists the revision's trigger tests.
	TriggerTests(ctx context.Context, dir string) ([]string, error)
}

// Timeouts carries the per-operation deadlines.
type Timeouts struct {
	Checkout time.Duration
	Compile  time.Duration
	Test     time.Duration
}

// Defects4J shells out to the defects4j command line.
type Defects4J struct {
	binary   string
	timeouts Timeouts
	log      *zap.Logger
}

// NewDefects4J builds the real adapter. binary defaults to "defects4j" on
// PATH.
func NewDefects4J(binary string, timeouts Timeouts, log *zap.Logger) *Defects4J {
	if binary == "" {
		binary = "defects4j"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Defects4J{binary: binary, timeouts: timeouts, log: log}
}

func (d *Defects4J) Checkout(ctx context.Context, project, bugNumber string, rev types.Revision, dir string) (*CmdResult, error) {
	suffix := "b"
	if rev == types.RevisionFixed {
		suffix = "f"
	}
	return d.run(ctx, d.timeouts.Checkout, "",
		"checkout", "-p", project, "-v", bugNumber+suffix, "-w", dir)
}

func (d *Defects4J) Compile(ctx context.Context, dir string) (*CmdResult, error) {
	return d.run(ctx, d.timeouts.Compile, dir, "compile")
}

func (d *Defects4J) RunTest(ctx context.Context, dir, testClass, testMethod string) (*CmdResult, error) {
	return d.run(ctx, d.timeouts.Test, dir, "test", "-t", testClass+"::"+testMethod)
}

func (d *Defects4J) TriggerTests(ctx context.Context, dir string) ([]string, error) {
	res, err := d.run(ctx, d.timeouts.Test, dir, "export", "-p", "tests.trigger")
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("listing trigger tests: exit %d: %s", res.ExitCode, firstLine(res.Stderr))
	}
	var tests []string
	for _, line := range strings.Split(res.Stdout, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			tests = append(tests, line)
		}
	}
	return tests, nil
}

// run executes one tool invocation. A non-zero exit is reported in the
// result, not as an error; errors are reserved for the tool being unrunnable.
func (d *Defects4J) run(ctx context.Context, timeout time.Duration, dir string, args ...string) (*CmdResult, error) {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, d.binary, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := &CmdResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
		TimedOut: errors.Is(cctx.Err(), context.DeadlineExceeded),
	}

	switch {
	case err == nil:
		res.ExitCode = 0
	case res.TimedOut:
		res.ExitCode = -1
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else {
			// Not an exit status: the binary itself could not run.
			return nil, fmt.Errorf("%w: %s: %v", ErrToolUnavailable, d.binary, err)
		}
	}

	d.log.Debug("build tool invocation",
		zap.Strings("args", args),
		zap.Int("exit", res.ExitCode),
		zap.Bool("timed_out", res.TimedOut),
		zap.Duration("took", res.Duration))
	return res, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
