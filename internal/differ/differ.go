// Package differ runs an injected test against one revision at a time
// (compile, then execute) and classifies (buggy, fixed) record pairs into the
// BRT/FIB taxonomy. The per-revision run is a small state machine: NotStarted
// → Compiling → {CompileFailed | Compiled} → Running → {Passed | Failed |
// TimedOut}.
package differ

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/AnuParkACar/libro-replication/internal/buildtool"
	"github.com/AnuParkACar/libro-replication/internal/types"
)

// Executor drives compile-and-run against single-revision checkouts.
type Executor struct {
	tool buildtool.Tool
	log  *zap.Logger
}

func NewExecutor(tool buildtool.Tool, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{tool: tool, log: log}
}

// Execute compiles the checkout at dir and runs one named test method,
// producing the revision's immutable ExecutionRecord. Tool-unavailable
// errors propagate; everything else lands in the record.
func (e *Executor) Execute(ctx context.Context, dir string, rev types.Revision, testClass, testMethod string) (*types.ExecutionRecord, error) {
	start := time.Now()
	rec := &types.ExecutionRecord{Revision: rev}

	compile, err := e.tool.Compile(ctx, dir)
	if err != nil {
		return nil, err
	}
	if compile.TimedOut || compile.ExitCode != 0 {
		rec.Outcome = types.OutcomeCompileError
		rec.ErrorKind = "CompilationError"
		rec.ErrorMessage = ExtractCompileError(compile.Combined())
		rec.Output = truncateOutput(compile.Combined())
		rec.DurationMs = time.Since(start).Milliseconds()
		e.log.Debug("compile failed",
			zap.String("revision", string(rev)),
			zap.String("error", rec.ErrorMessage))
		return rec, nil
	}
	rec.Compiled = true

	run, err := e.tool.RunTest(ctx, dir, testClass, testMethod)
	if err != nil {
		return nil, err
	}
	rec.Output = truncateOutput(run.Combined())
	rec.DurationMs = time.Since(start).Milliseconds()

	switch {
	case run.TimedOut:
		rec.Outcome = types.OutcomeTimedOut
		rec.ErrorKind = "Timeout"
		rec.ErrorMessage = "test execution exceeded deadline"
	case testPassed(run):
		rec.Outcome = types.OutcomePassed
	default:
		rec.Outcome = types.OutcomeFailed
		rec.ErrorKind, rec.ErrorMessage = ParseFailure(run.Combined())
	}

	e.log.Debug("test executed",
		zap.String("revision", string(rev)),
		zap.String("outcome", string(rec.Outcome)),
		zap.String("kind", rec.ErrorKind))
	return rec, nil
}

// testPassed interprets the build tool's single-test output. "OK" and a zero
// exit both mean pass, unless the output carries an explicit failure marker.
func testPassed(res *buildtool.CmdResult) bool {
	combined := res.Combined()
	for _, marker := range []string{
		"FAILED", "FAILURES", "AssertionError", "junit.framework.AssertionFailedError",
	} {
		if strings.Contains(combined, marker) {
			return false
		}
	}
	if strings.Contains(res.Stdout, "OK") {
		return true
	}
	return res.ExitCode == 0
}

const maxOutput = 4000

func truncateOutput(s string) string {
	if len(s) <= maxOutput {
		return s
	}
	return s[:maxOutput]
}
