package buildtool

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/AnuParkACar/libro-replication/internal/types"
)

func timeouts() Timeouts {
	return Timeouts{Checkout: 5 * time.Second, Compile: 5 * time.Second, Test: 5 * time.Second}
}

func TestRunCapturesArgsAndExitZero(t *testing.T) {
	d := NewDefects4J("echo", timeouts(), nil)
	res, err := d.Checkout(context.Background(), "Lang", "51", types.RevisionBuggy, "/tmp/wt")
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if res.ExitCode != 0 {
		t.Errorf("exit = %d, want 0", res.ExitCode)
	}
	if !strings.Contains(res.Stdout, "51b") {
		t.Errorf("buggy revision suffix missing from args: %q", res.Stdout)
	}

	res, err = d.Checkout(context.Background(), "Lang", "51", types.RevisionFixed, "/tmp/wt")
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if !strings.Contains(res.Stdout, "51f") {
		t.Errorf("fixed revision suffix missing from args: %q", res.Stdout)
	}
}

func TestRunTestNamesClassAndMethod(t *testing.T) {
	d := NewDefects4J("echo", timeouts(), nil)
	res, err := d.RunTest(context.Background(), t.TempDir(), "org.acme.FooTest_c0", "testBar")
	if err != nil {
		t.Fatalf("RunTest: %v", err)
	}
	if !strings.Contains(res.Stdout, "org.acme.FooTest_c0::testBar") {
		t.Errorf("single-test selector missing: %q", res.Stdout)
	}
}

func TestNonZeroExitIsAResultNotAnError(t *testing.T) {
	d := NewDefects4J("false", timeouts(), nil)
	res, err := d.Compile(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if res.ExitCode == 0 {
		t.Error("expected non-zero exit code")
	}
	if res.TimedOut {
		t.Error("unexpected timeout")
	}
}

func TestMissingBinaryIsToolUnavailable(t *testing.T) {
	d := NewDefects4J("/no/such/binary/defects4j", timeouts(), nil)
	_, err := d.Compile(context.Background(), t.TempDir())
	if !errors.Is(err, ErrToolUnavailable) {
		t.Errorf("err = %v, want ErrToolUnavailable", err)
	}
}
