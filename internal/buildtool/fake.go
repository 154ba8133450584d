package buildtool

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/AnuParkACar/libro-replication/internal/types"
)

// FakeOutcome scripts what the fake reports for one (revision, test method)
// pair.
type FakeOutcome struct {
	CompileFails bool
	CompileErr   string
	TestPasses   bool
	TestOutput   string
	Hangs        bool // block until the context expires
}

// Fake is an in-memory Tool for pipeline and differ tests. Checkouts copy a
// template directory so host selection and injection see real files.
type Fake struct {
	mu sync.Mutex

	// TemplateDir is copied into every checkout target.
	TemplateDir string
	// Outcomes maps revision -> test method -> scripted outcome. Methods with
	// no entry pass.
	Outcomes map[types.Revision]map[string]FakeOutcome
	// Trigger lists the scripted trigger tests.
	Trigger []string

	// CheckedOut records every checkout target (revision order included) for
	// assertions about arena isolation.
	CheckedOut []string

	revByDir map[string]types.Revision
}

// NewFake builds a fake whose checkouts replicate templateDir.
func NewFake(templateDir string) *Fake {
	return &Fake{
		TemplateDir: templateDir,
		Outcomes:    make(map[types.Revision]map[string]FakeOutcome),
		revByDir:    make(map[string]types.Revision),
	}
}

// Script sets the outcome for a test method on one revision.
func (f *Fake) Script(rev types.Revision, method string, out FakeOutcome) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Outcomes[rev] == nil {
		f.Outcomes[rev] = make(map[string]FakeOutcome)
	}
	f.Outcomes[rev][method] = out
}

func (f *Fake) Checkout(ctx context.Context, project, bugNumber string, rev types.Revision, dir string) (*CmdResult, error) {
	if err := copyTree(f.TemplateDir, dir); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.CheckedOut = append(f.CheckedOut, dir)
	f.revByDir[dir] = rev
	f.mu.Unlock()
	return &CmdResult{ExitCode: 0}, nil
}

func (f *Fake) Compile(ctx context.Context, dir string) (*CmdResult, error) {
	rev := f.revisionOf(dir)
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, out := range f.Outcomes[rev] {
		if out.CompileFails {
			msg := out.CompileErr
			if msg == "" {
				msg = "error: cannot find symbol"
			}
			return &CmdResult{ExitCode: 1, Stderr: msg}, nil
		}
	}
	return &CmdResult{ExitCode: 0, Stdout: "BUILD SUCCESSFUL"}, nil
}

func (f *Fake) RunTest(ctx context.Context, dir, testClass, testMethod string) (*CmdResult, error) {
	rev := f.revisionOf(dir)
	f.mu.Lock()
	out, ok := f.Outcomes[rev][testMethod]
	f.mu.Unlock()
	if !ok {
		return &CmdResult{ExitCode: 0, Stdout: "OK (1 test)"}, nil
	}
	if out.Hangs {
		<-ctx.Done()
		return &CmdResult{ExitCode: -1, TimedOut: true}, nil
	}
	if out.TestPasses {
		return &CmdResult{ExitCode: 0, Stdout: "OK (1 test)"}, nil
	}
	output := out.TestOutput
	if output == "" {
		output = fmt.Sprintf("FAILED: %s::%s\njunit.framework.AssertionFailedError", testClass, testMethod)
	}
	return &CmdResult{ExitCode: 1, Stdout: "FAILED", Stderr: output}, nil
}

func (f *Fake) TriggerTests(ctx context.Context, dir string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Trigger...), nil
}

func (f *Fake) revisionOf(dir string) types.Revision {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rev, ok := f.revByDir[dir]; ok {
		return rev
	}
	return types.RevisionBuggy
}

// copyTree replicates src into dst.
func copyTree(src, dst string) error {
	if src == "" {
		return os.MkdirAll(dst, 0755)
	}
	return os.CopyFS(dst, os.DirFS(src))
}
