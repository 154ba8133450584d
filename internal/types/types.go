// Package types holds the shared data model for the bug-reproduction
// pipeline: bug reports, candidates, per-revision execution records and the
// differential classification taxonomy. Pipeline stages fill in candidate
// fields in order; nothing here is shared across bugs.
package types

import "time"

// Revision identifies which side of the buggy/fixed pair a checkout or
// execution belongs to.
type Revision string

const (
	RevisionBuggy Revision = "buggy"
	RevisionFixed Revision = "fixed"
)

// BugReport is the natural-language bug description. It is supplied by the
// caller and used only for keyword overlap scoring; the pipeline never
// mutates it.
type BugReport struct {
	ID          string `yaml:"id" json:"id"`
	Project     string `yaml:"project" json:"project"`
	BugNumber   string `yaml:"bug_number" json:"bug_number"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
}

// Outcome is the terminal state of one test execution on one revision.
type Outcome string

const (
	OutcomePassed       Outcome = "passed"
	OutcomeFailed       Outcome = "failed"
	OutcomeTimedOut     Outcome = "timed_out"
	OutcomeCompileError Outcome = "compile_error"
)

// ExecutionRecord is produced once per (candidate, revision) run and is
// immutable afterwards.
type ExecutionRecord struct {
	Revision     Revision `json:"revision"`
	Compiled     bool     `json:"compiled"`
	Outcome      Outcome  `json:"outcome"`
	ErrorKind    string   `json:"error_kind,omitempty"`
	ErrorMessage string   `json:"error_message,omitempty"`
	Output       string   `json:"output,omitempty"`
	DurationMs   int64    `json:"duration_ms"`
}

// Classification is the differential verdict over a (buggy, fixed) record
// pair.
type Classification string

const (
	// ClassBRT: failed on buggy, passed on fixed. A bug-reproducing test.
	ClassBRT Classification = "BRT"
	// ClassFIB: failed on buggy but also failed on fixed.
	ClassFIB Classification = "FIB"
	// ClassNotReproducing: passed or timed out on buggy; never triggers the bug.
	ClassNotReproducing Classification = "NOT_REPRODUCING"
	// ClassCompileErrorBuggy: did not compile against the buggy revision.
	ClassCompileErrorBuggy Classification = "COMPILE_ERROR_BUGGY"
	// ClassCompileErrorFixed: compiled on buggy but not on fixed.
	ClassCompileErrorFixed Classification = "COMPILE_ERROR_FIXED"
)

// FailedOnBuggy reports whether this classification belongs to the
// ranking-eligible subset (both revisions compiled, buggy run failed).
func (c Classification) FailedOnBuggy() bool {
	return c == ClassBRT || c == ClassFIB
}

// DropStage names the pipeline stage at which a candidate was dropped.
type DropStage string

const (
	DropExtraction    DropStage = "extraction"
	DropHostSelection DropStage = "host_selection"
	DropInjection     DropStage = "injection"
)

// Candidate is one generator sample moving through the pipeline. Fields are
// filled in by successive stages; a zero value in a later field means the
// candidate never reached that stage.
type Candidate struct {
	ID         string `json:"id"`
	BugID      string `json:"bug_id"`
	Sample     int    `json:"sample"`
	RawText    string `json:"raw_text"`
	Unit       string `json:"unit,omitempty"`
	MethodName string `json:"method_name,omitempty"`

	HostPath  string  `json:"host_path,omitempty"`
	HostScore float64 `json:"host_score,omitempty"`

	InjectedPath    string   `json:"injected_path,omitempty"`
	AddedImports    []string `json:"added_imports,omitempty"`
	UnresolvedRefs  []string `json:"unresolved_refs,omitempty"`
	InjectedClass   string   `json:"injected_class,omitempty"`
	InjectedPackage string   `json:"injected_package,omitempty"`

	Buggy *ExecutionRecord `json:"buggy,omitempty"`
	Fixed *ExecutionRecord `json:"fixed,omitempty"`

	Classification Classification `json:"classification,omitempty"`
	ErrorKind      string         `json:"error_kind,omitempty"`
	ErrorMessage   string         `json:"error_message,omitempty"`

	DropStage  DropStage `json:"drop_stage,omitempty"`
	DropReason string    `json:"drop_reason,omitempty"`

	CreatedAt  time.Time `json:"created_at"`
	DurationMs int64     `json:"duration_ms"`
}

// Dropped reports whether the candidate was discarded before execution.
func (c *Candidate) Dropped() bool { return c.DropStage != "" }

// FullyExecuted reports whether both revisions produced a record.
func (c *Candidate) FullyExecuted() bool { return c.Buggy != nil && c.Fixed != nil }
