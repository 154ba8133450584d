// Package inject splices an extracted test method into a selected host file:
// it detects the host's test framework convention, resolves the candidate's
// missing imports against the checkout, and writes the result as a new file
// so concurrent candidates against the same host never collide.
package inject

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

var (
	// ErrNoClassDecl means the host file carries no class declaration to
	// splice into. Injection aborts rather than degrading.
	ErrNoClassDecl = errors.New("host file has no class declaration")
	// ErrUnbalancedHost means the host class's closing brace was never found.
	ErrUnbalancedHost = errors.New("host class braces never balance")
)

// Convention is the assertion/annotation framework the host already uses.
// Injected code follows the host's convention so added imports are
// compatible.
type Convention string

const (
	ConventionJUnit3 Convention = "junit3"
	ConventionJUnit4 Convention = "junit4"
	ConventionJUnit5 Convention = "junit5"
)

// DetectConvention inspects the host's marker imports. Hosts with no marker
// default to JUnit 4, the dominant convention in the target corpora.
func DetectConvention(hostContent string) Convention {
	switch {
	case strings.Contains(hostContent, "org.junit.jupiter"):
		return ConventionJUnit5
	case strings.Contains(hostContent, "org.junit.Test") ||
		strings.Contains(hostContent, "org.junit.Assert"):
		return ConventionJUnit4
	case strings.Contains(hostContent, "junit.framework"):
		return ConventionJUnit3
	default:
		return ConventionJUnit4
	}
}

var (
	classDeclRe  = regexp.MustCompile(`\bclass\s+(\w+)`)
	packageRe    = regexp.MustCompile(`(?m)^\s*package\s+([\w.]+)\s*;`)
	assertCallRe = regexp.MustCompile(`(?i)\b(assert\w+|fail|expect\w+)\s*\(`)
)

// Result describes a completed injection.
type Result struct {
	ModifiedPath string
	OriginalPath string
	ClassName    string // class name of the written copy
	Package      string // host package, "" for the default package
	AddedImports []string
	Unresolved   []string // symbols left for the compiler to complain about
}

// FullClassName returns the fully-qualified name of the injected class, the
// form the build tool's single-test runner expects.
func (r Result) FullClassName() string {
	if r.Package == "" {
		return r.ClassName
	}
	return r.Package + "." + r.ClassName
}

// Injector splices candidates into hosts within one checkout.
type Injector struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Injector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Injector{log: log}
}

// Inject resolves the candidate's dependencies against the checkout, splices
// imports and the method body into the host, and writes the result next to
// the host as <HostStem>_<candidateID>.java. The original host file is left
// untouched.
func (in *Injector) Inject(unit, hostPath, checkoutRoot, candidateID string) (*Result, error) {
	raw, err := os.ReadFile(hostPath)
	if err != nil {
		return nil, fmt.Errorf("reading host: %w", err)
	}
	hostContent := string(raw)

	classMatch := classDeclRe.FindStringSubmatch(hostContent)
	if classMatch == nil {
		return nil, ErrNoClassDecl
	}
	origClass := classMatch[1]

	resolutions := ResolveSymbols(unit, hostContent, checkoutRoot)

	var added, unresolved []string
	for _, r := range resolutions {
		if r.Resolved {
			added = append(added, r.Import)
		} else {
			unresolved = append(unresolved, r.Symbol)
		}
	}
	added = append(conventionImports(unit, hostContent), added...)

	newClass := fmt.Sprintf("%s_%s", origClass, sanitizeID(candidateID))
	content := hostContent

	// The copy must declare the renamed class or it will not compile next to
	// the original.
	content = strings.Replace(content, classMatch[0], "class "+newClass, 1)
	content = renameConstructors(content, origClass, newClass)

	content, err = addImports(content, added)
	if err != nil {
		return nil, err
	}
	content, err = spliceMethod(content, newClass, unit)
	if err != nil {
		return nil, err
	}

	modifiedPath := filepath.Join(filepath.Dir(hostPath), newClass+".java")
	if err := os.WriteFile(modifiedPath, []byte(content), 0644); err != nil {
		return nil, fmt.Errorf("writing modified host: %w", err)
	}

	pkg := ""
	if m := packageRe.FindStringSubmatch(hostContent); m != nil {
		pkg = m[1]
	}

	in.log.Debug("candidate injected",
		zap.String("host", filepath.Base(hostPath)),
		zap.String("modified", filepath.Base(modifiedPath)),
		zap.Strings("added_imports", added),
		zap.Strings("unresolved", unresolved))

	return &Result{
		ModifiedPath: modifiedPath,
		OriginalPath: hostPath,
		ClassName:    newClass,
		Package:      pkg,
		AddedImports: added,
		Unresolved:   unresolved,
	}, nil
}

// conventionImports returns the assertion and @Test annotation imports the
// candidate needs under the host's convention, skipping ones already present.
func conventionImports(unit, hostContent string) []string {
	conv := DetectConvention(hostContent)
	imports := existingImports(hostContent)
	has := func(needle string) bool {
		for _, imp := range imports {
			if strings.Contains(imp, needle) {
				return true
			}
		}
		return false
	}

	var out []string
	if assertCallRe.MatchString(unit) {
		switch conv {
		case ConventionJUnit4:
			if !has("org.junit.Assert") {
				out = append(out, "import static org.junit.Assert.*;")
			}
		case ConventionJUnit5:
			if !has("org.junit.jupiter.api.Assertions") {
				out = append(out, "import static org.junit.jupiter.api.Assertions.*;")
			}
		}
		// JUnit 3 hosts inherit assertions from TestCase; nothing to add.
	}
	if strings.Contains(unit, "@Test") {
		switch conv {
		case ConventionJUnit4:
			if !has("org.junit.Test") {
				out = append(out, "import org.junit.Test;")
			}
		case ConventionJUnit5:
			if !has("org.junit.jupiter.api.Test") {
				out = append(out, "import org.junit.jupiter.api.Test;")
			}
		}
	}
	return out
}

// addImports inserts import statements after the package declaration and any
// existing imports.
func addImports(content string, imports []string) (string, error) {
	if len(imports) == 0 {
		return content, nil
	}
	lines := strings.Split(content, "\n")

	insert := 0
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "package ") {
			insert = i + 1
			break
		}
	}
	for i := insert; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, "import ") {
			insert = i + 1
		} else if trimmed != "" {
			break
		}
	}

	out := make([]string, 0, len(lines)+len(imports))
	out = append(out, lines[:insert]...)
	out = append(out, imports...)
	out = append(out, lines[insert:]...)
	return strings.Join(out, "\n"), nil
}

// spliceMethod inserts the candidate method immediately before the class's
// final closing brace, found by brace-depth counting from the class
// declaration.
func spliceMethod(content, className, unit string) (string, error) {
	lines := strings.Split(content, "\n")

	classLine := -1
	classRe := regexp.MustCompile(`\bclass\s+` + regexp.QuoteMeta(className) + `\b`)
	for i, line := range lines {
		if classRe.MatchString(line) {
			classLine = i
			break
		}
	}
	if classLine == -1 {
		return "", ErrNoClassDecl
	}

	depth := 0
	opened := false
	closeLine := -1
	for i := classLine; i < len(lines); i++ {
		depth += strings.Count(lines[i], "{")
		if strings.Contains(lines[i], "{") {
			opened = true
		}
		depth -= strings.Count(lines[i], "}")
		if opened && depth == 0 {
			closeLine = i
			break
		}
	}
	if closeLine == -1 {
		return "", ErrUnbalancedHost
	}

	indented := make([]string, 0, len(strings.Split(unit, "\n"))+2)
	indented = append(indented, "")
	for _, l := range strings.Split(unit, "\n") {
		indented = append(indented, "    "+l)
	}

	out := make([]string, 0, len(lines)+len(indented))
	out = append(out, lines[:closeLine]...)
	out = append(out, indented...)
	out = append(out, lines[closeLine:]...)
	return strings.Join(out, "\n"), nil
}

// renameConstructors keeps JUnit 3 style hosts compilable: TestCase
// subclasses often declare named constructors that must follow the class
// rename.
func renameConstructors(content, origClass, newClass string) string {
	ctorRe := regexp.MustCompile(`(?m)^(\s*(?:public|protected)\s+)` + regexp.QuoteMeta(origClass) + `(\s*\()`)
	return ctorRe.ReplaceAllString(content, "${1}"+newClass+"${2}")
}

var idSanitizeRe = regexp.MustCompile(`[^A-Za-z0-9_]`)

func sanitizeID(id string) string {
	return idSanitizeRe.ReplaceAllString(id, "_")
}
