package differ

import (
	"regexp"
	"strings"
)

const maxMessage = 200

// failurePatterns is the ordered matcher list for test failure output. The
// first kind that matches wins; its message pattern grabs the rest of the
// line.
var failurePatterns = []struct {
	kind *regexp.Regexp
	msg  *regexp.Regexp
}{
	{regexp.MustCompile(`AssertionError|AssertionFailedError`), regexp.MustCompile(`(?:AssertionError|AssertionFailedError)[^\n]*`)},
	{regexp.MustCompile(`\bNullPointerException\b`), regexp.MustCompile(`NullPointerException[^\n]*`)},
	{regexp.MustCompile(`\bIllegalArgumentException\b`), regexp.MustCompile(`IllegalArgumentException[^\n]*`)},
	{regexp.MustCompile(`\bArrayIndexOutOfBoundsException\b`), regexp.MustCompile(`ArrayIndexOutOfBoundsException[^\n]*`)},
	{regexp.MustCompile(`\b(\w+Exception)\b`), regexp.MustCompile(`\w+Exception[^\n]*`)},
}

var (
	expectedActualRe = regexp.MustCompile(`(?i)expected:<([^>]*)>\s+but\s+was:<([^>]*)>`)
	exceptionNameRe  = regexp.MustCompile(`\b(\w+(?:Exception|Error))\b`)
)

// ParseFailure extracts an (errorKind, truncated message) pair from combined
// test output via ordered pattern matching; unrecognized shapes fall back to
// the first characters of the output.
func ParseFailure(output string) (kind, message string) {
	for _, p := range failurePatterns {
		loc := p.kind.FindStringIndex(output)
		if loc == nil {
			continue
		}
		kind = exceptionKind(output[loc[0]:loc[1]])
		if m := p.msg.FindString(output); m != "" {
			message = truncateMessage(m)
		} else {
			message = kind
		}
		return kind, message
	}

	// Assertion failures that never name an exception type still carry the
	// expected/actual shape.
	if m := expectedActualRe.FindStringSubmatch(output); m != nil {
		return "AssertionError", truncateMessage("expected:<" + m[1] + "> but was:<" + m[2] + ">")
	}

	return "UnknownError", truncateMessage(output)
}

// exceptionKind normalizes a raw kind match to a single type name.
func exceptionKind(match string) string {
	if m := exceptionNameRe.FindString(match); m != "" {
		return m
	}
	return match
}

// ExtractCompileError pulls the meaningful lines out of compiler output:
// up to the first three "error:" lines, otherwise a truncated prefix.
func ExtractCompileError(output string) string {
	var errs []string
	for _, line := range strings.Split(output, "\n") {
		if strings.Contains(strings.ToLower(line), "error:") {
			errs = append(errs, strings.TrimSpace(line))
			if len(errs) == 3 {
				break
			}
		}
	}
	if len(errs) > 0 {
		return truncateMessage(strings.Join(errs, "; "))
	}
	return truncateMessage(output)
}

func truncateMessage(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxMessage {
		return s[:maxMessage]
	}
	return s
}
