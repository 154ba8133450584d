// Package extract turns raw generator output into zero-or-one syntactically
// complete test method. Generator output is routinely truncated mid-token or
// wrapped in prose, so everything here is heuristic: signature pattern plus
// brace-depth scanning, never a real parser.
package extract

import (
	"regexp"
	"strings"
)

// minBodyLen guards against empty or degenerate completions: the text between
// the method braces must carry at least this many non-space characters.
const minBodyLen = 10

var (
	signatureRe  = regexp.MustCompile(`(?i)(public|protected|private)\s+void\s+test\w*\s*\([^)]*\)`)
	methodNameRe = regexp.MustCompile(`(?i)(?:public|protected|private)\s+void\s+(test\w*)\s*\(`)
)

// Unit extracts a self-contained test method from raw generator text.
// prompt is the verbatim prompt (or prompt suffix) that preceded the sample;
// when the raw text echoes it, the echo is stripped before matching so
// few-shot examples in the prompt cannot be mistaken for the completion.
//
// Returns ("", false) when no signature is found, the braces never balance
// (truncated generation), or the body is shorter than the minimum-content
// threshold. Unit is pure and idempotent: extracting from its own output
// yields the same text.
func Unit(raw, prompt string) (string, bool) {
	text := raw
	if prompt != "" && strings.HasPrefix(text, prompt) {
		text = text[len(prompt):]
	}

	// The generator may restate earlier examples; the completion for the
	// current report is the last signature in the text.
	locs := signatureRe.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		// The prompt itself ends mid-signature ("public void test"); glue it
		// back on in case the model continued directly from the stub.
		if prompt != "" && strings.HasSuffix(strings.TrimSpace(prompt), "public void test") {
			glued := "public void test" + strings.TrimLeft(text, " \t\r\n")
			if locs2 := signatureRe.FindAllStringIndex(glued, -1); len(locs2) > 0 {
				return unitAt(glued, locs2[len(locs2)-1])
			}
		}
		return "", false
	}
	return unitAt(text, locs[len(locs)-1])
}

// unitAt scans forward from the signature match, counting nested brace depth;
// the unit ends at the brace that returns depth to zero.
func unitAt(text string, loc []int) (string, bool) {
	start := loc[0]
	depth := 0
	opened := false
	end := -1
	for i := loc[1]; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
			opened = true
		case '}':
			depth--
			if opened && depth == 0 {
				end = i + 1
			}
		}
		if end >= 0 {
			break
		}
	}
	if end < 0 {
		return "", false
	}

	unit := strings.TrimSpace(text[start:end])
	open := strings.IndexByte(unit, '{')
	body := strings.TrimSpace(unit[open+1 : len(unit)-1])
	if len(body) < minBodyLen {
		return "", false
	}
	return unit, true
}

// MethodName returns the test method's name from an extracted unit, or ""
// when the unit does not carry a recognizable signature.
func MethodName(unit string) string {
	m := methodNameRe.FindStringSubmatch(unit)
	if m == nil {
		return ""
	}
	return m[1]
}
